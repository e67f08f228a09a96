package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/domain/account"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo account.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
	}
}

// CreateAccount creates an account for an owner, checking for duplicates
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, ownerID string, initialBalance int64) (*account.Account, error) {
	existing, err := s.accountRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, account.ErrDuplicateOwner{OwnerID: ownerID}
	}

	acc, err := account.NewAccount(ownerID, initialBalance)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccountByID retrieves an account, returns ErrAccountNotFound if missing
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// GetAccountByOwnerID retrieves an account by owner, nil when absent
func (s *AccountServiceImpl) GetAccountByOwnerID(ctx context.Context, ownerID string) (*account.Account, error) {
	return s.accountRepo.GetByOwnerID(ctx, ownerID)
}
