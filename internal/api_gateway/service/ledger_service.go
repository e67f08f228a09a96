package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pagemend/pagemend/internal/domain/account"
	"github.com/pagemend/pagemend/internal/domain/ledger"
	"github.com/pagemend/pagemend/internal/domain/shared"
	"github.com/pagemend/pagemend/internal/platform/persistence"
)

// LedgerServiceImpl implements the LedgerService interface. Every mutation
// runs in one database transaction holding a row lock on the account, so
// the balance update, the log append and the idempotency check commit or
// abort together.
type LedgerServiceImpl struct {
	db          persistence.TxBeginner
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	logger      *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(logger *slog.Logger, db persistence.TxBeginner, accountRepo account.Repository, ledgerRepo ledger.Repository) LedgerService {
	return &LedgerServiceImpl{
		db:          db,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

func (s *LedgerServiceImpl) Debit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	return s.mutate(ctx, accountID, ledger.KindDeduct, amount, requestID, description)
}

func (s *LedgerServiceImpl) Credit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	return s.mutate(ctx, accountID, ledger.KindTopup, amount, requestID, description)
}

func (s *LedgerServiceImpl) Refund(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	return s.mutate(ctx, accountID, ledger.KindRefund, amount, requestID, description)
}

func (s *LedgerServiceImpl) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func (s *LedgerServiceImpl) History(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Transaction, int64, error) {
	offset := (page - 1) * perPage

	txns, err := s.ledgerRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// mutate applies one ledger operation. Inside the transaction the account
// row is locked first, then the idempotency lookup runs; two concurrent
// callers with the same request id therefore serialize, and the loser sees
// the winner's committed entry.
func (s *LedgerServiceImpl) mutate(ctx context.Context, accountID uuid.UUID, kind ledger.Kind, amount int64, requestID, description string) (*ledger.Transaction, error) {
	var result *ledger.Transaction

	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)
		entries := s.ledgerRepo.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		existing, err := entries.GetByRequestID(ctx, accountID, requestID, kind)
		if err != nil {
			return err
		}
		if existing != nil {
			s.logger.Info("Replayed ledger request",
				"account_id", accountID.String(),
				"request_id", requestID,
				"kind", string(kind),
				"transaction_id", existing.ID.String(),
			)
			result = existing
			return nil
		}

		txn, err := ledger.NewTransaction(accountID, requestID, kind, amount, acc.Balance, description)
		if err != nil {
			if errors.Is(err, ledger.ErrNegativeBalance) {
				return account.ErrInsufficientBalance
			}
			return err
		}
		txn.CorrelationID = shared.CorrelationIDFromContext(ctx)

		switch kind {
		case ledger.KindDeduct:
			if err := acc.Debit(amount); err != nil {
				return err
			}
		default:
			if err := acc.Credit(amount); err != nil {
				return err
			}
		}

		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
		if err := entries.Create(ctx, txn); err != nil {
			return err
		}

		result = txn
		return nil
	})
	if err != nil {
		// A concurrent writer with the same request id won the unique
		// index race; return its committed transaction.
		var dup ledger.ErrDuplicateRequest
		if errors.As(err, &dup) {
			committed, lookupErr := s.ledgerRepo.GetByRequestID(ctx, accountID, requestID, kind)
			if lookupErr == nil && committed != nil {
				return committed, nil
			}
		}
		if !errors.Is(err, account.ErrInsufficientBalance) {
			s.logger.Error("Failed to commit ledger operation",
				"account_id", accountID.String(),
				"request_id", requestID,
				"kind", string(kind),
				"amount", amount,
				"error", err,
			)
		}
		return nil, err
	}

	return result, nil
}
