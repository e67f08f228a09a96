package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/pagemend/pagemend/internal/domain/account"
	"github.com/pagemend/pagemend/internal/domain/correction"
	"github.com/pagemend/pagemend/internal/domain/issue"
	"github.com/pagemend/pagemend/internal/domain/ledger"
	"github.com/pagemend/pagemend/internal/domain/shared"
	"github.com/pagemend/pagemend/internal/platform/generation"
)

// MockAccountRepository mocks account.Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByOwnerID(ctx context.Context, ownerID string) (*account.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

// MockLedgerRepository mocks ledger.Repository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, txn *ledger.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) GetByRequestID(ctx context.Context, accountID uuid.UUID, requestID string, kind ledger.Kind) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, requestID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return m
}

// MockIssueRepository mocks issue.Repository
type MockIssueRepository struct {
	mock.Mock
}

func (m *MockIssueRepository) Create(ctx context.Context, iss *issue.Issue) error {
	args := m.Called(ctx, iss)
	return args.Error(0)
}

func (m *MockIssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*issue.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issue.Issue), args.Error(1)
}

func (m *MockIssueRepository) ListByDocument(ctx context.Context, documentID uuid.UUID, status *issue.Status) ([]*issue.Issue, error) {
	args := m.Called(ctx, documentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*issue.Issue), args.Error(1)
}

func (m *MockIssueRepository) NextSequence(ctx context.Context, documentID uuid.UUID) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockIssueRepository) Update(ctx context.Context, iss *issue.Issue) error {
	args := m.Called(ctx, iss)
	return args.Error(0)
}

// MockCorrectionRepository mocks correction.Repository
type MockCorrectionRepository struct {
	mock.Mock
}

func (m *MockCorrectionRepository) Create(ctx context.Context, rec *correction.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockCorrectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*correction.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*correction.Record), args.Error(1)
}

func (m *MockCorrectionRepository) GetActiveByIssue(ctx context.Context, issueID uuid.UUID) (*correction.Record, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*correction.Record), args.Error(1)
}

func (m *MockCorrectionRepository) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]*correction.Record, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*correction.Record), args.Error(1)
}

func (m *MockCorrectionRepository) Supersede(ctx context.Context, issueID uuid.UUID) error {
	args := m.Called(ctx, issueID)
	return args.Error(0)
}

func (m *MockCorrectionRepository) SetApplied(ctx context.Context, id uuid.UUID, applied bool) error {
	args := m.Called(ctx, id, applied)
	return args.Error(0)
}

// MockLedgerService mocks LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Debit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, amount, requestID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerService) Credit(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, amount, requestID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerService) Refund(ctx context.Context, accountID uuid.UUID, amount int64, requestID, description string) (*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, amount, requestID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerService) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Transaction, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Transaction), args.Get(1).(int64), args.Error(2)
}

// MockInvoker mocks generation.Invoker
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Inpaint(ctx context.Context, req *generation.InpaintRequest) (*generation.InpaintResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.InpaintResponse), args.Error(1)
}

func (m *MockInvoker) GenerateCandidates(ctx context.Context, req *generation.CandidatesRequest) (*generation.CandidatesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.CandidatesResponse), args.Error(1)
}

// MockPageStore mocks PageStore
type MockPageStore struct {
	mock.Mock
}

func (m *MockPageStore) CurrentRef(ctx context.Context, documentID, pageID uuid.UUID) (string, error) {
	args := m.Called(ctx, documentID, pageID)
	return args.String(0), args.Error(1)
}

func (m *MockPageStore) SetCurrentRef(ctx context.Context, documentID, pageID uuid.UUID, ref string) error {
	args := m.Called(ctx, documentID, pageID, ref)
	return args.Error(0)
}

// MockCompositor mocks Compositor
type MockCompositor struct {
	mock.Mock
}

func (m *MockCompositor) Overlay(ctx context.Context, baseRef string, region shared.BBox, text string) (string, error) {
	args := m.Called(ctx, baseRef, region, text)
	return args.String(0), args.Error(1)
}

// MockPublisher mocks producers.MessagePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
