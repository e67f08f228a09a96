package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages the append-only transaction log. Entries are never
// updated or deleted once committed.
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByRequestID looks up a previously committed transaction by its
	// idempotency coordinates. Returns nil, nil when no entry exists.
	GetByRequestID(ctx context.Context, accountID uuid.UUID, requestID string, kind Kind) (*Transaction, error)

	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing ledger transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "ledger transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateRequest indicates the (account, request_id, kind) uniqueness
// constraint was violated by a concurrent writer
type ErrDuplicateRequest struct {
	RequestID string
	Kind      Kind
}

func (e ErrDuplicateRequest) Error() string {
	return "duplicate ledger request: " + e.RequestID + " (" + string(e.Kind) + ")"
}
