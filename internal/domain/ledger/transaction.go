package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrEmptyRequestID   = errors.New("request id cannot be empty")
	ErrBalanceMismatch  = errors.New("balance_after does not equal balance_before plus signed amount")
	ErrNegativeBalance  = errors.New("transaction would leave a negative balance")
	ErrInvalidTxnAmount = errors.New("transaction amount must be positive")
)

// Kind defines the closed set of ledger operations
type Kind string

const (
	KindTopup  Kind = "topup"
	KindDeduct Kind = "deduct"
	KindRefund Kind = "refund"
)

// Valid reports whether k is one of the known transaction kinds
func (k Kind) Valid() bool {
	switch k {
	case KindTopup, KindDeduct, KindRefund:
		return true
	}
	return false
}

// Sign returns +1 for balance-increasing kinds and -1 for deductions
func (k Kind) Sign() int64 {
	if k == KindDeduct {
		return -1
	}
	return 1
}

// Transaction is one immutable entry in the append-only credit log.
// Applied in commit order, the transactions of an account reconstruct
// its current balance exactly.
type Transaction struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	RequestID     string    `json:"request_id"` // Caller-supplied, unique per logical operation
	Kind          Kind      `json:"kind"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Description   string    `json:"description,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTransaction builds a transaction record and enforces its invariants.
func NewTransaction(accountID uuid.UUID, requestID string, kind Kind, amount, balanceBefore int64, description string) (*Transaction, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if requestID == "" {
		return nil, ErrEmptyRequestID
	}
	if amount <= 0 {
		return nil, ErrInvalidTxnAmount
	}

	balanceAfter := balanceBefore + kind.Sign()*amount
	if balanceAfter < 0 {
		return nil, ErrNegativeBalance
	}

	return &Transaction{
		ID:            uuid.New(),
		AccountID:     accountID,
		RequestID:     requestID,
		Kind:          kind,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Description:   description,
		CreatedAt:     time.Now(),
	}, nil
}

// Signed returns the amount with the sign implied by the kind
func (t *Transaction) Signed() int64 {
	return t.Kind.Sign() * t.Amount
}
