package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pagemend/pagemend/internal/domain/ledger"
	"github.com/pagemend/pagemend/internal/platform/persistence"
)

const ledgerColumns = "id, account_id, request_id, kind, amount, balance_before, balance_after, description, correlation_id, created_at"

// LedgerRepository implements the ledger.Repository interface for PostgreSQL.
// The credit_transactions table is append-only; there is no update or delete.
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a transaction to the log. The unique index on
// (account_id, request_id, kind) rejects duplicates from concurrent writers
// that slipped past the in-transaction replay check.
func (r *LedgerRepository) Create(ctx context.Context, txn *ledger.Transaction) error {
	query := `
		INSERT INTO credit_transactions (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.RequestID,
		string(txn.Kind),
		txn.Amount,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.Description,
		txn.CorrelationID,
		txn.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ledger.ErrDuplicateRequest{RequestID: txn.RequestID, Kind: txn.Kind}
		}
		r.logger.Error("Failed to append ledger transaction",
			"request_id", txn.RequestID,
			"kind", string(txn.Kind),
			"error", err)
		return fmt.Errorf("failed to append ledger transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM credit_transactions
		WHERE id = $1
	`

	txn, err := r.scanOne(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get ledger transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger transaction: %w", err)
	}

	return txn, nil
}

// GetByRequestID looks up a committed transaction by its idempotency
// coordinates. Returns nil, nil when no entry exists, enabling idempotent
// replay at the service layer.
func (r *LedgerRepository) GetByRequestID(ctx context.Context, accountID uuid.UUID, requestID string, kind ledger.Kind) (*ledger.Transaction, error) {
	if requestID == "" {
		return nil, ledger.ErrEmptyRequestID
	}

	query := `
		SELECT ` + ledgerColumns + `
		FROM credit_transactions
		WHERE account_id = $1 AND request_id = $2 AND kind = $3
	`

	txn, err := r.scanOne(r.querier.QueryRow(ctx, query, accountID, requestID, string(kind)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get ledger transaction by request id",
			"request_id", requestID,
			"kind", string(kind),
			"error", err)
		return nil, fmt.Errorf("failed to get ledger transaction by request id: %w", err)
	}

	return txn, nil
}

// GetByAccountID retrieves paginated transactions for an account,
// newest first.
func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Transaction, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM credit_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger transactions", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger transactions: %w", err)
	}
	defer rows.Close()

	var txns []*ledger.Transaction
	for rows.Next() {
		txn, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger transactions: %w", err)
	}

	return txns, nil
}

// CountByAccountID counts the transactions of an account
func (r *LedgerRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM credit_transactions WHERE account_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count ledger transactions", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count ledger transactions: %w", err)
	}

	return count, nil
}

func (r *LedgerRepository) scanOne(row pgx.Row) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	var kind string
	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.RequestID,
		&kind,
		&txn.Amount,
		&txn.BalanceBefore,
		&txn.BalanceAfter,
		&txn.Description,
		&txn.CorrelationID,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	txn.Kind = ledger.Kind(kind)
	return &txn, nil
}
