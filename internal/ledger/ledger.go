// Package ledger owns the per-user credit balance and its append-only
// transaction log. Every balance mutation goes through this package; the
// users.credits column is a denormalized counter updated in the same
// statement batch as the ledger append.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

type Ledger struct {
	db infra.SQLExecutor
}

func New(db infra.SQLExecutor) *Ledger {
	return &Ledger{db: db}
}

// WithExecutor returns a Ledger bound to another executor, typically a
// transaction, so a debit can land atomically with a job's terminal update.
func (l *Ledger) WithExecutor(db infra.SQLExecutor) *Ledger {
	return &Ledger{db: db}
}

// Balance returns the current credit balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	var credits int
	err := l.db.QueryRow(ctx, sqlinline.QSelectUserCredits, userID).Scan(&credits)
	if err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return credits, nil
}

// HasAtLeast reports whether the balance covers n, returning the balance for
// error reporting.
func (l *Ledger) HasAtLeast(ctx context.Context, userID string, n int) (bool, int, error) {
	credits, err := l.Balance(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return credits >= n, credits, nil
}

// DebitAndRecord decrements the balance by n and appends a generation entry
// with delta -n, guarded so the balance never goes negative. The caller is
// expected to run this inside the same transaction as the job's completed
// transition.
func (l *Ledger) DebitAndRecord(ctx context.Context, userID string, n int, jobID, description string) error {
	var remaining int
	err := l.db.QueryRow(ctx, sqlinline.QDebitCredits, userID, n).Scan(&remaining)
	if err != nil {
		if infra.IsNoRows(err) {
			// Guard failed: the balance raced below n (or the account vanished).
			available, balErr := l.Balance(ctx, userID)
			if balErr != nil {
				return balErr
			}
			return &domain.InsufficientCreditsError{Required: n, Available: available}
		}
		return fmt.Errorf("debit credits: %w", err)
	}
	_, err = l.db.Exec(ctx, sqlinline.QInsertTransaction,
		uuid.NewString(), userID, jobID, string(domain.TransactionGeneration), -n, description)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

// Credit appends a positive entry for a purchase or operator grant.
func (l *Ledger) Credit(ctx context.Context, userID string, n int, typ domain.TransactionType, description string) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidInput)
	}
	var balance int
	err := l.db.QueryRow(ctx, sqlinline.QCreditAdd, userID, n).Scan(&balance)
	if err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("credit balance: %w", err)
	}
	_, err = l.db.Exec(ctx, sqlinline.QInsertTransaction,
		uuid.NewString(), userID, nil, string(typ), n, description)
	if err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}
	return balance, nil
}

// History lists the most recent ledger entries for a user.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]domain.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx, sqlinline.QListTransactions, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var out []domain.CreditTransaction
	for rows.Next() {
		var t domain.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.JobID, &t.Type, &t.Credits, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
