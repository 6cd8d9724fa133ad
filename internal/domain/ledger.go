package domain

import "time"

// TransactionType enumerates ledger entry categories.
type TransactionType string

const (
	TransactionGeneration TransactionType = "generation"
	TransactionPurchase   TransactionType = "purchase"
	TransactionGrant      TransactionType = "grant"
)

// CreditTransaction is one append-only ledger entry. Credits is signed:
// negative for spend, positive for purchases and grants. JobID is set only on
// generation debits and is unique per job.
type CreditTransaction struct {
	ID          string
	UserID      string
	JobID       *string
	Type        TransactionType
	Credits     int
	Description string
	CreatedAt   time.Time
}
