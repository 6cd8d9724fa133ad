package domain

import "time"

// User represents an account within the platform. Credits are only ever
// mutated through the ledger; the column is a denormalized counter kept in
// step with the transaction log inside the same database transaction.
type User struct {
	ID        string
	Email     string
	Name      string
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanAfford reports whether the balance covers a spend of n credits.
func (u User) CanAfford(n int) bool {
	return u.Credits >= n
}
