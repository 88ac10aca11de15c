package domain

import (
	"time"

	"github.com/google/uuid"
)

// Borrower is an entry in a ledger's borrower registry.
// Identity within a ledger is the exact email string; no normalization is applied.
type Borrower struct {
	ID        uuid.UUID `json:"id"`
	Ledger    string    `json:"ledger"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
