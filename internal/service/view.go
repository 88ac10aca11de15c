package service

import (
	"slices"
	"sync"

	"github.com/pkordes/equipment-loans/internal/domain"
)

// View is the in-memory render of stored loans, per ledger.
//
// It only ever holds values the store returned: rows are put after a write
// succeeds, an unfiltered query replaces the ledger's rows and a filtered
// query merges its rows in. It is never read back as the source of truth;
// re-querying the store rebuilds it.
type View struct {
	mu      sync.Mutex
	ledgers map[string]map[int64]domain.Loan
}

// NewView returns an empty view.
func NewView() *View {
	return &View{ledgers: make(map[string]map[int64]domain.Loan)}
}

// Replace discards the ledger's rows and renders loans instead.
func (v *View) Replace(ledger string, loans []domain.Loan) {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := make(map[int64]domain.Loan, len(loans))
	for _, l := range loans {
		rows[l.ID] = l
	}
	v.ledgers[ledger] = rows
}

// Merge overwrites the ledger's rows for the given loans and keeps the rest.
func (v *View) Merge(ledger string, loans []domain.Loan) {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows, ok := v.ledgers[ledger]
	if !ok {
		rows = make(map[int64]domain.Loan, len(loans))
		v.ledgers[ledger] = rows
	}
	for _, l := range loans {
		rows[l.ID] = l
	}
}

// Put inserts or overwrites a single row with a freshly persisted loan.
func (v *View) Put(loan domain.Loan) {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows, ok := v.ledgers[loan.Ledger]
	if !ok {
		rows = make(map[int64]domain.Loan)
		v.ledgers[loan.Ledger] = rows
	}
	rows[loan.ID] = loan
}

// Rows returns a copy of the ledger's rows in insertion (id) order.
func (v *View) Rows(ledger string) []domain.Loan {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := v.ledgers[ledger]
	out := make([]domain.Loan, 0, len(rows))
	for _, l := range rows {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b domain.Loan) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}
