// Package service contains the business logic of the loan tracker.
// Services validate inputs, run the lifecycle engine, and orchestrate repo
// calls. No SQL lives here; services depend on repo interfaces.
package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkordes/equipment-loans/internal/domain"
)

var ledgerPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Session identifies the ledger an operation runs against. It is passed
// explicitly into every service call instead of living in shared state.
type Session struct {
	Ledger string
}

// NewSession trims and validates a ledger name.
// Returns domain.ErrValidation for an empty or ill-formed name.
func NewSession(ledger string) (Session, error) {
	s := Session{Ledger: strings.TrimSpace(ledger)}
	if err := s.validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (s Session) validate() error {
	if s.Ledger == "" {
		return fmt.Errorf("%w: ledger is required", domain.ErrValidation)
	}
	if !ledgerPattern.MatchString(s.Ledger) {
		return fmt.Errorf("%w: ledger %q must be 1-64 characters of letters, digits, '.', '_' or '-'", domain.ErrValidation, s.Ledger)
	}
	return nil
}
