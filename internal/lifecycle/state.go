// Package lifecycle computes and transitions the status of a loan.
// Everything here is pure: callers pass the dates in, including "today",
// and persist whatever comes back.
package lifecycle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkordes/equipment-loans/internal/domain"
)

// Kind discriminates the four loan states.
type Kind int

const (
	KindActive Kind = iota
	KindOverdue
	KindReturnedOnTime
	KindReturnedLate
)

// Stored status strings. These must stay byte-for-byte stable: existing
// ledgers and the aggregation buckets match on them.
const (
	notReturnedText  = "Not Returned"
	returnedText     = "Returned"
	overduePrefix    = "+"
	returnedLatePref = "Returned +"
)

// State is a loan's lifecycle state. Days is only meaningful for
// KindOverdue and KindReturnedLate.
type State struct {
	Kind Kind
	Days int
}

// Active is a loan that has not been returned and is not past due.
func Active() State { return State{Kind: KindActive} }

// Overdue is a loan that has not been returned, n days past due.
func Overdue(n int) State { return State{Kind: KindOverdue, Days: n} }

// ReturnedOnTime is a loan returned on or before its due date.
func ReturnedOnTime() State { return State{Kind: KindReturnedOnTime} }

// ReturnedLate is a loan returned n days after its due date.
func ReturnedLate(n int) State { return State{Kind: KindReturnedLate, Days: n} }

// Returned reports whether the loan has been handed back.
func (s State) Returned() bool {
	return s.Kind == KindReturnedOnTime || s.Kind == KindReturnedLate
}

// String serializes s into its stored form.
func (s State) String() string {
	switch s.Kind {
	case KindOverdue:
		return overduePrefix + strconv.Itoa(s.Days)
	case KindReturnedOnTime:
		return returnedText
	case KindReturnedLate:
		return returnedLatePref + strconv.Itoa(s.Days)
	default:
		return notReturnedText
	}
}

// Parse converts a stored status string back into a State.
// Only the four serialized shapes are accepted; anything else, including
// surrounding whitespace, returns domain.ErrMalformedStatus.
func Parse(s string) (State, error) {
	switch {
	case s == notReturnedText:
		return Active(), nil
	case s == returnedText:
		return ReturnedOnTime(), nil
	case strings.HasPrefix(s, returnedLatePref):
		n, ok := parseDays(s[len(returnedLatePref):])
		if !ok {
			break
		}
		return ReturnedLate(n), nil
	case strings.HasPrefix(s, overduePrefix):
		n, ok := parseDays(s[len(overduePrefix):])
		if !ok {
			break
		}
		return Overdue(n), nil
	}
	return State{}, fmt.Errorf("%w: %q", domain.ErrMalformedStatus, s)
}

// parseDays accepts a non-empty run of ASCII digits without leading zeros,
// so only the canonical rendering of n parses.
// strconv.Atoi alone would also accept a sign.
func parseDays(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
