package lifecycle

import (
	"time"

	"github.com/pkordes/equipment-loans/internal/domain"
)

// Derive returns the state to display for a stored state at date today.
//
// Returned states are final and come back unchanged. For a loan that is
// still out, any stored overdue count is discarded and recomputed from dueOn,
// so a due date moved past today turns Overdue back into Active.
// today == dueOn is not overdue.
func Derive(stored State, dueOn, today time.Time) State {
	if stored.Returned() {
		return stored
	}
	if n := domain.DaysBetween(dueOn, today); n > 0 {
		return Overdue(n)
	}
	return Active()
}

// MarkReturned applies the user's "returned" action on returnedOn.
// The overdue count at that moment becomes the recorded lateness.
// Marking an already-returned loan is a no-op and reports changed == false.
func MarkReturned(stored State, dueOn, returnedOn time.Time) (next State, changed bool) {
	if stored.Returned() {
		return stored, false
	}
	current := Derive(stored, dueOn, returnedOn)
	if current.Kind == KindOverdue {
		return ReturnedLate(current.Days), true
	}
	return ReturnedOnTime(), true
}

// MarkNotReturned reverts any state to Active and drops recorded lateness.
// Overdue is not recomputed here; the next Derive does that.
func MarkNotReturned(State) State {
	return Active()
}

// EditDueDate returns the state after the due date changes to newDue.
// A returned loan keeps its recorded lateness.
func EditDueDate(stored State, newDue, today time.Time) State {
	if stored.Returned() {
		return stored
	}
	return Derive(Active(), newDue, today)
}

// EditReturnDate backfills a return on returnedOn, overriding any lateness
// recorded before. This is the only transition allowed to rewrite history.
// The result is always a returned state.
func EditReturnDate(dueOn, returnedOn time.Time) State {
	if n := domain.DaysBetween(dueOn, returnedOn); n > 0 {
		return ReturnedLate(n)
	}
	return ReturnedOnTime()
}
