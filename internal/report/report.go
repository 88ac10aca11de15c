// Package report computes read-side statistics over stored loans.
//
// Buckets are chosen by the stored status string, not by re-deriving from
// dates: a loan whose stored status still says "Not Returned" counts as
// pending even if it is past due today. Records whose status does not parse
// are excluded and counted separately.
package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/lifecycle"
)

const (
	statusPending        = "Not Returned"
	statusReturnedOnTime = "Returned"
	prefixReturnedLate   = "Returned +"
	prefixCurrentlyLate  = "+"
)

// wellFormed reports whether the stored status parses.
func wellFormed(l domain.Loan) bool {
	_, err := lifecycle.Parse(l.Status)
	return err == nil
}

// Distribute counts loans into the four status buckets.
func Distribute(loans []domain.Loan) domain.Distribution {
	var d domain.Distribution
	for _, l := range loans {
		if !wellFormed(l) {
			d.Malformed++
			continue
		}
		switch {
		case l.Status == statusPending:
			d.Pending++
		case l.Status == statusReturnedOnTime:
			d.ReturnedOnTime++
		case strings.HasPrefix(l.Status, prefixReturnedLate):
			d.ReturnedLate++
		case strings.HasPrefix(l.Status, prefixCurrentlyLate):
			d.CurrentlyLate++
		}
	}
	return d
}

// Borrower computes the statistics for one borrower email. The trust index
// is the percentage of loans returned on time, where only the exact stored
// status "Returned" counts as on time. A borrower with no (well-formed) loans
// has a trust index of 0.
func Borrower(loans []domain.Loan, email string) domain.BorrowerStats {
	st := domain.BorrowerStats{Email: email}
	for _, l := range loans {
		if l.BorrowerEmail != email || !wellFormed(l) {
			continue
		}
		st.TotalLoans++
		if l.Status == statusReturnedOnTime {
			st.ReturnedOnTime++
		}
	}
	if st.TotalLoans > 0 {
		st.TrustIndex = float64(st.ReturnedOnTime) / float64(st.TotalLoans) * 100
	}
	return st
}

// Borrowers computes statistics for each email, in the order given.
func Borrowers(loans []domain.Loan, emails []string) []domain.BorrowerStats {
	out := make([]domain.BorrowerStats, 0, len(emails))
	for _, e := range emails {
		out = append(out, Borrower(loans, e))
	}
	return out
}

// SortByDate returns a copy of loans stably ordered by a date column.
// Keys compare as "YYYY-MM-DD" strings. Ties keep their incoming order and
// no field of any loan is modified. An inactive order returns an unchanged copy.
func SortByDate(loans []domain.Loan, order domain.SortOrder) []domain.Loan {
	out := slices.Clone(loans)
	if !order.Active() {
		return out
	}
	key := func(l domain.Loan) string {
		if order.Column == domain.FieldBorrowedOn {
			return domain.FormatDate(l.BorrowedOn)
		}
		return domain.FormatDate(l.DueOn)
	}
	slices.SortStableFunc(out, func(a, b domain.Loan) int {
		c := cmp.Compare(key(a), key(b))
		if order.Descending {
			return -c
		}
		return c
	})
	return out
}
