package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/report"
)

func loan(id int64, email, status string) domain.Loan {
	return domain.Loan{ID: id, BorrowerEmail: email, EquipmentName: "Multimeter", Status: status}
}

// ---- TrustIndex ------------------------------------------------------------

func TestTrustIndex_OneOfThree(t *testing.T) {
	loans := []domain.Loan{
		loan(1, "ana@example.com", "Returned"),
		loan(2, "ana@example.com", "Returned +2"),
		loan(3, "ana@example.com", "+1"),
		loan(4, "bo@example.com", "Returned"),
	}

	got := report.Borrower(loans, "ana@example.com").TrustIndex

	assert.InDelta(t, 33.333, got, 0.01)
}

func TestTrustIndex_NoLoansIsZero(t *testing.T) {
	assert.Zero(t, report.Borrower(nil, "ghost@example.com").TrustIndex)
	assert.Zero(t, report.Borrower([]domain.Loan{loan(1, "bo@example.com", "Returned")}, "ghost@example.com").TrustIndex)
}

func TestTrustIndex_ExcludesMalformed(t *testing.T) {
	loans := []domain.Loan{
		loan(1, "ana@example.com", "Returned"),
		loan(2, "ana@example.com", "returned"),
	}

	assert.InDelta(t, 100.0, report.Borrower(loans, "ana@example.com").TrustIndex, 0.0001)
}

func TestBorrowers_KeepsOrder(t *testing.T) {
	loans := []domain.Loan{
		loan(1, "ana@example.com", "Returned"),
		loan(2, "bo@example.com", "Not Returned"),
	}

	got := report.Borrowers(loans, []string{"bo@example.com", "ana@example.com"})

	require.Len(t, got, 2)
	assert.Equal(t, "bo@example.com", got[0].Email)
	assert.Equal(t, 1, got[0].TotalLoans)
	assert.Zero(t, got[0].TrustIndex)
	assert.Equal(t, 1, got[1].ReturnedOnTime)
	assert.InDelta(t, 100.0, got[1].TrustIndex, 0.0001)
}

// ---- Distribute ------------------------------------------------------------

func TestDistribute_Buckets(t *testing.T) {
	loans := []domain.Loan{
		loan(1, "a", "Not Returned"),
		loan(2, "a", "Not Returned"),
		loan(3, "a", "Returned"),
		loan(4, "a", "Returned +4"),
		loan(5, "a", "Returned +0"),
		loan(6, "a", "+12"),
		loan(7, "a", "Lost"),
	}

	got := report.Distribute(loans)

	assert.Equal(t, domain.Distribution{
		Pending:        2,
		ReturnedOnTime: 1,
		ReturnedLate:   2,
		CurrentlyLate:  1,
		Malformed:      1,
	}, got)
	assert.Equal(t, 6, got.Total())
}

func TestDistribute_Empty(t *testing.T) {
	assert.Equal(t, domain.Distribution{}, report.Distribute(nil))
}

// ---- SortByDate ------------------------------------------------------------

func TestSortByDate_StableAscendingAndDescending(t *testing.T) {
	d := func(s string) time.Time {
		v, err := time.Parse(domain.DateLayout, s)
		require.NoError(t, err)
		return v
	}
	loans := []domain.Loan{
		{ID: 1, DueOn: d("2025-03-10")},
		{ID: 2, DueOn: d("2025-01-05")},
		{ID: 3, DueOn: d("2025-03-10")},
		{ID: 4, DueOn: d("2024-12-31")},
	}

	asc := report.SortByDate(loans, domain.SortOrder{Column: domain.FieldDueOn})
	desc := report.SortByDate(loans, domain.SortOrder{Column: domain.FieldDueOn, Descending: true})

	assert.Equal(t, []int64{4, 2, 1, 3}, ids(asc))
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(desc))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(loans), "input must not be reordered")
}

func TestSortByDate_InactiveKeepsInsertionOrder(t *testing.T) {
	loans := []domain.Loan{{ID: 3}, {ID: 1}, {ID: 2}}

	got := report.SortByDate(loans, domain.SortOrder{})

	assert.Equal(t, []int64{3, 1, 2}, ids(got))
}

func ids(loans []domain.Loan) []int64 {
	out := make([]int64, len(loans))
	for i, l := range loans {
		out[i] = l.ID
	}
	return out
}
