package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/service"
)

func newReportService(m *memStore) (*service.ReportService, *mockLoanRepo) {
	loans, borrowers := m.repos()
	return service.NewReportService(loans, borrowers), loans
}

func TestReportService_Trust(t *testing.T) {
	m := newMemStore()
	svc, _ := newReportService(m)
	m.seed(loanDue("ana@example.com", "Drill", today, "Returned"))
	m.seed(loanDue("ana@example.com", "Saw", today, "Returned +2"))
	m.seed(loanDue("ana@example.com", "Ladder", today, "+1"))
	m.seed(loanDue("bo@example.com", "Ladder", today, "Returned"))

	got, err := svc.Trust(context.Background(), sess, "ana@example.com")

	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalLoans)
	assert.Equal(t, 1, got.ReturnedOnTime)
	assert.InDelta(t, 33.3, got.TrustIndex, 0.05)
}

func TestReportService_Trust_UnknownBorrower(t *testing.T) {
	svc, _ := newReportService(newMemStore())

	got, err := svc.Trust(context.Background(), sess, "nobody@example.com")

	require.NoError(t, err)
	assert.Zero(t, got.TotalLoans)
	assert.Zero(t, got.TrustIndex)
}

func TestReportService_Trust_RequiresEmail(t *testing.T) {
	svc, _ := newReportService(newMemStore())

	_, err := svc.Trust(context.Background(), sess, " ")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReportService_Distribution(t *testing.T) {
	m := newMemStore()
	svc, _ := newReportService(m)
	// stored status is authoritative: this one is past due but still pending
	m.seed(loanDue("ana@example.com", "Drill", daysFromToday(-4), "Not Returned"))
	m.seed(loanDue("ana@example.com", "Saw", today, "Returned"))
	m.seed(loanDue("bo@example.com", "Saw", today, "Returned +3"))
	m.seed(loanDue("bo@example.com", "Vice", today, "+2"))
	m.seed(loanDue("cy@example.com", "Vice", today, "+2"))
	m.seed(loanDue("cy@example.com", "Vice", today, "broken"))

	got, err := svc.Distribution(context.Background(), sess)

	require.NoError(t, err)
	assert.Equal(t, domain.Distribution{Pending: 1, ReturnedOnTime: 1, ReturnedLate: 1, CurrentlyLate: 2, Malformed: 1}, got)
	assert.Equal(t, 5, got.Total())
}

func TestReportService_BorrowerStats(t *testing.T) {
	m := newMemStore()
	svc, _ := newReportService(m)
	m.borrowers[testLedger] = []string{"zed@example.com"}
	m.seed(loanDue("ana@example.com", "Drill", today, "Returned"))
	m.seed(loanDue("ana@example.com", "Saw", today, "Not Returned"))

	got, err := svc.BorrowerStats(context.Background(), sess)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.BorrowerStats{Email: "ana@example.com", TotalLoans: 2, ReturnedOnTime: 1, TrustIndex: 50}, got[0])
	assert.Equal(t, domain.BorrowerStats{Email: "zed@example.com"}, got[1])
}

func TestReportService_StoreError(t *testing.T) {
	m := newMemStore()
	svc, loans := newReportService(m)
	loans.list = func(context.Context, string) ([]domain.Loan, error) {
		return nil, fmt.Errorf("repo.LoanRepo.List: %w", domain.ErrStoreUnavailable)
	}

	_, err := svc.Distribution(context.Background(), sess)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
