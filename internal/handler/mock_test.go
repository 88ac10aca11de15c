package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/handler"
	"github.com/pkordes/equipment-loans/internal/lifecycle"
	"github.com/pkordes/equipment-loans/internal/service"
)

// mockLoanServicer is a test double for handler.LoanServicer.
// Set only the method fields your test needs.
type mockLoanServicer struct {
	add             func(ctx context.Context, sess service.Session, in service.NewLoan) (service.LoanView, error)
	markReturned    func(ctx context.Context, sess service.Session, ids []int64) (service.BatchResult, error)
	markNotReturned func(ctx context.Context, sess service.Session, ids []int64) (service.BatchResult, error)
	editDueDate     func(ctx context.Context, sess service.Session, ids []int64, d time.Time) (service.BatchResult, error)
	editReturnDate  func(ctx context.Context, sess service.Session, ids []int64, d time.Time) (service.BatchResult, error)
	editBorrowDate  func(ctx context.Context, sess service.Session, ids []int64, d time.Time) (service.BatchResult, error)
	query           func(ctx context.Context, sess service.Session, q service.LoanQuery) ([]service.LoanView, error)
	commitOverdue   func(ctx context.Context, sess service.Session) (service.BatchResult, error)
	borrowers       func(ctx context.Context, sess service.Session) ([]string, error)
	equipment       func(ctx context.Context, sess service.Session) ([]string, error)
	ledgers         func(ctx context.Context) ([]string, error)
}

func (m *mockLoanServicer) Add(ctx context.Context, sess service.Session, in service.NewLoan) (service.LoanView, error) {
	return m.add(ctx, sess, in)
}
func (m *mockLoanServicer) MarkReturned(ctx context.Context, sess service.Session, ids []int64) (service.BatchResult, error) {
	return m.markReturned(ctx, sess, ids)
}
func (m *mockLoanServicer) MarkNotReturned(ctx context.Context, sess service.Session, ids []int64) (service.BatchResult, error) {
	return m.markNotReturned(ctx, sess, ids)
}
func (m *mockLoanServicer) EditDueDate(ctx context.Context, sess service.Session, ids []int64, d time.Time) (service.BatchResult, error) {
	return m.editDueDate(ctx, sess, ids, d)
}
func (m *mockLoanServicer) EditReturnDate(ctx context.Context, sess service.Session, ids []int64, d time.Time) (service.BatchResult, error) {
	return m.editReturnDate(ctx, sess, ids, d)
}
func (m *mockLoanServicer) EditBorrowDate(ctx context.Context, sess service.Session, ids []int64, d time.Time) (service.BatchResult, error) {
	return m.editBorrowDate(ctx, sess, ids, d)
}
func (m *mockLoanServicer) Query(ctx context.Context, sess service.Session, q service.LoanQuery) ([]service.LoanView, error) {
	return m.query(ctx, sess, q)
}
func (m *mockLoanServicer) CommitOverdue(ctx context.Context, sess service.Session) (service.BatchResult, error) {
	return m.commitOverdue(ctx, sess)
}
func (m *mockLoanServicer) Borrowers(ctx context.Context, sess service.Session) ([]string, error) {
	return m.borrowers(ctx, sess)
}
func (m *mockLoanServicer) Equipment(ctx context.Context, sess service.Session) ([]string, error) {
	return m.equipment(ctx, sess)
}
func (m *mockLoanServicer) Ledgers(ctx context.Context) ([]string, error) {
	return m.ledgers(ctx)
}

// mockReportServicer is a test double for handler.ReportServicer.
type mockReportServicer struct {
	distribution  func(ctx context.Context, sess service.Session) (domain.Distribution, error)
	trust         func(ctx context.Context, sess service.Session, email string) (domain.BorrowerStats, error)
	borrowerStats func(ctx context.Context, sess service.Session) ([]domain.BorrowerStats, error)
}

func (m *mockReportServicer) Distribution(ctx context.Context, sess service.Session) (domain.Distribution, error) {
	return m.distribution(ctx, sess)
}
func (m *mockReportServicer) Trust(ctx context.Context, sess service.Session, email string) (domain.BorrowerStats, error) {
	return m.trust(ctx, sess, email)
}
func (m *mockReportServicer) BorrowerStats(ctx context.Context, sess service.Session) ([]domain.BorrowerStats, error) {
	return m.borrowerStats(ctx, sess)
}

// compile-time checks: the mocks must satisfy the handler interfaces, and the
// real services must too.
var (
	_ handler.LoanServicer   = (*mockLoanServicer)(nil)
	_ handler.ReportServicer = (*mockReportServicer)(nil)
	_ handler.LoanServicer   = (*service.LoanService)(nil)
	_ handler.ReportServicer = (*service.ReportService)(nil)
)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into a chi router.
func newHTTPHandler(loans handler.LoanServicer, reports handler.ReportServicer) http.Handler {
	return handler.NewServer(loans, reports, nil).Routes()
}

var fixtureDay = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func viewFixture(id int64, state lifecycle.State, stored string) service.LoanView {
	return service.LoanView{
		Loan: domain.Loan{
			ID:            id,
			Ledger:        "workshop",
			BorrowedOn:    fixtureDay.AddDate(0, 0, -7),
			BorrowerEmail: "ana@example.com",
			EquipmentName: "Drill",
			DueOn:         fixtureDay.AddDate(0, 0, -3),
			Status:        stored,
			CreatedAt:     fixtureDay,
			UpdatedAt:     fixtureDay,
		},
		State:   state,
		Display: state.String(),
		Tag:     lifecycle.TagFor(state),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}
