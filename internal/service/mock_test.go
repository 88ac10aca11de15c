package service_test

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/repo"
)

// mockLoanRepo is a hand-written test double for repo.LoanRepo.
// Each method is a function field; set only the ones your test needs.
type mockLoanRepo struct {
	create       func(ctx context.Context, loan domain.Loan) (domain.Loan, error)
	getByID      func(ctx context.Context, ledger string, id int64) (domain.Loan, error)
	list         func(ctx context.Context, ledger string) ([]domain.Loan, error)
	listByField  func(ctx context.Context, ledger string, field domain.LoanField, value any) ([]domain.Loan, error)
	updateFields func(ctx context.Context, ledger string, id int64, fields map[domain.LoanField]any) (domain.Loan, error)
	ledgers      func(ctx context.Context) ([]string, error)
}

func (m *mockLoanRepo) Create(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	return m.create(ctx, loan)
}
func (m *mockLoanRepo) GetByID(ctx context.Context, ledger string, id int64) (domain.Loan, error) {
	return m.getByID(ctx, ledger, id)
}
func (m *mockLoanRepo) List(ctx context.Context, ledger string) ([]domain.Loan, error) {
	return m.list(ctx, ledger)
}
func (m *mockLoanRepo) ListByField(ctx context.Context, ledger string, field domain.LoanField, value any) ([]domain.Loan, error) {
	return m.listByField(ctx, ledger, field, value)
}
func (m *mockLoanRepo) UpdateFields(ctx context.Context, ledger string, id int64, fields map[domain.LoanField]any) (domain.Loan, error) {
	return m.updateFields(ctx, ledger, id, fields)
}
func (m *mockLoanRepo) Ledgers(ctx context.Context) ([]string, error) {
	return m.ledgers(ctx)
}

// mockBorrowerRepo is a hand-written test double for repo.BorrowerRepo.
type mockBorrowerRepo struct {
	upsert func(ctx context.Context, ledger, email string) (domain.Borrower, error)
	list   func(ctx context.Context, ledger string) ([]domain.Borrower, error)
}

func (m *mockBorrowerRepo) Upsert(ctx context.Context, ledger, email string) (domain.Borrower, error) {
	return m.upsert(ctx, ledger, email)
}
func (m *mockBorrowerRepo) List(ctx context.Context, ledger string) ([]domain.Borrower, error) {
	return m.list(ctx, ledger)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.LoanRepo     = (*mockLoanRepo)(nil)
	_ repo.BorrowerRepo = (*mockBorrowerRepo)(nil)
)

// ---- in-memory store -------------------------------------------------------

// memStore backs both mocks with maps so scenario tests can chain actions.
// Tests override single function fields on the returned mocks to inject errors.
type memStore struct {
	nextID    int64
	loans     map[int64]domain.Loan
	borrowers map[string][]string
	writes    int
}

func newMemStore() *memStore {
	return &memStore{loans: map[int64]domain.Loan{}, borrowers: map[string][]string{}}
}

// seed stores a loan directly and returns its id.
func (m *memStore) seed(l domain.Loan) int64 {
	m.nextID++
	l.ID = m.nextID
	if l.Ledger == "" {
		l.Ledger = testLedger
	}
	m.loans[l.ID] = l
	return l.ID
}

func (m *memStore) ordered(ledger string, keep func(domain.Loan) bool) []domain.Loan {
	out := []domain.Loan{}
	for _, l := range m.loans {
		if l.Ledger == ledger && keep(l) {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b domain.Loan) int { return int(a.ID - b.ID) })
	return out
}

func (m *memStore) repos() (*mockLoanRepo, *mockBorrowerRepo) {
	loans := &mockLoanRepo{
		create: func(_ context.Context, l domain.Loan) (domain.Loan, error) {
			m.writes++
			id := m.seed(l)
			return m.loans[id], nil
		},
		getByID: func(_ context.Context, ledger string, id int64) (domain.Loan, error) {
			l, ok := m.loans[id]
			if !ok || l.Ledger != ledger {
				return domain.Loan{}, fmt.Errorf("repo.LoanRepo.GetByID: %w", domain.ErrNotFound)
			}
			return l, nil
		},
		list: func(_ context.Context, ledger string) ([]domain.Loan, error) {
			return m.ordered(ledger, func(domain.Loan) bool { return true }), nil
		},
		listByField: func(_ context.Context, ledger string, field domain.LoanField, value any) ([]domain.Loan, error) {
			return m.ordered(ledger, func(l domain.Loan) bool {
				switch field {
				case domain.FieldBorrowerEmail:
					return l.BorrowerEmail == value
				case domain.FieldEquipmentName:
					return l.EquipmentName == value
				}
				return false
			}), nil
		},
		updateFields: func(_ context.Context, ledger string, id int64, fields map[domain.LoanField]any) (domain.Loan, error) {
			l, ok := m.loans[id]
			if !ok || l.Ledger != ledger {
				return domain.Loan{}, fmt.Errorf("repo.LoanRepo.UpdateFields: %w", domain.ErrNotFound)
			}
			for f, v := range fields {
				switch f {
				case domain.FieldStatus:
					l.Status = v.(string)
				case domain.FieldDueOn:
					l.DueOn = v.(time.Time)
				case domain.FieldBorrowedOn:
					l.BorrowedOn = v.(time.Time)
				}
			}
			m.writes++
			m.loans[id] = l
			return l, nil
		},
		ledgers: func(context.Context) ([]string, error) {
			seen := map[string]bool{}
			for _, l := range m.loans {
				seen[l.Ledger] = true
			}
			for ledger := range m.borrowers {
				seen[ledger] = true
			}
			out := []string{}
			for ledger := range seen {
				out = append(out, ledger)
			}
			slices.Sort(out)
			return out, nil
		},
	}
	borrowers := &mockBorrowerRepo{
		upsert: func(_ context.Context, ledger, email string) (domain.Borrower, error) {
			if !slices.Contains(m.borrowers[ledger], email) {
				m.borrowers[ledger] = append(m.borrowers[ledger], email)
			}
			return domain.Borrower{ID: uuid.New(), Ledger: ledger, Email: email}, nil
		},
		list: func(_ context.Context, ledger string) ([]domain.Borrower, error) {
			out := []domain.Borrower{}
			for _, e := range m.borrowers[ledger] {
				out = append(out, domain.Borrower{Ledger: ledger, Email: e})
			}
			return out, nil
		},
	}
	return loans, borrowers
}
