package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/lifecycle"
	"github.com/pkordes/equipment-loans/internal/repo"
	"github.com/pkordes/equipment-loans/internal/report"
)

// LoanView is one loan as the presentation should render it: the stored
// record plus the state derived for today.
//
// Display is the status string to show. For a loan still out it carries the
// lazily computed overdue count, which is not persisted unless committed.
// Malformed loans keep their raw stored string and the default tag.
type LoanView struct {
	domain.Loan
	State     lifecycle.State
	Display   string
	Tag       lifecycle.Tag
	Malformed bool
}

// Stale reports whether the displayed status differs from the stored one.
func (v LoanView) Stale() bool {
	return !v.Malformed && v.Display != v.Status
}

// BatchFailure records why one id in a batch was not written.
type BatchFailure struct {
	ID  int64
	Err error
}

// BatchResult is the outcome of a multi-record action.
//
// Updated holds the records written, Unchanged the ids where the action was a
// no-op (e.g. marking an already returned loan), Skipped the ids that do not
// exist in the ledger, and Failed the ids whose write was refused.
type BatchResult struct {
	Updated   []LoanView
	Unchanged []int64
	Skipped   []int64
	Failed    []BatchFailure
}

func newBatchResult() BatchResult {
	return BatchResult{
		Updated:   []LoanView{},
		Unchanged: []int64{},
		Skipped:   []int64{},
		Failed:    []BatchFailure{},
	}
}

// SkippedCount is the number of ids skipped because they do not exist.
func (r BatchResult) SkippedCount() int {
	return len(r.Skipped)
}

// NewLoan is the input of LoanService.Add.
type NewLoan struct {
	BorrowerEmail string
	EquipmentName string
	DueOn         time.Time
}

// LoanQuery selects and orders the loans returned by LoanService.Query.
// Commit persists the derived overdue status of every stale record returned.
type LoanQuery struct {
	Filter domain.LoanFilter
	Sort   domain.SortOrder
	Commit bool
}

// LoanService applies user actions to loans: it runs the lifecycle engine,
// performs one store write per affected record and then refreshes the view.
type LoanService struct {
	loans     repo.LoanRepo
	borrowers repo.BorrowerRepo
	view      *View
	log       *slog.Logger
	now       func() time.Time
}

// NewLoanService constructs a LoanService. A nil view gets a fresh one, a nil
// logger falls back to slog.Default() and a nil clock to time.Now.
func NewLoanService(loans repo.LoanRepo, borrowers repo.BorrowerRepo, view *View, log *slog.Logger, now func() time.Time) *LoanService {
	if view == nil {
		view = NewView()
	}
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &LoanService{loans: loans, borrowers: borrowers, view: view, log: log, now: now}
}

func (s *LoanService) today() time.Time {
	return domain.DateOf(s.now())
}

// Add validates and persists a new loan borrowed today in the Active state.
// The borrower email is upserted into the ledger's registry once the loan is stored.
// Returns domain.ErrValidation before any write if input is incomplete.
func (s *LoanService) Add(ctx context.Context, sess Session, in NewLoan) (LoanView, error) {
	if err := sess.validate(); err != nil {
		return LoanView{}, err
	}
	in.BorrowerEmail = strings.TrimSpace(in.BorrowerEmail)
	in.EquipmentName = strings.TrimSpace(in.EquipmentName)
	if err := validateNewLoan(in); err != nil {
		return LoanView{}, err
	}

	today := s.today()
	created, err := s.loans.Create(ctx, domain.Loan{
		Ledger:        sess.Ledger,
		BorrowedOn:    today,
		BorrowerEmail: in.BorrowerEmail,
		EquipmentName: in.EquipmentName,
		DueOn:         domain.DateOf(in.DueOn),
		Status:        lifecycle.Active().String(),
	})
	if err != nil {
		return LoanView{}, fmt.Errorf("service.LoanService.Add: %w", err)
	}
	s.view.Put(created)

	if _, err := s.borrowers.Upsert(ctx, sess.Ledger, in.BorrowerEmail); err != nil {
		return LoanView{}, fmt.Errorf("service.LoanService.Add: %w", err)
	}
	return s.present(created, today), nil
}

// validateNewLoan enforces the required fields of a new loan.
// Due dates in the past are allowed and yield an immediately overdue loan.
func validateNewLoan(in NewLoan) error {
	switch {
	case in.BorrowerEmail == "":
		return fmt.Errorf("%w: borrower_email is required", domain.ErrValidation)
	case in.EquipmentName == "":
		return fmt.Errorf("%w: equipment_name is required", domain.ErrValidation)
	case in.DueOn.IsZero():
		return fmt.Errorf("%w: due_on is required", domain.ErrValidation)
	}
	return nil
}

// MarkReturned records each loan as returned today. Lateness is the overdue
// count at this moment. Already returned loans are left untouched.
func (s *LoanService) MarkReturned(ctx context.Context, sess Session, ids []int64) (BatchResult, error) {
	return s.batch(ctx, sess, "MarkReturned", ids, func(l domain.Loan, today time.Time) (map[domain.LoanField]any, error) {
		stored, err := lifecycle.Parse(l.Status)
		if err != nil {
			return nil, err
		}
		next, changed := lifecycle.MarkReturned(stored, l.DueOn, today)
		if !changed {
			return nil, nil
		}
		return map[domain.LoanField]any{domain.FieldStatus: next.String()}, nil
	})
}

// MarkNotReturned resets each loan to Active, dropping recorded lateness.
// The stored status is not required to parse.
func (s *LoanService) MarkNotReturned(ctx context.Context, sess Session, ids []int64) (BatchResult, error) {
	return s.batch(ctx, sess, "MarkNotReturned", ids, func(l domain.Loan, _ time.Time) (map[domain.LoanField]any, error) {
		next := lifecycle.MarkNotReturned(lifecycle.State{})
		if l.Status == next.String() {
			return nil, nil
		}
		return map[domain.LoanField]any{domain.FieldStatus: next.String()}, nil
	})
}

// EditDueDate moves each loan's due date. A loan still out has its status
// recomputed against today in the same write; a returned loan keeps it.
func (s *LoanService) EditDueDate(ctx context.Context, sess Session, ids []int64, dueOn time.Time) (BatchResult, error) {
	if dueOn.IsZero() {
		return BatchResult{}, fmt.Errorf("%w: due date is required", domain.ErrValidation)
	}
	dueOn = domain.DateOf(dueOn)
	return s.batch(ctx, sess, "EditDueDate", ids, func(l domain.Loan, today time.Time) (map[domain.LoanField]any, error) {
		stored, err := lifecycle.Parse(l.Status)
		if err != nil {
			return nil, err
		}
		fields := map[domain.LoanField]any{domain.FieldDueOn: dueOn}
		if next := lifecycle.EditDueDate(stored, dueOn, today); next.String() != l.Status {
			fields[domain.FieldStatus] = next.String()
		}
		return fields, nil
	})
}

// EditReturnDate backfills a return on returnedOn, overwriting any lateness
// recorded before.
func (s *LoanService) EditReturnDate(ctx context.Context, sess Session, ids []int64, returnedOn time.Time) (BatchResult, error) {
	if returnedOn.IsZero() {
		return BatchResult{}, fmt.Errorf("%w: return date is required", domain.ErrValidation)
	}
	returnedOn = domain.DateOf(returnedOn)
	return s.batch(ctx, sess, "EditReturnDate", ids, func(l domain.Loan, _ time.Time) (map[domain.LoanField]any, error) {
		next := lifecycle.EditReturnDate(l.DueOn, returnedOn)
		if next.String() == l.Status {
			return nil, nil
		}
		return map[domain.LoanField]any{domain.FieldStatus: next.String()}, nil
	})
}

// EditBorrowDate rewrites each loan's borrow date. Status is not touched.
func (s *LoanService) EditBorrowDate(ctx context.Context, sess Session, ids []int64, borrowedOn time.Time) (BatchResult, error) {
	if borrowedOn.IsZero() {
		return BatchResult{}, fmt.Errorf("%w: borrow date is required", domain.ErrValidation)
	}
	borrowedOn = domain.DateOf(borrowedOn)
	return s.batch(ctx, sess, "EditBorrowDate", ids, func(domain.Loan, time.Time) (map[domain.LoanField]any, error) {
		return map[domain.LoanField]any{domain.FieldBorrowedOn: borrowedOn}, nil
	})
}

// step computes the fields to write for one loan. A nil map means no-op.
type step func(l domain.Loan, today time.Time) (map[domain.LoanField]any, error)

// batch runs fn for every id independently, in order.
//
// A missing id is skipped. Any other per-record error, malformed status
// included, is collected in Failed and the batch moves on. An unavailable
// store aborts the batch: the partial result is returned with the error.
func (s *LoanService) batch(ctx context.Context, sess Session, op string, ids []int64, fn step) (BatchResult, error) {
	res := newBatchResult()
	if err := sess.validate(); err != nil {
		return res, err
	}
	if len(ids) == 0 {
		return res, fmt.Errorf("%w: at least one id is required", domain.ErrValidation)
	}

	today := s.today()
	for _, id := range ids {
		updated, written, err := s.apply(ctx, sess.Ledger, id, today, fn)
		switch {
		case errors.Is(err, domain.ErrStoreUnavailable):
			s.log.Error("batch aborted", "op", op, "ledger", sess.Ledger, "id", id, "error", err)
			return res, fmt.Errorf("service.LoanService.%s: %w", op, err)
		case errors.Is(err, domain.ErrNotFound):
			s.log.Warn("skipping missing loan", "op", op, "ledger", sess.Ledger, "id", id)
			res.Skipped = append(res.Skipped, id)
		case err != nil:
			s.log.Warn("loan not updated", "op", op, "ledger", sess.Ledger, "id", id, "error", err)
			res.Failed = append(res.Failed, BatchFailure{ID: id, Err: err})
		case !written:
			res.Unchanged = append(res.Unchanged, id)
		default:
			res.Updated = append(res.Updated, s.present(updated, today))
		}
	}
	return res, nil
}

// apply reads one loan, computes its change and writes it in one statement.
// The view is updated only after the write succeeds.
func (s *LoanService) apply(ctx context.Context, ledger string, id int64, today time.Time, fn step) (domain.Loan, bool, error) {
	current, err := s.loans.GetByID(ctx, ledger, id)
	if err != nil {
		return domain.Loan{}, false, err
	}
	fields, err := fn(current, today)
	if err != nil {
		return domain.Loan{}, false, err
	}
	if len(fields) == 0 {
		s.view.Put(current)
		return current, false, nil
	}
	updated, err := s.loans.UpdateFields(ctx, ledger, id, fields)
	if err != nil {
		return domain.Loan{}, false, err
	}
	s.view.Put(updated)
	return updated, true, nil
}

// Query reads the ledger's loans from the store, re-renders the view from
// them and returns each with its status derived for today. A filtered query
// refreshes only the matching rows of the view.
//
// Records come in insertion order unless q.Sort is active. Derived overdue
// counts are not persisted unless q.Commit is set.
func (s *LoanService) Query(ctx context.Context, sess Session, q LoanQuery) ([]LoanView, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if q.Sort.Active() && !q.Sort.Column.IsDate() {
		return nil, fmt.Errorf("%w: cannot sort by %q", domain.ErrValidation, q.Sort.Column)
	}

	loans, err := s.read(ctx, sess.Ledger, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("service.LoanService.Query: %w", err)
	}
	if _, _, filtered := q.Filter.Field(); filtered {
		s.view.Merge(sess.Ledger, loans)
	} else {
		s.view.Replace(sess.Ledger, loans)
	}

	today := s.today()
	if q.Commit {
		committed, err := s.commit(ctx, sess.Ledger, loans, today)
		if err != nil {
			return nil, fmt.Errorf("service.LoanService.Query: %w", err)
		}
		loans = committed
	}

	return s.presentAll(report.SortByDate(loans, q.Sort), today), nil
}

// Refresh re-reads every loan of the ledger into the view and returns the
// rows as displayed. Use it to recover after an interrupted action.
func (s *LoanService) Refresh(ctx context.Context, sess Session) ([]LoanView, error) {
	return s.Query(ctx, sess, LoanQuery{})
}

// Cached returns the view's current rows without touching the store.
func (s *LoanService) Cached(sess Session) ([]LoanView, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	return s.presentAll(s.view.Rows(sess.Ledger), s.today()), nil
}

// CommitOverdue persists today's derived status for every loan still out
// whose stored string is stale. Returned and malformed loans are left as is.
func (s *LoanService) CommitOverdue(ctx context.Context, sess Session) (BatchResult, error) {
	if err := sess.validate(); err != nil {
		return BatchResult{}, err
	}
	loans, err := s.loans.List(ctx, sess.Ledger)
	if err != nil {
		return BatchResult{}, fmt.Errorf("service.LoanService.CommitOverdue: %w", err)
	}
	s.view.Replace(sess.Ledger, loans)

	today := s.today()
	var stale []int64
	for _, l := range loans {
		if s.present(l, today).Stale() {
			stale = append(stale, l.ID)
		}
	}
	if len(stale) == 0 {
		return newBatchResult(), nil
	}

	return s.batch(ctx, sess, "CommitOverdue", stale, func(l domain.Loan, today time.Time) (map[domain.LoanField]any, error) {
		stored, err := lifecycle.Parse(l.Status)
		if err != nil {
			return nil, err
		}
		next := lifecycle.Derive(stored, l.DueOn, today)
		if next.String() == l.Status {
			return nil, nil
		}
		return map[domain.LoanField]any{domain.FieldStatus: next.String()}, nil
	})
}

// commit writes the derived status of stale loans and returns loans with the
// written rows swapped in. Per-record failures are logged and the stored row
// is kept; an unavailable store is returned.
func (s *LoanService) commit(ctx context.Context, ledger string, loans []domain.Loan, today time.Time) ([]domain.Loan, error) {
	out := slices.Clone(loans)
	for i, l := range out {
		v := s.present(l, today)
		if !v.Stale() {
			continue
		}
		updated, err := repo.UpdateField(ctx, s.loans, ledger, l.ID, domain.FieldStatus, v.Display)
		switch {
		case errors.Is(err, domain.ErrStoreUnavailable):
			return nil, err
		case err != nil:
			s.log.Warn("overdue status not committed", "ledger", ledger, "id", l.ID, "error", err)
			continue
		}
		s.view.Put(updated)
		out[i] = updated
	}
	return out, nil
}

// read fetches all loans of a ledger or those matching the filter.
func (s *LoanService) read(ctx context.Context, ledger string, f domain.LoanFilter) ([]domain.Loan, error) {
	field, value, ok := f.Field()
	if !ok {
		return s.loans.List(ctx, ledger)
	}
	return s.loans.ListByField(ctx, ledger, field, value)
}

// Equipment returns the distinct equipment names on the ledger's loans, sorted.
func (s *LoanService) Equipment(ctx context.Context, sess Session) ([]string, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	loans, err := s.loans.List(ctx, sess.Ledger)
	if err != nil {
		return nil, fmt.Errorf("service.LoanService.Equipment: %w", err)
	}
	names := make([]string, 0, len(loans))
	for _, l := range loans {
		names = append(names, l.EquipmentName)
	}
	return distinctSorted(names), nil
}

// Borrowers returns every known borrower email of the ledger: the registry
// plus any email found on a loan, sorted and deduplicated.
func (s *LoanService) Borrowers(ctx context.Context, sess Session) ([]string, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	loans, err := s.loans.List(ctx, sess.Ledger)
	if err != nil {
		return nil, fmt.Errorf("service.LoanService.Borrowers: %w", err)
	}
	emails, err := knownBorrowers(ctx, s.borrowers, sess.Ledger, loans)
	if err != nil {
		return nil, fmt.Errorf("service.LoanService.Borrowers: %w", err)
	}
	return emails, nil
}

// Ledgers lists every ledger holding loans or borrowers.
func (s *LoanService) Ledgers(ctx context.Context) ([]string, error) {
	ledgers, err := s.loans.Ledgers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.LoanService.Ledgers: %w", err)
	}
	if ledgers == nil {
		return []string{}, nil
	}
	return ledgers, nil
}

func (s *LoanService) presentAll(loans []domain.Loan, today time.Time) []LoanView {
	out := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		out = append(out, s.present(l, today))
	}
	return out
}

// present derives the display state of one loan for today.
func (s *LoanService) present(l domain.Loan, today time.Time) LoanView {
	stored, err := lifecycle.Parse(l.Status)
	if err != nil {
		s.log.Warn("malformed loan status", "ledger", l.Ledger, "id", l.ID, "status", l.Status)
		return LoanView{Loan: l, Display: l.Status, Tag: lifecycle.TagDefault, Malformed: true}
	}
	d := lifecycle.Derive(stored, l.DueOn, today)
	return LoanView{Loan: l, State: d, Display: d.String(), Tag: lifecycle.TagFor(d)}
}

// knownBorrowers merges the registry with the emails found on loans.
func knownBorrowers(ctx context.Context, r repo.BorrowerRepo, ledger string, loans []domain.Loan) ([]string, error) {
	registered, err := r.List(ctx, ledger)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(registered)+len(loans))
	for _, b := range registered {
		emails = append(emails, b.Email)
	}
	for _, l := range loans {
		emails = append(emails, l.BorrowerEmail)
	}
	return distinctSorted(emails), nil
}

func distinctSorted(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
