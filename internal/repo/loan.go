package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/equipment-loans/internal/domain"
)

// LoanRepo defines the persistence operations for loan records.
// Every read and write is scoped to one ledger.
// The service layer depends on this interface, not the Postgres implementation.
type LoanRepo interface {
	// Create inserts a new loan and returns the persisted record with its
	// store-assigned id.
	Create(ctx context.Context, loan domain.Loan) (domain.Loan, error)

	// GetByID retrieves one loan. Returns domain.ErrNotFound if no loan with
	// that id exists in the ledger.
	GetByID(ctx context.Context, ledger string, id int64) (domain.Loan, error)

	// List returns every loan in the ledger in insertion (id) order.
	List(ctx context.Context, ledger string) ([]domain.Loan, error)

	// ListByField returns the loans whose field exactly equals value, in id order.
	ListByField(ctx context.Context, ledger string, field domain.LoanField, value any) ([]domain.Loan, error)

	// UpdateFields writes all supplied fields of one loan in a single statement
	// and returns the updated record. Returns domain.ErrNotFound if the loan
	// does not exist in the ledger.
	UpdateFields(ctx context.Context, ledger string, id int64, fields map[domain.LoanField]any) (domain.Loan, error)

	// Ledgers lists every ledger name that holds loans or borrowers.
	Ledgers(ctx context.Context) ([]string, error)
}

// UpdateField is the single-column form of LoanRepo.UpdateFields.
func UpdateField(ctx context.Context, r LoanRepo, ledger string, id int64, field domain.LoanField, value any) (domain.Loan, error) {
	return r.UpdateFields(ctx, ledger, id, map[domain.LoanField]any{field: value})
}

const loansTable = "loans"

// loanColumns is the column list every loan read selects, in scanLoan order.
var loanColumns = []any{
	"id", "ledger", "borrowed_on", "borrower_email", "equipment_name",
	"due_on", "status", "created_at", "updated_at",
}

// pgLoanRepo is the Postgres implementation of LoanRepo.
type pgLoanRepo struct {
	db db
}

// NewLoanRepo constructs a LoanRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewLoanRepo(db db) LoanRepo {
	return &pgLoanRepo{db: db}
}

// Create inserts a loan row and returns the full persisted record.
func (r *pgLoanRepo) Create(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	const q = `
		INSERT INTO loans (ledger, borrowed_on, borrower_email, equipment_name, due_on, status)
		VALUES (@ledger, @borrowed_on, @borrower_email, @equipment_name, @due_on, @status)
		RETURNING id, ledger, borrowed_on, borrower_email, equipment_name, due_on, status, created_at, updated_at`

	args := pgx.NamedArgs{
		"ledger":         loan.Ledger,
		"borrowed_on":    domain.DateOf(loan.BorrowedOn),
		"borrower_email": loan.BorrowerEmail,
		"equipment_name": loan.EquipmentName,
		"due_on":         domain.DateOf(loan.DueOn),
		"status":         loan.Status,
	}

	result, err := scanLoan(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.Create: %w", classify(err))
	}
	return result, nil
}

// GetByID retrieves a loan by primary key within a ledger.
func (r *pgLoanRepo) GetByID(ctx context.Context, ledger string, id int64) (domain.Loan, error) {
	const q = `
		SELECT id, ledger, borrowed_on, borrower_email, equipment_name, due_on, status, created_at, updated_at
		FROM loans
		WHERE ledger = @ledger AND id = @id`

	result, err := scanLoan(r.db.QueryRow(ctx, q, pgx.NamedArgs{"ledger": ledger, "id": id}))
	if err != nil {
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.GetByID: %w", classify(err))
	}
	return result, nil
}

// List returns all loans of a ledger ordered by id.
func (r *pgLoanRepo) List(ctx context.Context, ledger string) ([]domain.Loan, error) {
	const q = `
		SELECT id, ledger, borrowed_on, borrower_email, equipment_name, due_on, status, created_at, updated_at
		FROM loans
		WHERE ledger = @ledger
		ORDER BY id`

	loans, err := r.collect(ctx, q, pgx.NamedArgs{"ledger": ledger})
	if err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.List: %w", err)
	}
	return loans, nil
}

// ListByField returns the loans of a ledger whose column equals value.
func (r *pgLoanRepo) ListByField(ctx context.Context, ledger string, field domain.LoanField, value any) ([]domain.Loan, error) {
	q, args, err := buildListByField(ledger, field, value)
	if err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.ListByField: %w", err)
	}

	loans, err := r.collect(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.ListByField: %w", err)
	}
	return loans, nil
}

// UpdateFields writes the given columns and bumps updated_at.
func (r *pgLoanRepo) UpdateFields(ctx context.Context, ledger string, id int64, fields map[domain.LoanField]any) (domain.Loan, error) {
	q, args, err := buildUpdateFields(ledger, id, fields)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.UpdateFields: %w", err)
	}

	result, err := scanLoan(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.UpdateFields: %w", classify(err))
	}
	return result, nil
}

// Ledgers returns the distinct ledger names across loans and borrowers.
func (r *pgLoanRepo) Ledgers(ctx context.Context) ([]string, error) {
	const q = `
		SELECT ledger FROM loans
		UNION
		SELECT ledger FROM borrowers
		ORDER BY ledger`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.Ledgers: %w", classify(err))
	}
	defer rows.Close()

	ledgers := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("repo.LoanRepo.Ledgers: scan: %w", err)
		}
		ledgers = append(ledgers, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.Ledgers: rows: %w", classify(err))
	}
	return ledgers, nil
}

// collect runs a loan query and scans every row.
func (r *pgLoanRepo) collect(ctx context.Context, q string, args ...any) ([]domain.Loan, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	loans := []domain.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", classify(err))
	}
	return loans, nil
}

// buildListByField renders the field-keyed select. The column name comes from
// a whitelist, so it is safe to interpolate as an identifier.
func buildListByField(ledger string, field domain.LoanField, value any) (string, []any, error) {
	if !field.Valid() {
		return "", nil, fmt.Errorf("%w: unknown field %q", domain.ErrValidation, field)
	}
	v, err := columnValue(field, value)
	if err != nil {
		return "", nil, err
	}

	return dialect.From(loansTable).
		Prepared(true).
		Select(loanColumns...).
		Where(goqu.Ex{"ledger": ledger, string(field): v}).
		Order(goqu.I("id").Asc()).
		ToSQL()
}

// buildUpdateFields renders one UPDATE for all supplied fields.
func buildUpdateFields(ledger string, id int64, fields map[domain.LoanField]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	rec := goqu.Record{"updated_at": goqu.L("now()")}
	for f, value := range fields {
		if !f.Valid() {
			return "", nil, fmt.Errorf("%w: unknown field %q", domain.ErrValidation, f)
		}
		v, err := columnValue(f, value)
		if err != nil {
			return "", nil, err
		}
		rec[string(f)] = v
	}

	return dialect.Update(loansTable).
		Prepared(true).
		Set(rec).
		Where(goqu.Ex{"ledger": ledger, "id": id}).
		Returning(loanColumns...).
		ToSQL()
}

// columnValue normalizes a value for its column. Date columns accept a
// time.Time or a "YYYY-MM-DD" string and are sent as "YYYY-MM-DD" text;
// all other columns take strings.
func columnValue(field domain.LoanField, value any) (any, error) {
	if field.IsDate() {
		switch v := value.(type) {
		case time.Time:
			return domain.FormatDate(v), nil
		case string:
			d, err := domain.ParseDate(v)
			if err != nil {
				return nil, err
			}
			return domain.FormatDate(d), nil
		}
		return nil, fmt.Errorf("%w: field %q needs a date, got %T", domain.ErrValidation, field, value)
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: field %q needs a string, got %T", domain.ErrValidation, field, value)
	}
	return s, nil
}

// scanLoan maps a single database row into a domain.Loan.
func scanLoan(s scanner) (domain.Loan, error) {
	var (
		l          domain.Loan
		borrowedOn pgtype.Date
		dueOn      pgtype.Date
	)

	err := s.Scan(&l.ID, &l.Ledger, &borrowedOn, &l.BorrowerEmail, &l.EquipmentName,
		&dueOn, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.Loan{}, err
	}

	l.BorrowedOn = borrowedOn.Time
	l.DueOn = dueOn.Time
	return l, nil
}
