package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/equipment-loans/internal/domain"
)

// BorrowerRepo is the per-ledger borrower registry: an append-only list of
// emails keyed by ledger.
type BorrowerRepo interface {
	// Upsert adds email to the ledger's registry, or returns the existing entry
	// if the exact same string is already there.
	Upsert(ctx context.Context, ledger, email string) (domain.Borrower, error)

	// List returns every registered borrower of the ledger ordered by email.
	List(ctx context.Context, ledger string) ([]domain.Borrower, error)
}

// pgBorrowerRepo is the Postgres implementation of BorrowerRepo.
type pgBorrowerRepo struct {
	db db
}

// NewBorrowerRepo constructs a BorrowerRepo backed by the provided db connection.
func NewBorrowerRepo(db db) BorrowerRepo {
	return &pgBorrowerRepo{db: db}
}

// Upsert inserts a borrower or returns the existing row on conflict.
// The DO UPDATE SET no-op makes RETURNING fire on the conflict path too.
func (r *pgBorrowerRepo) Upsert(ctx context.Context, ledger, email string) (domain.Borrower, error) {
	const q = `
		INSERT INTO borrowers (ledger, email)
		VALUES (@ledger, @email)
		ON CONFLICT (ledger, email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, ledger, email, created_at`

	result, err := scanBorrower(r.db.QueryRow(ctx, q, pgx.NamedArgs{"ledger": ledger, "email": email}))
	if err != nil {
		return domain.Borrower{}, fmt.Errorf("repo.BorrowerRepo.Upsert: %w", classify(err))
	}
	return result, nil
}

// List returns the ledger's borrowers ordered by email.
func (r *pgBorrowerRepo) List(ctx context.Context, ledger string) ([]domain.Borrower, error) {
	const q = `
		SELECT id, ledger, email, created_at
		FROM borrowers
		WHERE ledger = @ledger
		ORDER BY email`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ledger": ledger})
	if err != nil {
		return nil, fmt.Errorf("repo.BorrowerRepo.List: %w", classify(err))
	}
	defer rows.Close()

	borrowers := []domain.Borrower{}
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BorrowerRepo.List: scan: %w", err)
		}
		borrowers = append(borrowers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BorrowerRepo.List: rows: %w", classify(err))
	}
	return borrowers, nil
}

// scanBorrower maps a single database row into a domain.Borrower.
func scanBorrower(s scanner) (domain.Borrower, error) {
	var (
		b  domain.Borrower
		id pgtype.UUID
	)
	if err := s.Scan(&id, &b.Ledger, &b.Email, &b.CreatedAt); err != nil {
		return domain.Borrower{}, err
	}
	b.ID = uuid.UUID(id.Bytes)
	return b, nil
}
