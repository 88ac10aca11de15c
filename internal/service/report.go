package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/repo"
	"github.com/pkordes/equipment-loans/internal/report"
)

// ReportService serves the statistics of a ledger. Every call re-reads the
// store, so figures reflect the latest mutation without any notification.
type ReportService struct {
	loans     repo.LoanRepo
	borrowers repo.BorrowerRepo
}

// NewReportService constructs a ReportService backed by the provided repos.
func NewReportService(loans repo.LoanRepo, borrowers repo.BorrowerRepo) *ReportService {
	return &ReportService{loans: loans, borrowers: borrowers}
}

// Distribution counts the ledger's loans per stored-status bucket.
func (s *ReportService) Distribution(ctx context.Context, sess Session) (domain.Distribution, error) {
	if err := sess.validate(); err != nil {
		return domain.Distribution{}, err
	}
	loans, err := s.loans.List(ctx, sess.Ledger)
	if err != nil {
		return domain.Distribution{}, fmt.Errorf("service.ReportService.Distribution: %w", err)
	}
	return report.Distribute(loans), nil
}

// Trust returns one borrower's statistics, trust index included.
// An unknown borrower has zero loans and a trust index of 0.
func (s *ReportService) Trust(ctx context.Context, sess Session, email string) (domain.BorrowerStats, error) {
	if err := sess.validate(); err != nil {
		return domain.BorrowerStats{}, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.BorrowerStats{}, fmt.Errorf("%w: borrower email is required", domain.ErrValidation)
	}
	loans, err := s.loans.ListByField(ctx, sess.Ledger, domain.FieldBorrowerEmail, email)
	if err != nil {
		return domain.BorrowerStats{}, fmt.Errorf("service.ReportService.Trust: %w", err)
	}
	return report.Borrower(loans, email), nil
}

// BorrowerStats returns statistics for every known borrower of the ledger,
// ordered by email.
func (s *ReportService) BorrowerStats(ctx context.Context, sess Session) ([]domain.BorrowerStats, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	loans, err := s.loans.List(ctx, sess.Ledger)
	if err != nil {
		return nil, fmt.Errorf("service.ReportService.BorrowerStats: %w", err)
	}
	emails, err := knownBorrowers(ctx, s.borrowers, sess.Ledger, loans)
	if err != nil {
		return nil, fmt.Errorf("service.ReportService.BorrowerStats: %w", err)
	}
	return report.Borrowers(loans, emails), nil
}
