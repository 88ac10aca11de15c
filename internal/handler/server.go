// Package handler implements the JSON/HTTP adapter of the loan tracker.
// All handlers are methods on Server. Routes are split into domain-specific
// files (health.go, loan.go, stats.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/service"
)

// LoanServicer defines the loan operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type LoanServicer interface {
	Add(ctx context.Context, sess service.Session, in service.NewLoan) (service.LoanView, error)
	MarkReturned(ctx context.Context, sess service.Session, ids []int64) (service.BatchResult, error)
	MarkNotReturned(ctx context.Context, sess service.Session, ids []int64) (service.BatchResult, error)
	EditDueDate(ctx context.Context, sess service.Session, ids []int64, dueOn time.Time) (service.BatchResult, error)
	EditReturnDate(ctx context.Context, sess service.Session, ids []int64, returnedOn time.Time) (service.BatchResult, error)
	EditBorrowDate(ctx context.Context, sess service.Session, ids []int64, borrowedOn time.Time) (service.BatchResult, error)
	Query(ctx context.Context, sess service.Session, q service.LoanQuery) ([]service.LoanView, error)
	CommitOverdue(ctx context.Context, sess service.Session) (service.BatchResult, error)
	Borrowers(ctx context.Context, sess service.Session) ([]string, error)
	Equipment(ctx context.Context, sess service.Session) ([]string, error)
	Ledgers(ctx context.Context) ([]string, error)
}

// ReportServicer defines the statistics operations the handlers depend on.
type ReportServicer interface {
	Distribution(ctx context.Context, sess service.Session) (domain.Distribution, error)
	Trust(ctx context.Context, sess service.Session, email string) (domain.BorrowerStats, error)
	BorrowerStats(ctx context.Context, sess service.Session) ([]domain.BorrowerStats, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	loans   LoanServicer
	reports ReportServicer
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(loans LoanServicer, reports ReportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{loans: loans, reports: reports, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil)
}

// Routes returns the API routes. Middleware is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register mounts every endpoint on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/ledgers", s.ListLedgers)

	r.Route("/ledgers/{ledger}", func(r chi.Router) {
		r.Get("/loans", s.ListLoans)
		r.Post("/loans", s.CreateLoan)
		r.Post("/loans/returned", s.MarkReturned)
		r.Post("/loans/not-returned", s.MarkNotReturned)
		r.Post("/loans/due-date", s.EditDueDate)
		r.Post("/loans/return-date", s.EditReturnDate)
		r.Post("/loans/borrow-date", s.EditBorrowDate)
		r.Post("/loans/commit-overdue", s.CommitOverdue)

		r.Get("/borrowers", s.ListBorrowers)
		r.Get("/equipment", s.ListEquipment)

		r.Get("/stats", s.GetDistribution)
		r.Get("/stats/borrowers", s.ListBorrowerStats)
		r.Get("/stats/borrowers/{email}", s.GetTrust)
	})
}

// session builds the Session named by the {ledger} path parameter.
func session(r *http.Request) (service.Session, error) {
	return service.NewSession(chi.URLParam(r, "ledger"))
}
