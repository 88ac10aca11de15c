package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/service"
)

// ListLedgers handles GET /ledgers.
func (s *Server) ListLedgers(w http.ResponseWriter, r *http.Request) {
	ledgers, err := s.loans.Ledgers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: nonNil(ledgers)})
}

// ListLoans handles GET /ledgers/{ledger}/loans.
// Supports ?email= or ?equipment= (email wins), ?sort=borrowed_on|due_on,
// ?order=asc|desc and ?commit=true.
func (s *Server) ListLoans(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := loanQuery(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	views, err := s.loans.Query(r.Context(), sess, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoanListResponse{Data: loansToResponse(views)})
}

// loanQuery parses the query string of GET /ledgers/{ledger}/loans.
func loanQuery(r *http.Request) (service.LoanQuery, error) {
	v := r.URL.Query()
	q := service.LoanQuery{
		Filter: domain.LoanFilter{
			BorrowerEmail: v.Get("email"),
			EquipmentName: v.Get("equipment"),
		},
	}

	switch col := domain.LoanField(v.Get("sort")); col {
	case "":
	case domain.FieldBorrowedOn, domain.FieldDueOn:
		q.Sort.Column = col
	default:
		return q, fmt.Errorf("sort must be %q or %q", domain.FieldBorrowedOn, domain.FieldDueOn)
	}

	switch v.Get("order") {
	case "", "asc":
	case "desc":
		q.Sort.Descending = true
	default:
		return q, errors.New(`order must be "asc" or "desc"`)
	}

	if c := v.Get("commit"); c != "" {
		commit, err := strconv.ParseBool(c)
		if err != nil {
			return q, errors.New("commit must be a boolean")
		}
		q.Commit = commit
	}
	return q, nil
}

// CreateLoan handles POST /ledgers/{ledger}/loans.
func (s *Server) CreateLoan(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body CreateLoanRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	in := service.NewLoan{BorrowerEmail: body.BorrowerEmail, EquipmentName: body.EquipmentName}
	if body.DueOn != nil {
		in.DueOn = body.DueOn.Time
	}

	created, err := s.loans.Add(r.Context(), sess, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loanToResponse(created))
}

// batchFunc runs one multi-record action. date is zero unless the request
// carried one.
type batchFunc func(ctx context.Context, sess service.Session, ids []int64, date time.Time) (service.BatchResult, error)

// MarkReturned handles POST /ledgers/{ledger}/loans/returned.
func (s *Server) MarkReturned(w http.ResponseWriter, r *http.Request) {
	s.batch(w, r, false, func(ctx context.Context, sess service.Session, ids []int64, _ time.Time) (service.BatchResult, error) {
		return s.loans.MarkReturned(ctx, sess, ids)
	})
}

// MarkNotReturned handles POST /ledgers/{ledger}/loans/not-returned.
func (s *Server) MarkNotReturned(w http.ResponseWriter, r *http.Request) {
	s.batch(w, r, false, func(ctx context.Context, sess service.Session, ids []int64, _ time.Time) (service.BatchResult, error) {
		return s.loans.MarkNotReturned(ctx, sess, ids)
	})
}

// EditDueDate handles POST /ledgers/{ledger}/loans/due-date.
func (s *Server) EditDueDate(w http.ResponseWriter, r *http.Request) {
	s.batch(w, r, true, s.loans.EditDueDate)
}

// EditReturnDate handles POST /ledgers/{ledger}/loans/return-date.
func (s *Server) EditReturnDate(w http.ResponseWriter, r *http.Request) {
	s.batch(w, r, true, s.loans.EditReturnDate)
}

// EditBorrowDate handles POST /ledgers/{ledger}/loans/borrow-date.
func (s *Server) EditBorrowDate(w http.ResponseWriter, r *http.Request) {
	s.batch(w, r, true, s.loans.EditBorrowDate)
}

// batch decodes a BatchRequest and runs fn. Partial failures still answer
// 200; an unavailable store answers 503 with what was written so far.
func (s *Server) batch(w http.ResponseWriter, r *http.Request, needsDate bool, fn batchFunc) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body BatchRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	if len(body.IDs) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("ids must not be empty"))
		return
	}
	var date time.Time
	if needsDate {
		if body.Date == nil {
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("date is required"))
			return
		}
		date = body.Date.Time
	}

	res, err := fn(r.Context(), sess, body.IDs, date)
	s.writeBatch(w, r, res, err)
}

// CommitOverdue handles POST /ledgers/{ledger}/loans/commit-overdue.
func (s *Server) CommitOverdue(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.loans.CommitOverdue(r.Context(), sess)
	s.writeBatch(w, r, res, err)
}

func (s *Server) writeBatch(w http.ResponseWriter, r *http.Request, res service.BatchResult, err error) {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		s.log.Error("batch aborted", "method", r.Method, "path", r.URL.Path, "error", err)
		partial := batchToResponse(res)
		body := unavailableBody()
		body.Partial = &partial
		writeJSON(w, http.StatusServiceUnavailable, body)
	case err != nil:
		s.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, batchToResponse(res))
	}
}

func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
}

// ListBorrowers handles GET /ledgers/{ledger}/borrowers.
func (s *Server) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	s.names(w, r, s.loans.Borrowers)
}

// ListEquipment handles GET /ledgers/{ledger}/equipment.
func (s *Server) ListEquipment(w http.ResponseWriter, r *http.Request) {
	s.names(w, r, s.loans.Equipment)
}

func (s *Server) names(w http.ResponseWriter, r *http.Request, fn func(context.Context, service.Session) ([]string, error)) {
	sess, err := session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	names, err := fn(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: nonNil(names)})
}
