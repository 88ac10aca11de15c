package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/equipment-loans/internal/domain"
	"github.com/pkordes/equipment-loans/internal/lifecycle"
	"github.com/pkordes/equipment-loans/internal/service"
)

// Loan is the JSON representation of one loan as displayed today.
// Status is the stored string; DisplayStatus carries the derived overdue count.
type Loan struct {
	Id            int64              `json:"id"`
	Ledger        string             `json:"ledger"`
	BorrowedOn    openapi_types.Date `json:"borrowed_on"`
	BorrowerEmail string             `json:"borrower_email"`
	EquipmentName string             `json:"equipment_name"`
	DueOn         openapi_types.Date `json:"due_on"`
	Status        string             `json:"status"`
	DisplayStatus string             `json:"display_status"`
	Tag           string             `json:"tag"`
	OverdueDays   *int               `json:"overdue_days,omitempty"`
	Malformed     bool               `json:"malformed,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CreateLoanRequest is the body of POST /ledgers/{ledger}/loans.
type CreateLoanRequest struct {
	BorrowerEmail string              `json:"borrower_email"`
	EquipmentName string              `json:"equipment_name"`
	DueOn         *openapi_types.Date `json:"due_on"`
}

// BatchRequest is the body of the multi-record endpoints.
// Date is required by the date edits and ignored elsewhere.
type BatchRequest struct {
	IDs  []int64             `json:"ids"`
	Date *openapi_types.Date `json:"date,omitempty"`
}

// BatchFailure reports one id whose write was refused.
type BatchFailure struct {
	Id      int64  `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResponse is the outcome of a multi-record action.
type BatchResponse struct {
	Updated    []Loan         `json:"updated"`
	Unchanged  []int64        `json:"unchanged_ids"`
	SkippedIDs []int64        `json:"skipped_ids"`
	Skipped    int            `json:"skipped"`
	Failed     []BatchFailure `json:"failed"`
}

// ListResponse wraps a list of names.
type ListResponse struct {
	Data []string `json:"data"`
}

// LoanListResponse wraps the loans of a query.
type LoanListResponse struct {
	Data []Loan `json:"data"`
}

// BorrowerStatsResponse wraps per-borrower statistics.
type BorrowerStatsResponse struct {
	Data []domain.BorrowerStats `json:"data"`
}

// DistributionResponse is the body of GET /ledgers/{ledger}/stats.
type DistributionResponse struct {
	domain.Distribution
	Total int `json:"total"`
}

// --- mapping helpers --------------------------------------------------------

// loanToResponse converts a service.LoanView into its JSON representation.
func loanToResponse(v service.LoanView) Loan {
	resp := Loan{
		Id:            v.ID,
		Ledger:        v.Ledger,
		BorrowedOn:    openapi_types.Date{Time: v.BorrowedOn},
		BorrowerEmail: v.BorrowerEmail,
		EquipmentName: v.EquipmentName,
		DueOn:         openapi_types.Date{Time: v.DueOn},
		Status:        v.Status,
		DisplayStatus: v.Display,
		Tag:           string(v.Tag),
		Malformed:     v.Malformed,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if !v.Malformed && v.State.Kind == lifecycle.KindOverdue {
		days := v.State.Days
		resp.OverdueDays = &days
	}
	return resp
}

func loansToResponse(views []service.LoanView) []Loan {
	out := make([]Loan, len(views))
	for i, v := range views {
		out[i] = loanToResponse(v)
	}
	return out
}

// batchToResponse converts a service.BatchResult into its JSON representation.
func batchToResponse(res service.BatchResult) BatchResponse {
	resp := BatchResponse{
		Updated:    loansToResponse(res.Updated),
		Unchanged:  nonNil(res.Unchanged),
		SkippedIDs: nonNil(res.Skipped),
		Skipped:    res.SkippedCount(),
		Failed:     make([]BatchFailure, len(res.Failed)),
	}
	for i, f := range res.Failed {
		resp.Failed[i] = BatchFailure{Id: f.ID, Code: errorCode(f.Err), Message: f.Err.Error()}
	}
	return resp
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
