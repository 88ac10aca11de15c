// Package domain contains the core data types for the equipment loan tracker.
// This package has no dependencies on the store or transport layers and is
// imported by every other internal package (lifecycle, repo, service, handler).
package domain

import "time"

// Loan is one piece of equipment lent to one borrower.
//
// Status is the stored status string ("Not Returned", "+3", "Returned",
// "Returned +2"). It is parsed into a lifecycle.State at the boundary and is
// never trusted to carry a current overdue count.
type Loan struct {
	ID            int64     `json:"id"`
	Ledger        string    `json:"ledger"`
	BorrowedOn    time.Time `json:"borrowed_on"`
	BorrowerEmail string    `json:"borrower_email"`
	EquipmentName string    `json:"equipment_name"`
	DueOn         time.Time `json:"due_on"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LoanField names a mutable or filterable column of the loans table.
type LoanField string

const (
	FieldBorrowedOn    LoanField = "borrowed_on"
	FieldBorrowerEmail LoanField = "borrower_email"
	FieldEquipmentName LoanField = "equipment_name"
	FieldDueOn         LoanField = "due_on"
	FieldStatus        LoanField = "status"
)

// Valid reports whether f is one of the known loan fields.
func (f LoanField) Valid() bool {
	switch f {
	case FieldBorrowedOn, FieldBorrowerEmail, FieldEquipmentName, FieldDueOn, FieldStatus:
		return true
	}
	return false
}

// IsDate reports whether the field holds a calendar date.
func (f LoanField) IsDate() bool {
	return f == FieldBorrowedOn || f == FieldDueOn
}
