package domain

// LoanFilter selects the loans returned by a query.
// The zero value means "no filter". When both fields are set the borrower
// email wins, matching the single-predicate contract of the store.
type LoanFilter struct {
	BorrowerEmail string
	EquipmentName string
}

// Field returns the column and value the filter matches on, and false when
// the filter is empty.
func (f LoanFilter) Field() (LoanField, string, bool) {
	switch {
	case f.BorrowerEmail != "":
		return FieldBorrowerEmail, f.BorrowerEmail, true
	case f.EquipmentName != "":
		return FieldEquipmentName, f.EquipmentName, true
	}
	return "", "", false
}

// SortOrder is an optional date-column ordering applied on top of insertion order.
// A zero Column leaves records in insertion (id) order.
type SortOrder struct {
	Column     LoanField
	Descending bool
}

// Active reports whether a sort column has been chosen.
func (s SortOrder) Active() bool {
	return s.Column != ""
}
