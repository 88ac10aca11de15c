package domain

// Distribution counts loans per stored-status bucket.
// Malformed counts records excluded because their status could not be parsed.
type Distribution struct {
	Pending        int `json:"pending"`
	ReturnedOnTime int `json:"returned_on_time"`
	ReturnedLate   int `json:"returned_late"`
	CurrentlyLate  int `json:"currently_late"`
	Malformed      int `json:"malformed"`
}

// Total is the number of classified loans (malformed records excluded).
func (d Distribution) Total() int {
	return d.Pending + d.ReturnedOnTime + d.ReturnedLate + d.CurrentlyLate
}

// BorrowerStats summarises one borrower's loan history.
type BorrowerStats struct {
	Email          string  `json:"email"`
	TotalLoans     int     `json:"total_loans"`
	ReturnedOnTime int     `json:"returned_on_time"`
	TrustIndex     float64 `json:"trust_index"`
}
