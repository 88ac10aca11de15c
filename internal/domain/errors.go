package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// loan does not exist in the selected ledger.
// Handlers should map this to HTTP 404. Batch operations skip the id instead.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty borrower email, unparseable date).
// Nothing is written when this error is returned.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrMalformedStatus is returned when a stored status string matches none of
// the four known shapes. It is local to the record that carries it.
var ErrMalformedStatus = errors.New("malformed status")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
// No data is assumed written. Handlers should map this to HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")
