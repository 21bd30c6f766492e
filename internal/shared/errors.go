package shared

import "errors"

var (
	// ErrNotFound indicates the referenced order, customer or employee does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness violation (employee code, attendance day).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrConsistency indicates a recompute found no owning record. Callers log it
	// and treat the recompute as a no-op; it is never surfaced to the user.
	ErrConsistency = errors.New("consistency violation")
)
