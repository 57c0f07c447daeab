package services

import "errors"

// Sentinel errors shared by the service layer. Handlers translate these
// into HTTP status codes; storage failures pass through unwrapped.
var (
	// ErrNotFound means an entity id did not resolve to a row.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the acting user lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation means a form submission failed field validation.
	ErrValidation = errors.New("validation failed")
	// ErrLastAdmin means a role toggle would leave the system without
	// any active admin and was skipped.
	ErrLastAdmin = errors.New("cannot demote the last active admin")
)
