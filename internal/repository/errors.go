// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let handlers and the workflow engine
// distinguish failure scenarios: ErrForbidden means the caller does not own
// the resource, ErrConflict means existing state blocks the operation (for
// example applying twice to the same gig).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot proceed because
// of conflicting state.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
