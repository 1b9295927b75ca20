// Package repository defines the error taxonomy shared by all repositories.
// These sentinel values let handlers map failure scenarios onto stable HTTP
// responses without inspecting message text. Repositories wrap a sentinel
// with a reason (fmt.Errorf("%w: duplicate bid", ErrConflict)) so callers
// can both match with errors.Is and surface the human-readable detail.
// Any error that does not wrap one of these sentinels is a store failure:
// handlers log it with context and return a generic 500 without leaking
// internal detail.
package repository

import "errors"

// ErrValidation is returned when input is missing or malformed in a way the
// caller can fix. Handlers translate it into HTTP 400.
var ErrValidation = errors.New("validation")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they neither own nor are assigned to. Handlers translate it into
// HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a referenced entity does not exist. Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when the request is incompatible with current
// state: duplicate bid, non-open reservation, already evaluated, cancelling
// a terminal reservation. Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
