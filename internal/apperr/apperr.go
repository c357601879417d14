// Package apperr holds the error kinds shared by the domain packages and the
// HTTP layer. Domain errors wrap one of these with %w so callers can classify
// them with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
