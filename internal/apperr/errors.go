package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrMissingTitle  = errors.New("missing title")
	ErrUnsupported   = errors.New("unsupported")
)
