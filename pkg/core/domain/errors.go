package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrDuplicate    = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRow marks a stored row that failed validation when read back.
	ErrInvalidRow = errors.New("invalid row")
	ErrBusy       = errors.New("operation already in progress")
)
