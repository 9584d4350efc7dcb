package models

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid operation")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	// ErrDuplicate marks a unique-key violation raised by the store.
	ErrDuplicate   = errors.New("duplicate key")
	ErrPersistence = errors.New("persistence failure")
)
