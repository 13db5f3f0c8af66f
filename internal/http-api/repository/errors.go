package repository

import "errors"

var (
	// ErrNotFound is returned when no row matched the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrNoFieldsProvided is returned for an update that changes nothing.
	ErrNoFieldsProvided = errors.New("no fields provided")
)
