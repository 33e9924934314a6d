package repository

import "errors"

var (
	// ErrNotFound is returned when no slot exists for a key
	ErrNotFound = errors.New("slot not found")

	// ErrVersionConflict is returned when a slot changed since it was read
	ErrVersionConflict = errors.New("slot version conflict")
)
