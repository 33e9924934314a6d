package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a conditional status update found the booking
	// in a different status than the caller read.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
