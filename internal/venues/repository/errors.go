package repository

import "errors"

var (
	ErrNotFound = errors.New("venue not found")
)
