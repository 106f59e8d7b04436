package repository

import "errors"

var (
	// ErrNotFound is returned when a row does not exist for the given company.
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned when a conditional update matched no row
	// because the row changed state since it was read.
	ErrStateConflict = errors.New("record state changed concurrently")
)
