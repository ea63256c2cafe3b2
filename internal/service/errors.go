package service

import "errors"

// Validation errors surfaced to the caller and never retried.
var (
	ErrNoSeats       = errors.New("at least one seat is required")
	ErrNegativePrice = errors.New("total price must not be negative")
	ErrMissingDate   = errors.New("show date is required")
)
