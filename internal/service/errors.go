package service

import "errors"

// Sentinel errors for the business rules. The HTTP layer matches these with
// errors.Is and maps them to the wire error codes; anything else is an
// internal error.
var (
	ErrInvalidData      = errors.New("invalid data")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyConfirmed = errors.New("reading already confirmed")
)
