package service

import (
	"errors"
)

// ValidationError reports a write request that was rejected before reaching the store
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

var (
	ErrEmptyRequest     = &ValidationError{Reason: "both path and url are empty"}
	ErrMissingSeparator = &ValidationError{Reason: "path must contain a separator"}
	ErrEmptyURL         = &ValidationError{Reason: "url is empty"}
	ErrReservedPath     = &ValidationError{Reason: "path uses the reserved " + ReservedPrefix + " prefix"}
)

// ReservedPrefix is served by the API routes, so no mapping may live under it
const ReservedPrefix = "api/"

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
