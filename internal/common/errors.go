// Package common holds sentinel errors shared by the client and the server.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// report-specific errors
	ErrInvalidTimestampToken = errors.New("invalid timestamp token")
	ErrTimestampExpired      = errors.New("timestamp expired")
	ErrTimestampMismatch     = errors.New("timestamp does not match token")
)
