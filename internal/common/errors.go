// Package common defines shared constants and sentinel errors used across
// the server and the CLI client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorInvalidCredentials = errors.New("invalid email or password")
	ErrorStorage            = errors.New("storage failure")
	ErrorValidation         = errors.New("validation failed")
	ErrorTooManyRequests    = errors.New("too many requests")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Password reset errors.
	ErrInvalidOtp = errors.New("invalid or expired code")
)
