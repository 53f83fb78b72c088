package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paperhub/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

// Unwrap maps the error kind to the matching sentinel so callers can use
// errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Kind {
	case "Unauthorized", "InvalidToken":
		return ErrUnauthorized
	case "InvalidCredentials":
		return common.ErrorInvalidCredentials
	case "Conflict":
		return common.ErrorConflict
	case "InvalidOtp":
		return common.ErrInvalidOtp
	case "NotFound":
		return common.ErrorNotFound
	case "ValidationFailure":
		return common.ErrorValidation
	case "TooManyRequests":
		return common.ErrorTooManyRequests
	case "StorageFailure":
		return ErrUnavailable
	}
	return nil
}
