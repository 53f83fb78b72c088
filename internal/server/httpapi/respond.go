package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/paperhub/internal/common"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON writes payload with status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeErrorKind(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorBody{Kind: kind, Message: message})
}

// requestError carries a client-facing message for a validation failure.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return common.ErrorValidation }

func badRequest(msg string) error { return &requestError{msg: msg} }

type errorKind struct {
	sentinel error
	status   int
	kind     string
	message  string
}

// errorKinds is checked in order; token errors come before the generic
// unauthorized error they are wrapped in.
var errorKinds = []errorKind{
	{common.ErrorConflict, http.StatusConflict, "Conflict", "email is already registered"},
	{common.ErrorInvalidCredentials, http.StatusUnauthorized, "InvalidCredentials", common.ErrorInvalidCredentials.Error()},
	{common.ErrTokenExpired, http.StatusUnauthorized, "InvalidToken", "token expired"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "InvalidToken", "invalid token"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized", "authentication required"},
	{common.ErrInvalidOtp, http.StatusBadRequest, "InvalidOtp", common.ErrInvalidOtp.Error()},
	{common.ErrorNotFound, http.StatusNotFound, "NotFound", "not found"},
	{common.ErrorValidation, http.StatusBadRequest, "ValidationFailure", "invalid request"},
	{common.ErrorTooManyRequests, http.StatusTooManyRequests, "TooManyRequests", "too many requests, try again later"},
	{common.ErrorStorage, http.StatusServiceUnavailable, "StorageFailure", "storage is unavailable, try again later"},
}

// classify maps err to an HTTP status and error body. Messages are fixed per
// kind so internal details never reach the client.
func classify(err error) (int, ErrorBody) {
	var re *requestError
	if errors.As(err, &re) {
		return http.StatusBadRequest, ErrorBody{Kind: "ValidationFailure", Message: re.msg}
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			return k.status, ErrorBody{Kind: k.kind, Message: k.message}
		}
	}
	return http.StatusInternalServerError, ErrorBody{Kind: "Internal", Message: "internal error"}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, body)
}
