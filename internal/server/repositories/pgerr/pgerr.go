// Package pgerr classifies PostgreSQL errors surfaced through pgx.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

func code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool     { return code(err) == codeUniqueViolation }
func IsForeignKeyViolation(err error) bool { return code(err) == codeForeignKeyViolation }
func IsCheckViolation(err error) bool      { return code(err) == codeCheckViolation }

// IsInvalidText reports a malformed literal, e.g. a non-uuid id.
func IsInvalidText(err error) bool { return code(err) == codeInvalidText }
