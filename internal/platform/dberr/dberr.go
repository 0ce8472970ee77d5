// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inkwell-app/inkwell/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// The action string describes the attempted operation (e.g. "create account")
// and is folded into the conflict message shown to the client.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Unique-constraint violations (SQLSTATE 23505) become Conflicts.
	// Pre-insert existence checks can always race; the constraint is the
	// final arbiter and this mapping keeps the loser's error client-safe.
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
		return apperr.Conflict("Could not " + action + ": value already in use")
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
