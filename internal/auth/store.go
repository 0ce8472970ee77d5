// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth

import (
	"context"
	"time"
)

// UserRepository defines the data access contract for user accounts.
//
// # Review Process
//
// This interface is placed in a separate file from user.go so entity changes
// and storage-contract changes can be reviewed independently by the team.
//
// # Semantics
//
// All Find* methods return [apperr.NotFound] for absence, never a bare
// transport error, so callers can distinguish "no such account" from a
// storage failure with [errors.As]. Uniqueness of username/email and the
// atomicity of [UserRepository.Activate] are guarantees of the store, not
// of this subsystem.
//
// # Implementations
//
// The canonical implementation for Inkwell is PostgreSQL (store_postgres.go).
type UserRepository interface {
	// FindByID returns the account with the given ID.
	//
	// Returns [apperr.NotFound] if the account does not exist.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email.
	//
	// Returns [apperr.NotFound] if no user is registered with this email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername returns the account with the given username.
	//
	// Returns [apperr.NotFound] if the username is available.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// ExistsByEmail reports whether any account uses the given email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername reports whether any account uses the given username.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Create persists a brand-new user account to the storage.
	//
	// The store is the final arbiter of uniqueness: even after Exists*
	// pre-checks, a concurrent registration can still trip the unique
	// constraint, which comes back as a wrapped conflict error.
	Create(ctx context.Context, user *User) error

	// Activate flips the account to active AND clears the verification
	// code and expiry in a single atomic update.
	//
	// Returns [apperr.NotFound] if the account does not exist.
	Activate(ctx context.Context, id string) error

	// SetVerificationCode replaces the account's pending activation code
	// and expiry together. Used by the resend flow; any previous code stops
	// being valid immediately.
	SetVerificationCode(ctx context.Context, id string, code string, expiresAt time.Time) error
}
