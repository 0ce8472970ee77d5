// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

// Package auth implements the account authentication and activation core of
// the Inkwell platform.
//
// # Architecture
//
// Entities in this file represent the "Truth" of the system. They have no
// dependencies on outer layers (databases, APIs, frameworks), which keeps
// the activation state machine testable in isolation.
package auth

import (
	"time"

	"github.com/inkwell-app/inkwell/internal/platform/sec"
)

// User represents a registered account on the Inkwell platform.
//
// # Lifecycle
//
// Accounts move through exactly three states:
//
//	NonExistent -> PendingActivation -> Active (terminal)
//
// Registration creates the account inactive with a pending verification
// code. Verification activates it and clears the code. Resend replaces the
// code without changing state. Nothing in this subsystem ever deletes an
// account.
//
// # Rules
//   - Username is unique. Email is unique and validated.
//   - PasswordHash is generated exclusively via [sec.Hasher]; it never
//     leaves the server.
//   - VerificationCode and VerificationExpiry are set and cleared together;
//     an active account always has both cleared.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.UserRole `json:"role"`
	IsActive     bool         `json:"is_active"`

	// VerificationCode is the pending activation secret. Nil once the
	// account is active or before a code has been issued.
	VerificationCode *string `json:"-"`

	// VerificationExpiry is the instant from which the code is invalid.
	// Nil exactly when VerificationCode is nil.
	VerificationExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPendingCode reports whether the account carries an unconsumed
// verification code (expired or not).
func (user *User) HasPendingCode() bool {
	return user.VerificationCode != nil && user.VerificationExpiry != nil
}
