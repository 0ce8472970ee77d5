// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth

import (
	"crypto/subtle"
	"time"

	"github.com/inkwell-app/inkwell/internal/platform/constants"
	"github.com/inkwell-app/inkwell/internal/platform/sec"
)

// # Verification Code Issuance

// IssueCode produces a fresh, unguessable activation code together with its
// absolute expiry (now + ttl).
//
// # TTL Policy
//
// Callers pass the ttl explicitly because two windows exist: a long one for
// first registration (VERIFY_CODE_TTL) and a shorter one for resends
// (RESEND_CODE_TTL). Both come from configuration.
func IssueCode(timeToLive time.Duration) (code string, expiresAt time.Time, err error) {
	code, err = sec.GenerateSecureToken(constants.VerificationCodeBytes)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, time.Now().Add(timeToLive), nil
}

// # Verification Code Checks

// CodeExpired reports whether a stored expiry has passed.
//
// A nil expiry is treated as expired: an account with no pending window must
// never be activatable, so absence fails safe.
func CodeExpired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return time.Now().After(*expiresAt)
}

// CodeValid reports whether a presented code may activate the account:
// the stored code must exist, match exactly, and be inside its window.
//
// The comparison is constant-time so response latency cannot be used to
// probe the stored code byte by byte.
func CodeValid(presented string, stored *string, expiresAt *time.Time) bool {
	if stored == nil || presented == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(*stored)) != 1 {
		return false
	}
	return !CodeExpired(expiresAt)
}
