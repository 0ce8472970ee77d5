// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt with a configurable cost factor.
//
// # Why a struct?
//
// The cost factor comes from configuration (BCRYPT_COST) so that production
// can raise it over time without code changes, while tests can lower it to
// keep suites fast. A cost outside bcrypt's supported range falls back to
// [bcrypt.DefaultCost].
type Hasher struct {
	cost int
}

// NewHasher constructs a [Hasher] with the given bcrypt cost factor.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// # Returns
//
// A salted digest string. An error here means the hashing primitive itself
// failed, which is unexpected and must be treated as an internal failure,
// never shown to the client.
func (hasher *Hasher) HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
//
// # Safety
//
// Any mismatch (including an empty or malformed digest) reports false
// rather than an error, so callers can treat "no match" uniformly. The
// comparison itself is constant-time inside bcrypt.
func (hasher *Hasher) CheckPasswordHash(plainTextPassword, existingHash string) bool {
	if existingHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
