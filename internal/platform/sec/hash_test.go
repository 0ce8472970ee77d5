// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-app/inkwell/internal/platform/sec"
)

/*
TestHasher_RoundTrip verifies that any hashed password verifies against its
own digest.
*/
func TestHasher_RoundTrip(t *testing.T) {
	hasher := sec.NewHasher(bcrypt.MinCost) // MinCost keeps the suite fast.

	passwords := []string{
		"secret1",
		"correct horse battery staple",
		"pässwörd-wíth-ünïcode",
		"",
	}

	for _, password := range passwords {
		digest, err := hasher.HashPassword(password)
		require.NoError(t, err)

		assert.True(t, hasher.CheckPasswordHash(password, digest))
		assert.False(t, hasher.CheckPasswordHash(password+"x", digest))
	}
}

/*
TestHasher_DigestIsSalted verifies the digest never equals the input and two
hashes of the same password differ (random salt).
*/
func TestHasher_DigestIsSalted(t *testing.T) {
	hasher := sec.NewHasher(bcrypt.MinCost)

	first, err := hasher.HashPassword("secret1")
	require.NoError(t, err)
	second, err := hasher.HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", first)
	assert.NotEqual(t, first, second)
}

/*
TestHasher_MalformedDigest verifies that verification treats garbage or
missing digests as a plain non-match, never a panic or error.
*/
func TestHasher_MalformedDigest(t *testing.T) {
	hasher := sec.NewHasher(bcrypt.MinCost)

	tests := []struct {
		name   string
		digest string
	}{
		{"empty_digest", ""},
		{"not_bcrypt", "plaintext-not-a-digest"},
		{"truncated", "$2a$10$tooshort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, hasher.CheckPasswordHash("secret1", tt.digest))
		})
	}
}

/*
TestNewHasher_CostClamping verifies out-of-range costs still produce a
working hasher.
*/
func TestNewHasher_CostClamping(t *testing.T) {
	hasher := sec.NewHasher(99)

	digest, err := hasher.HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, hasher.CheckPasswordHash("secret1", digest))
}
