// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/internal/auth"
)

/*
TestIssueCode verifies that issued codes are unique and their expiry lands
at now + ttl.
*/
func TestIssueCode(t *testing.T) {
	before := time.Now()

	first, firstExpiry, err := auth.IssueCode(24 * time.Hour)
	require.NoError(t, err)
	second, _, err := auth.IssueCode(24 * time.Hour)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second, "two issuances must never collide")

	assert.True(t, firstExpiry.After(before.Add(23*time.Hour)))
	assert.True(t, firstExpiry.Before(before.Add(25*time.Hour)))
}

/*
TestCodeExpired covers the three expiry states: open window, passed window,
and no window at all.
*/
func TestCodeExpired(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"open_window", &future, false},
		{"passed_window", &past, true},
		{"nil_fails_safe", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.CodeExpired(tt.expiresAt))
		})
	}
}

/*
TestCodeValid verifies the full acceptance predicate: presence, exact
match, and window.
*/
func TestCodeValid(t *testing.T) {
	stored := "a1b2c3d4"
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name      string
		presented string
		stored    *string
		expiresAt *time.Time
		want      bool
	}{
		{"match_inside_window", "a1b2c3d4", &stored, &future, true},
		{"wrong_code", "ffffffff", &stored, &future, false},
		{"prefix_only", "a1b2", &stored, &future, false},
		{"empty_presented", "", &stored, &future, false},
		{"no_stored_code", "a1b2c3d4", nil, &future, false},
		{"match_but_expired", "a1b2c3d4", &stored, &past, false},
		{"match_but_nil_expiry", "a1b2c3d4", &stored, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.CodeValid(tt.presented, tt.stored, tt.expiresAt))
		})
	}
}
