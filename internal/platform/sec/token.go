// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a hex-encoded random string built from
// byteLength bytes of OS entropy.
//
// # Usage
//
// Used for opaque, unguessable secrets that live outside the JWT world:
// account activation codes and similar single-purpose tokens. The returned
// string is twice byteLength characters long.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}
