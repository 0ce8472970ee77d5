// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwell-app/inkwell/internal/platform/constants"
)

// CooldownStore throttles repeated activation-code resends per account.
//
// # Why best-effort?
//
// The cooldown is a hardening measure on top of the core flow, not part of
// its correctness. Implementations may fail open: if the backing store is
// unreachable the resend proceeds rather than locking users out of
// activation.
type CooldownStore interface {
	// Acquire attempts to start a cooldown window for the account.
	// It returns false when a window is already in place.
	Acquire(ctx context.Context, accountID string, window time.Duration) (bool, error)
}

// RedisCooldownStore implements [CooldownStore] on Redis using SET NX with
// a TTL, which makes the acquire atomic across all API instances.
type RedisCooldownStore struct {
	client *redis.Client
}

// NewRedisCooldownStore creates a Redis implementation of [CooldownStore].
func NewRedisCooldownStore(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

// Acquire sets auth:verify_cooldown:<id> if absent. The key expires on its
// own; there is no explicit release.
func (store *RedisCooldownStore) Acquire(ctx context.Context, accountID string, window time.Duration) (bool, error) {
	key := constants.RedisPrefixResendCooldown + accountID

	acquired, err := store.client.SetNX(ctx, key, time.Now().Unix(), window).Result()
	if err != nil {
		return false, fmt.Errorf("auth_cooldown_acquire_failed: %w", err)
	}

	return acquired, nil
}
