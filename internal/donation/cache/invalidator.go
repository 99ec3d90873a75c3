// Package cache signals the external read-side cache after a donation
// commits. The cache is invalidated, never consulted, by the recording flow;
// a missed invalidation is a staleness window, not a correctness violation.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Keys holding cached list responses served by the read-heavy endpoints.
// Kept in one place so the list handlers and the invalidator cannot drift.
const (
	KeyDonationList  = "lists:donations"
	KeyDonorList     = "lists:donors"
	KeyBloodBankList = "lists:blood-banks"
)

// Invalidator drops stale list caches from Redis.
type Invalidator struct {
	client *redis.Client
}

// NewInvalidator wraps a Redis client. A nil client yields a nil Invalidator,
// which callers treat as "no cache configured".
func NewInvalidator(client *redis.Client) *Invalidator {
	if client == nil {
		return nil
	}
	return &Invalidator{client: client}
}

// InvalidateDonationLists deletes every list cache a recorded donation makes
// stale. A single DEL keeps it one round trip.
func (i *Invalidator) InvalidateDonationLists(ctx context.Context) error {
	if err := i.client.Del(ctx, KeyDonationList, KeyDonorList, KeyBloodBankList).Err(); err != nil {
		return fmt.Errorf("invalidate donation list caches: %w", err)
	}
	return nil
}
