// Package kv abstracts the ephemeral state backend shared by the context
// store, the debounce gate, the dedup guard and the sector queues.
// The primary backend is Redis; an in-process fallback keeps the gateway
// functional (with degraded durability) when Redis is unreachable.
package kv

import (
	"context"
	"time"
)

// Backend is a minimal key-value + list + set surface. Each individual
// operation is atomic with respect to other operations on the same key;
// no multi-operation transactions are offered or needed.
type Backend interface {
	// Get returns the value for key, reporting presence.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// ListPush appends value to the tail of the list at key.
	ListPush(ctx context.Context, key, value string) error
	// ListPop removes and returns the head of the list at key.
	ListPop(ctx context.Context, key string) (string, bool, error)
	// ListRemove deletes all occurrences of value from the list at key.
	ListRemove(ctx context.Context, key, value string) error
	ListLen(ctx context.Context, key string) (int64, error)

	// SetAdd / SetRemove / SetMembers operate on an unordered string set.
	SetAdd(ctx context.Context, key, member string) error
	SetRemove(ctx context.Context, key, member string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
}
