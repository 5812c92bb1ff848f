// Package noncestore implements off-chain replay protection: an atomic
// check-and-mark-used contract over chain-scoped keys, backed either by an
// in-memory map (development/test) or a persistent table (production).
package noncestore

import "context"

// CheckResult is the outcome of a CheckAndMarkUsed call.
type CheckResult int

const (
	// Ok means this call is the first to claim the key; the caller may proceed.
	Ok CheckResult = iota
	// AlreadyUsed means a prior call already claimed the key within its TTL window.
	AlreadyUsed
)

// Store is the capability set every nonce-store backend implements. The
// in-memory and persistent variants are independent implementations sharing
// no code beyond the key/TTL helpers in this package.
type Store interface {
	// CheckAndMarkUsed atomically claims key for ttlSeconds. Exactly one
	// concurrent caller for the same key observes Ok; all others observe
	// AlreadyUsed. A transient backend error is returned as a non-nil error
	// with result left at its zero value. network is the CAIP-2 network the
	// key belongs to; persistent backends store it as its own attribute
	// rather than folding it into key.
	CheckAndMarkUsed(ctx context.Context, network, key string, ttlSeconds int64) (CheckResult, error)

	// IsUsed is an advisory read that MAY return a stale answer. It must
	// never be used in place of CheckAndMarkUsed for replay decisions.
	IsUsed(ctx context.Context, key string) (bool, error)

	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error

	// StoreType names the backend, e.g. "memory" or "dynamodb".
	StoreType() string
}
