// Package storage defines the key-value persistence used to cache similarity matrices,
// alignment records and translations between runs.
package storage

import (
	"context"
	"strings"
)

// Storage is a byte-oriented key-value store. Keys are plain strings built with Key.
// Implementations provide no concurrent-writer protection beyond single statements;
// callers serialize read-modify-write cycles per chapter pair.
type Storage interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	// Count returns the number of keys starting with prefix ("" counts everything).
	Count(ctx context.Context, prefix string) (int64, error)

	Close() error
}

// Key joins key segments with "/".
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}
