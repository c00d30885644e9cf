// Package kv defines the get/set/delete store abstraction the security and
// data layers persist through, with in-memory, JSON-file, and Postgres
// backends. Values are opaque byte slices; callers handle serialization.
package kv

import "context"

// Store is the minimal persistence contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the value for key, or common.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
}
