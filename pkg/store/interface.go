// Package store provides the key/value state storage for fleetman.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("key not found")

// Store is an opaque key/value store. There are no transactions and no
// conditional writes: concurrent writers race with last-writer-wins
// semantics, which the scheduled orchestrator and manual actions accept
// at current scale.
type Store interface {
	// Open initializes and opens the store.
	Open(path string) error

	// Close closes the store and releases resources.
	Close() error

	// Get retrieves the value for a key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes the value for a key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
