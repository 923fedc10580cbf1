package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been set or was deleted.
var ErrKeyNotFound = errors.New("key not found")

// KV is the durable key-value port the ledger and the admin gate persist through.
// Values are opaque strings; implementations must not interpret them.
type KV interface {
	// Get returns the value stored under key or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
