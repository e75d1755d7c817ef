package catalogqa

import "context"

// Cache is a key-value store with per-field hash semantics. Every Set is a
// single atomic write; writing the same field twice overwrites it.
type Cache interface {
	// Get returns the value stored under key and field.
	// Returns ENOTFOUND if the field does not exist.
	Get(ctx context.Context, key, field string) ([]byte, error)

	// Set stores value under key and field.
	Set(ctx context.Context, key, field string, value []byte) error

	// GetAll returns every field stored under key.
	// Returns an empty map if the key does not exist.
	GetAll(ctx context.Context, key string) (map[string][]byte, error)
}
