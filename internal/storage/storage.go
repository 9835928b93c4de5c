// Package storage persists per-browser key/value state, the server-side
// counterpart of a browser's local storage.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// KV is a namespaced string key/value store. Each browser gets its own
// namespace.
type KV interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, namespace string, keys ...string) error
}
