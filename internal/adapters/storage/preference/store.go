// Package preference is a small key-value store for per-owner settings.
package preference

import "context"

// Store reads and writes opaque string values by key.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
