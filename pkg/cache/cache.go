// Package cache stores assistant replies so a dialogue is only sent to the
// remote assistant once.
//
// Entries are opaque bytes with an optional expiry. [FileCache] keeps them
// under ~/.cache/keygraph; [NullCache] disables caching. Keys come from
// [ReplyKey], which hashes the assistant id together with the dialogue.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. Expired or unreadable entries are
	// reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	Close() error
}

// DefaultDir returns ~/.cache/keygraph.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "keygraph"), nil
}

// ReplyKey is the key of the reply of assistantID to dialogue.
func ReplyKey(assistantID, dialogue string) string {
	return hashKey("reply", assistantID, dialogue)
}
