// Package cache stores raw fetched payloads between runs. The
// pipeline always reprocesses the full payload from scratch; only the
// bytes on the wire are cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the payload store interface.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a source URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "mandat:v1:" + hex.EncodeToString(hash[:])
}
