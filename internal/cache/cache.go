package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores fetched feed payloads keyed by source URL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from a feed URL.
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "triage:v1:" + hex.EncodeToString(hash[:])
}
