package cache

import (
	"time"
)

// CacheService stores short-lived markers shared between crawl runs, such as
// a source being blocked after answering 429.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error
}
