package evegateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CacheEntry represents a cached ESI response
type CacheEntry struct {
	Data         []byte
	ETag         string
	LastModified string
	Expires      time.Time
}

// ESIErrorLimits represents ESI error limit headers
type ESIErrorLimits struct {
	Remain int
	Reset  time.Time
	Window int
}

// CacheManager interface for caching operations
type CacheManager interface {
	Get(key string) ([]byte, bool, error)
	GetForNotModified(key string) ([]byte, bool, error)
	Set(key string, data []byte, headers http.Header) error
	RefreshExpiry(key string, headers http.Header) error
	SetConditionalHeaders(req *http.Request, key string) error
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// DefaultCacheManager implements basic in-memory caching
type DefaultCacheManager struct {
	cache      map[string]*CacheEntry
	cacheMutex sync.RWMutex
}

// NewDefaultCacheManager creates a new default cache manager
func NewDefaultCacheManager() *DefaultCacheManager {
	return &DefaultCacheManager{
		cache: make(map[string]*CacheEntry),
	}
}

// Get retrieves data from cache
func (c *DefaultCacheManager) Get(key string) ([]byte, bool, error) {
	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || entry.Expires.Before(time.Now()) {
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// GetForNotModified retrieves data from cache even if expired (for 304 responses)
func (c *DefaultCacheManager) GetForNotModified(key string) ([]byte, bool, error) {
	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// RefreshExpiry updates the expiry time of a cached entry (for 304 responses)
func (c *DefaultCacheManager) RefreshExpiry(key string, headers http.Header) error {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil
	}

	entry.Expires = expiresFromHeaders(headers)
	c.cache[key] = entry
	return nil
}

// Set stores data in cache
func (c *DefaultCacheManager) Set(key string, data []byte, headers http.Header) error {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &CacheEntry{
		Data:         data,
		ETag:         headers.Get("ETag"),
		LastModified: headers.Get("Last-Modified"),
		Expires:      expiresFromHeaders(headers),
	}
	return nil
}

// SetConditionalHeaders sets conditional headers if cached data exists
func (c *DefaultCacheManager) SetConditionalHeaders(req *http.Request, key string) error {
	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	}
	if entry.LastModified != "" {
		req.Header.Set("If-Modified-Since", entry.LastModified)
	}

	return nil
}

// expiresFromHeaders derives the cache expiry from ESI response headers.
// The Expires header is ESI's primary cache signal, Cache-Control max-age
// is the fallback, and 5 seconds the default.
func expiresFromHeaders(headers http.Header) time.Time {
	if expires := headers.Get("Expires"); expires != "" {
		if parsedTime, err := time.Parse(time.RFC1123, expires); err == nil {
			return parsedTime
		}
		if parsedTime, err := time.Parse(time.RFC1123Z, expires); err == nil {
			return parsedTime
		}
	}
	if cacheControl := headers.Get("Cache-Control"); cacheControl != "" {
		if maxAge := parseCacheControlMaxAge(cacheControl); maxAge > 0 {
			return time.Now().Add(time.Duration(maxAge) * time.Second)
		}
	}
	return time.Now().Add(5 * time.Second)
}

// parseCacheControlMaxAge is a simple parser for the max-age directive
func parseCacheControlMaxAge(cacheControl string) int {
	if !strings.Contains(cacheControl, "max-age=") {
		return 0
	}

	parts := strings.Split(cacheControl, "max-age=")
	if len(parts) < 2 {
		return 0
	}

	maxAgeStr := strings.Split(parts[1], ",")[0]
	maxAge, err := strconv.Atoi(strings.TrimSpace(maxAgeStr))
	if err != nil {
		return 0
	}

	return maxAge
}
