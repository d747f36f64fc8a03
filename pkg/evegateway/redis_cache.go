package evegateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-standings/pkg/database"

	"github.com/redis/go-redis/v9"
)

// RedisCacheManager implements CacheManager using Redis for persistence
type RedisCacheManager struct {
	redis *database.Redis
	ctx   context.Context
}

// NewRedisCacheManager creates a new Redis-based cache manager
func NewRedisCacheManager(redis *database.Redis) *RedisCacheManager {
	return &RedisCacheManager{
		redis: redis,
		ctx:   context.Background(),
	}
}

func (r *RedisCacheManager) cacheKey(key string) string {
	return fmt.Sprintf("esi:cache:%s", key)
}

func (r *RedisCacheManager) getEntry(key string) (*CacheEntry, error) {
	entryJSON, err := r.redis.Get(r.ctx, r.cacheKey(key))
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return &entry, nil
}

func (r *RedisCacheManager) putEntry(key string, entry *CacheEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	ttl := time.Until(entry.Expires)
	if ttl < 0 {
		ttl = 5 * time.Second // Minimum TTL
	}

	return r.redis.Set(r.ctx, r.cacheKey(key), entryJSON, ttl)
}

// Get retrieves data from Redis cache
func (r *RedisCacheManager) Get(key string) ([]byte, bool, error) {
	entry, err := r.getEntry(key)
	if err != nil || entry == nil {
		return nil, false, err
	}

	if entry.Expires.Before(time.Now()) {
		r.redis.Delete(r.ctx, r.cacheKey(key))
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// GetForNotModified retrieves data from Redis cache even if expired (for 304 responses)
func (r *RedisCacheManager) GetForNotModified(key string) ([]byte, bool, error) {
	entry, err := r.getEntry(key)
	if err != nil || entry == nil {
		return nil, false, err
	}

	return entry.Data, true, nil
}

// RefreshExpiry updates the expiry time of a cached entry in Redis (for 304 responses)
func (r *RedisCacheManager) RefreshExpiry(key string, headers http.Header) error {
	entry, err := r.getEntry(key)
	if err != nil || entry == nil {
		return err
	}

	entry.Expires = expiresFromHeaders(headers)
	return r.putEntry(key, entry)
}

// Set stores data in Redis cache
func (r *RedisCacheManager) Set(key string, data []byte, headers http.Header) error {
	entry := &CacheEntry{
		Data:         data,
		ETag:         headers.Get("ETag"),
		LastModified: headers.Get("Last-Modified"),
		Expires:      expiresFromHeaders(headers),
	}

	return r.putEntry(key, entry)
}

// SetConditionalHeaders sets conditional headers if cached data exists in Redis
func (r *RedisCacheManager) SetConditionalHeaders(req *http.Request, key string) error {
	entry, err := r.getEntry(key)
	if err != nil || entry == nil {
		return err
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	}
	if entry.LastModified != "" {
		req.Header.Set("If-Modified-Since", entry.LastModified)
	}

	return nil
}
