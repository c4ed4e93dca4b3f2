// Package cache keeps recently decoded volumes in memory so that switching
// back to a file does not decode it again.
package cache

import (
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"niiexplorer/internal/models"
)

// Decoder reads a volume from a file path.
type Decoder interface {
	Decode(path string) (*models.Volume, error)
}

// VolumeCache wraps a Decoder with an in-memory, expiring cache keyed by
// absolute path. Decode errors are never cached.
type VolumeCache struct {
	decoder Decoder
	cache   *gocache.Cache
}

// NewVolumeCache creates a cache in front of decoder
func NewVolumeCache(decoder Decoder, ttl, cleanupInterval time.Duration) *VolumeCache {
	return &VolumeCache{
		decoder: decoder,
		cache:   gocache.New(ttl, cleanupInterval),
	}
}

// Decode returns the cached volume for path or decodes and caches it.
// Cached volumes are shared; callers must not modify them.
func (c *VolumeCache) Decode(path string) (*models.Volume, error) {
	key := cacheKey(path)
	if val, found := c.cache.Get(key); found {
		return val.(*models.Volume), nil
	}

	vol, err := c.decoder.Decode(path)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, vol)
	return vol, nil
}

// Forget drops path from the cache
func (c *VolumeCache) Forget(path string) {
	c.cache.Delete(cacheKey(path))
}

// Clear removes all cached volumes
func (c *VolumeCache) Clear() {
	c.cache.Flush()
}

// Len returns the number of cached volumes, including expired ones not yet swept
func (c *VolumeCache) Len() int {
	return c.cache.ItemCount()
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
