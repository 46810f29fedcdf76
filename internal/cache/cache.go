// Package cache provides caching implementations for Petrel.
package cache

import (
	"fmt"

	"github.com/opensource-climate/petrel/internal/domain"
)

// New creates a new cache based on configuration.
// The standalone profile uses the in-process LRU cache; the cluster
// profile uses Redis.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
