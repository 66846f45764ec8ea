package cache

import "fmt"

// Options selects a cache backend for Open.
type Options struct {
	Type  string // memory or redis
	Redis RedisConfig
}

// Open returns the cache for the configured backend.
func Open(opts Options) (Cache, error) {
	switch opts.Type {
	case "redis":
		c, err := NewRedisCache(opts.Redis)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "memory", "":
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", opts.Type)
	}
}
