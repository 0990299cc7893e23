package config

import "time"

// ShareCacheConfig defines settings for the Redis cache in front of
// public share-link views.  Only that anonymous read path is cached;
// authenticated reads always hit the database.
type ShareCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadShareCacheConfig reads the cache settings with a short default
// TTL so edits show up quickly for anonymous viewers.
func LoadShareCacheConfig() ShareCacheConfig {
	cfg := ShareCacheConfig{
		Enabled: envBool("SHARE_CACHE_ENABLED", true),
		TTL:     envDur("SHARE_CACHE_TTL", 30*time.Second),
		Prefix:  envStr("SHARE_CACHE_PREFIX", "share"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
