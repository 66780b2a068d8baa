// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"fmt"
	"time"
)

// DefaultReservedKeys are the flat query-string keys carrying request
// options rather than tag filters. The parser never treats them as
// categories.
var DefaultReservedKeys = []string{
	"media_type",
	"provider",
	"search",
	"random",
	"limit",
	"fallback",
	"exclude_ids",
}

// Config contains all configuration for the selection engine.
type Config struct {
	// DefaultLimit is the result bound applied when a request does not
	// carry one. Default: 10.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps the per-request limit; larger requests are clamped.
	// Default: 100.
	MaxLimit int `json:"max_limit"`

	// DefaultFallback is the relaxation mode applied when a request does
	// not name one. Default: FallbackNone.
	DefaultFallback Fallback `json:"default_fallback"`

	// ReservedKeys are the flat-encoding keys excluded from tag parsing.
	// Default: DefaultReservedKeys.
	ReservedKeys []string `json:"reserved_keys"`

	// Seed is the random seed for deterministic shuffling.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// CacheConfig contains response caching parameters. Only deterministic
// requests (Random unset) are cached.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 1000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit:    10,
		MaxLimit:        100,
		DefaultFallback: FallbackNone,
		ReservedKeys:    append([]string(nil), DefaultReservedKeys...),
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
		Seed: 42, // Default seed for determinism
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit must be >= default_limit, got %d < %d", c.MaxLimit, c.DefaultLimit)
	}
	switch c.DefaultFallback {
	case FallbackNone, FallbackSoft, FallbackAggressive, FallbackForce:
	default:
		return fmt.Errorf("default_fallback is not a known mode: %d", c.DefaultFallback)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.ReservedKeys = append([]string(nil), c.ReservedKeys...)
	return &clone
}

// ReservedSet returns the reserved keys as a lookup set, in the form
// ParseTagFilters expects.
func (c *Config) ReservedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ReservedKeys))
	for _, k := range c.ReservedKeys {
		set[k] = struct{}{}
	}
	return set
}
