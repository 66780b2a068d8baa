// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

// Package config loads and validates the Selecta application configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an optional
// YAML file (config.yaml, or the path in SELECTA_CONFIG), then environment
// variables. Later layers override earlier ones.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    // a missing file is fine; a malformed one is not
//	}
package config

import (
	"fmt"
	"time"

	"github.com/mediatheque/selecta/internal/selection"
	"github.com/mediatheque/selecta/internal/validation"
)

// Config is the root application configuration.
type Config struct {
	Engine  EngineConfig  `koanf:"engine"`
	Catalog CatalogConfig `koanf:"catalog"`
	Logging LoggingConfig `koanf:"logging"`
}

// EngineConfig configures the selection engine.
type EngineConfig struct {
	// DefaultLimit is the result bound applied when a request carries none.
	DefaultLimit int `koanf:"default_limit" validate:"min=1"`

	// MaxLimit caps the per-request limit; larger requests are clamped.
	MaxLimit int `koanf:"max_limit" validate:"min=1,gtefield=DefaultLimit"`

	// DefaultFallback names the relaxation mode applied when a request
	// does not carry one: none, soft, aggressive or force.
	DefaultFallback string `koanf:"default_fallback" validate:"omitempty,fallbackmode"`

	// ReservedKeys are the flat query-string keys never treated as tag
	// categories.
	ReservedKeys []string `koanf:"reserved_keys" validate:"omitempty,dive,categoryslug"`

	// Seed is the random seed for deterministic shuffling.
	Seed int64 `koanf:"seed"`

	// Cache configures the engine's response cache.
	Cache CacheConfig `koanf:"cache"`
}

// CacheConfig configures the engine's response cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// CatalogConfig configures the catalogue store.
type CatalogConfig struct {
	// SnapshotPath is an optional JSON fixture loaded into the store at
	// startup. Empty means start with an empty catalogue.
	SnapshotPath string `koanf:"snapshot_path"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from built-in defaults, an optional config file
// and environment variables. Later sources override earlier ones.
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Validate checks the configuration for errors. Field-level rules live in
// validate struct tags; conditional rules are checked here.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %w", verr)
	}

	if c.Engine.Cache.Enabled {
		if c.Engine.Cache.TTL <= 0 {
			return fmt.Errorf("engine.cache.ttl must be positive when the cache is enabled, got %v", c.Engine.Cache.TTL)
		}
		if c.Engine.Cache.MaxEntries < 1 {
			return fmt.Errorf("engine.cache.max_entries must be positive when the cache is enabled, got %d", c.Engine.Cache.MaxEntries)
		}
	}

	return nil
}

// SelectionConfig converts the engine section into the selection package's
// configuration type.
func (c *Config) SelectionConfig() (*selection.Config, error) {
	mode, err := selection.ParseFallback(c.Engine.DefaultFallback)
	if err != nil {
		return nil, fmt.Errorf("engine.default_fallback: %w", err)
	}

	return &selection.Config{
		DefaultLimit:    c.Engine.DefaultLimit,
		MaxLimit:        c.Engine.MaxLimit,
		DefaultFallback: mode,
		ReservedKeys:    append([]string(nil), c.Engine.ReservedKeys...),
		Seed:            c.Engine.Seed,
		Cache: selection.CacheConfig{
			Enabled:    c.Engine.Cache.Enabled,
			TTL:        c.Engine.Cache.TTL,
			MaxEntries: c.Engine.Cache.MaxEntries,
		},
	}, nil
}
