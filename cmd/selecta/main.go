// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

// Command selecta runs one boolean tag selection against a catalogue
// snapshot and prints the ranked result as JSON on stdout. Logs go to
// stderr, so the output can be piped.
//
// The catalogue is loaded from a JSON fixture file, either the path in
// the configuration (catalog.snapshot_path / SNAPSHOT_PATH) or the
// -snapshot flag. The query arrives as a flat query string (-query) or
// as a structured payload file (-payload, "-" for stdin). With neither,
// the empty query matches the whole catalogue and the most recently
// updated items win.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SELECTION_*, SNAPSHOT_PATH, LOG_*)
//   - Config file (config.yaml, or the path in SELECTA_CONFIG)
//   - Built-in defaults
//
// # Query Strings
//
// Flat query strings follow the catalogue convention: `category=v1,v2`
// pairs select items tagged with any of the values, the optional `tag_`
// prefix disambiguates categories, and `not_` / `not_tag_` prefixes
// exclude. Reserved keys (media_type, provider, search, random, limit,
// fallback, exclude_ids) carry request options instead of tag filters.
// Explicit flags take precedence over reserved keys.
//
// # Example Usage
//
// Ten most recent items tagged for papa with an energetic mood:
//
//	selecta -snapshot catalogue.json -query "owner=papa&mood=energique"
//
// Structured payload with nested boolean groups:
//
//	selecta -snapshot catalogue.json -payload request.json
//
// Relaxed selection when the strict query is too narrow:
//
//	selecta -snapshot catalogue.json -query "owner=papa&mood=calme" \
//	  -fallback aggressive -limit 5
//
// The command exits non-zero on configuration, fixture or payload
// errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/mediatheque/selecta/internal/catalog"
	"github.com/mediatheque/selecta/internal/config"
	"github.com/mediatheque/selecta/internal/logging"
	"github.com/mediatheque/selecta/internal/metrics"
	"github.com/mediatheque/selecta/internal/selection"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	selCfg, err := cfg.SelectionConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build engine configuration")
	}

	engineLogger := logging.With().Str("component", "engine").Logger()
	engine, err := selection.NewEngine(selCfg, engineLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create selection engine")
	}
	engine.SetRecorder(metrics.NewRecorder())

	// The -snapshot flag overrides the configured fixture path.
	snapshotPath := cfg.Catalog.SnapshotPath
	if opts.set["snapshot"] {
		snapshotPath = opts.snapshot
	}
	if snapshotPath == "" {
		logging.Fatal().Msg("No catalogue snapshot configured (use -snapshot or catalog.snapshot_path)")
	}

	store := catalog.NewMemoryStore()
	count, err := catalog.LoadFile(snapshotPath, store)
	if err != nil {
		logging.Fatal().Err(err).Str("path", snapshotPath).Msg("Failed to load catalogue fixture")
	}
	logging.Info().Int("items", count).Str("path", snapshotPath).Msg("Catalogue snapshot loaded")

	engine.SetProvider(store)

	req, err := buildRequest(opts, selCfg.ReservedSet())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build selection request")
	}

	// Snapshot fetching honours cancellation; a one-shot run only needs
	// it for interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := engine.Select(ctx, req)
	if err != nil {
		logging.Fatal().Err(err).Msg("Selection failed")
	}

	logging.Info().
		Str("request_id", resp.Metadata.RequestID).
		Bool("fallback_applied", resp.Metadata.FallbackApplied).
		Int("items", len(resp.Items)).
		Msg("Selection complete")

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to encode response")
	}
	fmt.Println(string(out))
}
