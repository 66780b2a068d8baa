// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages. The
// SnapshotProvider and Recorder interfaces let the catalogue store and the
// metrics layer plug in without creating circular imports.

// ErrNoProvider is returned by Engine.Select when no snapshot provider has
// been configured.
var ErrNoProvider = errors.New("selection: snapshot provider not set")

// Selection outcome labels reported to telemetry sinks.
const (
	// OutcomeStrict means the strict query produced the result.
	OutcomeStrict = "strict"
	// OutcomeFallback means a relaxation mode produced the result.
	OutcomeFallback = "fallback"
	// OutcomeEmpty means nothing was selected.
	OutcomeEmpty = "empty"
)

// SelectionRecord summarizes one completed selection for telemetry sinks.
type SelectionRecord struct {
	// Mode is the effective fallback mode the request ran with.
	Mode Fallback

	// Outcome is one of OutcomeStrict, OutcomeFallback, OutcomeEmpty.
	Outcome string

	// SnapshotItems is the size of the snapshot evaluated.
	SnapshotItems int

	// Candidates is the number of items left after hard filters.
	Candidates int

	// Returned is the number of selected items.
	Returned int

	// Duration is the selection latency.
	Duration time.Duration
}

// Recorder receives selection telemetry. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// RecordSelection is called once per evaluated selection. Cache hits
	// do not reach it.
	RecordSelection(rec SelectionRecord)

	// RecordCache is called once per cache lookup on cacheable requests.
	RecordCache(hit bool)
}

// Engine wraps the pure selection core with snapshot fetching, request
// defaulting, response caching, request IDs, structured logging and
// telemetry. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	provider SnapshotProvider
	recorder Recorder

	// Cache (simple in-memory TTL map, keyed by snapshot revision plus
	// the canonical request)
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	// Random source for deterministic shuffling (protected by rngMu)
	rng   *rand.Rand
	rngMu sync.Mutex

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
}

// cacheEntry holds a cached selection response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// EngineStats are cumulative counters for one Engine instance.
type EngineStats struct {
	// Requests is the total number of selection requests.
	Requests int64 `json:"requests"`

	// CacheHits is the number of responses served from cache.
	CacheHits int64 `json:"cache_hits"`

	// CacheMisses is the number of cacheable requests not in cache.
	CacheMisses int64 `json:"cache_misses"`

	// Errors is the number of failed requests.
	Errors int64 `json:"errors"`
}

// NewEngine creates a selection engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Use provided seed or default for determinism
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "selection").Logger(),
		cache:  make(map[string]cacheEntry),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for selection shuffling
	}, nil
}

// SetProvider sets the snapshot provider selections run against.
func (e *Engine) SetProvider(p SnapshotProvider) {
	e.provider = p
}

// SetRecorder sets the telemetry sink. A nil recorder disables telemetry.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// Select runs one selection against the current catalogue snapshot.
//
// The request is defaulted and clamped (limit, fallback mode, request ID),
// the snapshot is fetched from the provider, and the pure selection core is
// evaluated. Deterministic requests (Random unset) are served from a TTL
// cache keyed on the snapshot revision and the canonical request, so a
// catalogue mutation is never masked by a stale entry.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Select(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.requestLogger(req)
	logger.Debug().Msg("processing selection request")

	if e.provider == nil {
		e.errorCount.Add(1)
		return nil, ErrNoProvider
	}

	snap, err := e.provider.Snapshot(ctx)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	cacheable := e.config.Cache.Enabled && !req.Random
	var key string
	if cacheable {
		key = e.cacheKey(req, snap.Revision)
		if resp := e.checkCache(key); resp != nil {
			e.cacheHits.Add(1)
			e.recordCache(true)
			resp.Metadata.RequestID = req.RequestID
			resp.Metadata.CacheHit = true
			resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
			logger.Debug().Msg("cache hit")
			return resp, nil
		}
		e.cacheMisses.Add(1)
		e.recordCache(false)
	}

	out := runSelection(snap.Items, req.Query, e.optionsFor(req), req.IncludeOrder)

	resp := &Response{
		Items: out.items,
		Metadata: ResponseMetadata{
			RequestID:        req.RequestID,
			SnapshotRevision: snap.Revision,
			Candidates:       out.candidates,
			StrictMatches:    out.strictMatches,
			Fallback:         req.Fallback.String(),
			FallbackApplied:  out.fallbackApplied,
			LatencyMS:        time.Since(start).Milliseconds(),
			Timestamp:        time.Now(),
		},
	}

	if cacheable && key != "" {
		e.storeCache(key, resp)
	}

	e.recordSelection(SelectionRecord{
		Mode:          req.Fallback,
		Outcome:       outcomeOf(out),
		SnapshotItems: len(snap.Items),
		Candidates:    out.candidates,
		Returned:      len(out.items),
		Duration:      time.Since(start),
	})

	logger.Debug().
		Int("candidates", out.candidates).
		Int("strict_matches", out.strictMatches).
		Bool("fallback_applied", out.fallbackApplied).
		Int("returned", len(out.items)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("selection complete")

	return resp, nil
}

// Stats returns the engine's cumulative counters.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		Errors:      e.errorCount.Load(),
	}
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// InvalidateCache drops every cached response. Revision keying already
// prevents stale reads after catalogue mutations; this only reclaims memory
// eagerly.
func (e *Engine) InvalidateCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.cache = make(map[string]cacheEntry)
	e.logger.Debug().Msg("cache cleared")
}

// prepareRequest applies defaults, clamps the limit and canonicalizes the
// parts of the request that feed the cache key.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	if req.Limit <= 0 {
		req.Limit = e.config.DefaultLimit
	}
	if req.Limit > e.config.MaxLimit {
		req.Limit = e.config.MaxLimit
	}

	// The zero mode inherits the configured default; an explicit "none"
	// is indistinguishable from an unset field, as with any defaulted
	// request parameter.
	if req.Fallback == FallbackNone {
		req.Fallback = e.config.DefaultFallback
	}

	req.Query = req.Query.Canonical()
	req.IncludeOrder = NormalizeValues(req.IncludeOrder)

	if len(req.ExcludeIDs) > 0 {
		ids := append([]string(nil), req.ExcludeIDs...)
		sort.Strings(ids)
		req.ExcludeIDs = ids
	}

	return req
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) requestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("fallback", req.Fallback.String()).
		Int("limit", req.Limit).
		Bool("random", req.Random).
		Logger()
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) optionsFor(req Request) Options {
	opts := Options{
		Limit:      req.Limit,
		Random:     req.Random,
		Fallback:   req.Fallback,
		MediaType:  req.MediaType,
		Provider:   req.Provider,
		Search:     req.Search,
		ExcludeIDs: req.ExcludeIDs,
	}
	if req.Random {
		opts.Rand = e.requestRand()
	}
	return opts
}

// requestRand derives an independent source per request so concurrent
// selections never share rand.Rand state. The derivation consumes the
// engine source under the mutex, keeping the sequence deterministic for a
// given seed and request order.
func (e *Engine) requestRand() *rand.Rand {
	e.rngMu.Lock()
	seed := e.rng.Int63()
	e.rngMu.Unlock()
	return rand.New(rand.NewSource(seed)) //nolint:gosec // math/rand is fine for selection shuffling
}

// cacheKey builds the cache key for a prepared request. The request parts
// are serialized in fixed struct order; the snapshot revision prefixes the
// key so mutations start a fresh key space.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheKey(req Request, revision int64) string {
	k := struct {
		Revision  int64         `json:"rev"`
		Query     TagQueryGroup `json:"query"`
		Order     []string      `json:"order,omitempty"`
		Limit     int           `json:"limit"`
		Fallback  string        `json:"fallback"`
		MediaType string        `json:"media_type,omitempty"`
		Provider  string        `json:"provider,omitempty"`
		Search    string        `json:"search,omitempty"`
		Exclude   []string      `json:"exclude,omitempty"`
	}{
		Revision:  revision,
		Query:     req.Query,
		Order:     req.IncludeOrder,
		Limit:     req.Limit,
		Fallback:  req.Fallback.String(),
		MediaType: req.MediaType,
		Provider:  req.Provider,
		Search:    req.Search,
		Exclude:   req.ExcludeIDs,
	}
	b, err := json.Marshal(k)
	if err != nil {
		// An unserializable request is simply not cached.
		return ""
	}
	return "sel:" + string(b)
}

// checkCache returns a copy of a live cached response, or nil.
func (e *Engine) checkCache(key string) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		return nil
	}

	items := make([]Item, len(entry.response.Items))
	copy(items, entry.response.Items)
	return &Response{Items: items, Metadata: entry.response.Metadata}
}

// storeCache stores a response, evicting expired entries when full.
func (e *Engine) storeCache(key string, resp *Response) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}
	if len(e.cache) >= e.config.Cache.MaxEntries {
		// Still full after eviction: drop the write rather than grow
		// without bound.
		return
	}

	e.cache[key] = cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(e.config.Cache.TTL),
	}
}

// evictExpiredLocked removes expired cache entries.
// Must be called with cacheMu held.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}

func (e *Engine) recordSelection(rec SelectionRecord) {
	if e.recorder != nil {
		e.recorder.RecordSelection(rec)
	}
}

func (e *Engine) recordCache(hit bool) {
	if e.recorder != nil {
		e.recorder.RecordCache(hit)
	}
}

func outcomeOf(out outcome) string {
	switch {
	case len(out.items) == 0:
		return OutcomeEmpty
	case out.fallbackApplied:
		return OutcomeFallback
	default:
		return OutcomeStrict
	}
}
