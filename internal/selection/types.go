// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"context"
	"time"
)

// Tag is one (category, value) pair attached to a catalogue item. Raw
// display forms are allowed; both parts are normalized before evaluation.
type Tag struct {
	// Category is the tag category, such as "mood" or "owner".
	Category string `json:"category"`

	// Value is the tag value within the category.
	Value string `json:"value"`
}

// Item is the catalogue view the engine evaluates. Items arrive in a
// snapshot supplied by the caller; the engine never mutates them.
type Item struct {
	// ID is the unique item identifier.
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// MediaType is the catalogue media type (playlist, audiobook, radio,
	// podcast, album, track).
	MediaType string `json:"media_type"`

	// Provider identifies the upstream system the item plays from.
	Provider string `json:"provider,omitempty"`

	// SourceURI locates the item on the provider.
	SourceURI string `json:"source_uri,omitempty"`

	// Description is free-form descriptive text.
	Description string `json:"description,omitempty"`

	// DurationMin is the playback duration in minutes, when known.
	DurationMin int `json:"duration_min,omitempty"`

	// UpdatedAt is the last catalogue modification time. Strict results
	// are ordered most recent first.
	UpdatedAt time.Time `json:"updated_at"`

	// Tags are the item's (category, value) pairs.
	Tags []Tag `json:"tags,omitempty"`
}

// TagIndex is an item's tags keyed by normalized category, each category
// holding the set of normalized values. Built once per selection.
type TagIndex map[string]map[string]struct{}

// BuildTagIndex indexes an item's tags for evaluation. Tags whose category
// or value normalizes to empty are skipped.
func BuildTagIndex(tags []Tag) TagIndex {
	idx := make(TagIndex, len(tags))
	for _, t := range tags {
		cat := Normalize(t.Category)
		val := Normalize(t.Value)
		if cat == "" || val == "" {
			continue
		}
		vals, ok := idx[cat]
		if !ok {
			vals = make(map[string]struct{})
			idx[cat] = vals
		}
		vals[val] = struct{}{}
	}
	return idx
}

// Snapshot is a fully materialized catalogue state a selection runs against.
type Snapshot struct {
	// Items are the candidate items.
	Items []Item `json:"items"`

	// Revision increases with every catalogue mutation and keys the
	// engine's response cache.
	Revision int64 `json:"revision"`

	// TakenAt is when the snapshot was produced.
	TakenAt time.Time `json:"taken_at"`
}

// SnapshotProvider supplies the catalogue snapshot a selection runs against.
// The returned snapshot must stay stable for the duration of the call; the
// engine never mutates it.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Request describes one selection operation.
type Request struct {
	// Query is the boolean tag query. An empty group matches everything.
	Query TagQueryGroup `json:"query"`

	// RequestID is a unique identifier for tracing. Generated when empty.
	RequestID string `json:"request_id,omitempty"`

	// IncludeOrder fixes the relaxation priority of include categories,
	// highest priority first. Empty means the Query.AllOf order.
	IncludeOrder []string `json:"include_order,omitempty"`

	// Limit bounds the result set. Zero means the engine default; values
	// above the engine maximum are clamped.
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1"`

	// Random shuffles strict matches instead of ordering by recency.
	// Randomized requests bypass the response cache.
	Random bool `json:"random,omitempty"`

	// Fallback is the relaxation mode when the strict query has no
	// matches.
	Fallback Fallback `json:"fallback,omitempty"`

	// MediaType restricts candidates to one media type.
	MediaType string `json:"media_type,omitempty"`

	// Provider restricts candidates to one provider.
	Provider string `json:"provider,omitempty"`

	// Search restricts candidates to titles or descriptions containing
	// the term, case-insensitively.
	Search string `json:"search,omitempty"`

	// ExcludeIDs removes specific items before evaluation. Exclusions
	// hold through every fallback level.
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
}

// Response carries the selected items plus execution metadata.
type Response struct {
	// Items is the ordered selection.
	Items []Item `json:"items"`

	// Metadata describes how the selection was produced.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a selection was produced.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// SnapshotRevision is the catalogue revision the selection ran on.
	SnapshotRevision int64 `json:"snapshot_revision"`

	// Candidates is the number of items left after hard filters.
	Candidates int `json:"candidates"`

	// StrictMatches is the number of items the strict query matched.
	StrictMatches int `json:"strict_matches"`

	// Fallback is the relaxation mode the request ran with.
	Fallback string `json:"fallback"`

	// FallbackApplied indicates the strict query was empty and a
	// relaxation mode produced the result.
	FallbackApplied bool `json:"fallback_applied"`

	// CacheHit indicates the response was served from cache.
	CacheHit bool `json:"cache_hit"`

	// LatencyMS is the selection latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}
