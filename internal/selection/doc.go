// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

// Package selection implements a boolean tag-selection engine for media
// catalogues.
//
// # Query Model
//
// Items carry (category, value) tag pairs. A query is a recursive boolean
// group over those tags:
//
//   - AllOf: every filter must match (AND across categories)
//   - within one filter, values are OR-combined (any value in the category)
//   - AnyOf: at least one nested group must match when present
//   - NoneOf: strict exclusions that are never relaxed
//
// An empty group matches every item. All tokens are normalized (trimmed,
// case-folded, accents stripped) before comparison, so "Café" and "cafe"
// are the same tag.
//
// # Fallback
//
// When the strict query yields no matches, a fallback mode decides what to
// return instead:
//
//   - none: nothing
//   - soft: items matching at least one include filter, ranked by match
//     count and include-order priority
//   - aggressive: retry with trailing include categories removed until a
//     level matches; exclusions stay in force
//   - force: accumulate items across relaxation levels until the limit is
//     reached
//
// Exclusions (NoneOf) and hard filters (media type, provider, search,
// excluded IDs) hold through every fallback level.
//
// # Usage
//
//	eng, err := selection.NewEngine(selection.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	eng.SetProvider(store)
//
//	resp, err := eng.Select(ctx, selection.Request{
//	    Query: selection.TagQueryGroup{
//	        AllOf: []selection.TagFilter{{Category: "mood", Values: []string{"calme"}}},
//	    },
//	    Limit:    5,
//	    Fallback: selection.FallbackAggressive,
//	})
//
// The pure entry point Select operates on an explicit item slice and is
// side-effect free; Engine adds snapshot fetching, defaulting, caching,
// logging and metrics around it.
//
// # Thread Safety
//
// The pure functions are safe for unrestricted concurrent use. Engine is
// safe for concurrent use: the seeded random source and the response cache
// are mutex-guarded.
package selection
