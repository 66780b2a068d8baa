// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"math/rand"
	"sort"
)

// Options are the per-call selection options consumed by Select. Hard
// filters (MediaType, Provider, Search, ExcludeIDs) are applied before tag
// evaluation and stay in force through every fallback level.
type Options struct {
	// Limit bounds the result set and must be positive.
	Limit int

	// Random shuffles strict matches instead of ordering by recency.
	// Fallback results are never shuffled.
	Random bool

	// Fallback is the relaxation mode when the strict query has no
	// matches.
	Fallback Fallback

	// MediaType restricts candidates to one media type. Comparison is
	// case-insensitive.
	MediaType string

	// Provider restricts candidates to one provider, compared exactly.
	Provider string

	// Search restricts candidates to items whose title or description
	// contains the term, case-insensitively.
	Search string

	// ExcludeIDs removes specific items before evaluation.
	ExcludeIDs []string

	// Rand is the source for Random selections. Nil uses the package
	// global source.
	Rand *rand.Rand
}

// Select runs one selection: hard filtering, strict boolean evaluation,
// ordering, and fallback relaxation when the strict query matches nothing.
//
// The group is canonicalized internally, so raw display-form filters are
// accepted. includeOrder fixes the relaxation priority of include
// categories; nil means the group's AllOf order. Strict matches are ordered
// most recently updated first (title, then ID, breaking ties) unless
// opts.Random is set. The result never exceeds opts.Limit.
//
// Select never mutates items and is deterministic for Random=false.
func Select(items []Item, group TagQueryGroup, opts Options, includeOrder []string) []Item {
	return runSelection(items, group, opts, includeOrder).items
}

// outcome carries the selected items plus the phase diagnostics the engine
// reports in response metadata.
type outcome struct {
	items           []Item
	candidates      int
	strictMatches   int
	fallbackApplied bool
}

func runSelection(items []Item, group TagQueryGroup, opts Options, includeOrder []string) outcome {
	if opts.Limit <= 0 {
		return outcome{}
	}

	canonical := group.Canonical()
	order := NormalizeValues(includeOrder)

	tags := make([]TagIndex, len(items))
	for i := range items {
		tags[i] = BuildTagIndex(items[i].Tags)
	}

	hard := newHardFilter(opts)
	passes := func(i int) bool { return hard.passes(&items[i]) }

	candidates := 0
	strict := make([]int, 0, len(items))
	for i := range items {
		if !passes(i) {
			continue
		}
		candidates++
		if canonical.Match(tags[i]) {
			strict = append(strict, i)
		}
	}

	if len(strict) > 0 {
		if opts.Random {
			shuffleIndices(strict, opts.Rand)
		} else {
			sort.SliceStable(strict, func(a, b int) bool {
				return moreRecent(items, strict[a], strict[b])
			})
		}
		return outcome{
			items:         collectItems(items, bound(strict, opts.Limit)),
			candidates:    candidates,
			strictMatches: len(strict),
		}
	}

	if opts.Fallback == FallbackNone {
		return outcome{candidates: candidates}
	}

	picked := PlanFallback(FallbackPlan{
		Tags:         tags,
		Group:        canonical,
		Limit:        opts.Limit,
		Mode:         opts.Fallback,
		IncludeOrder: order,
		PassesHard:   passes,
		Tiebreak: func(a, b int) bool {
			return moreRecent(items, a, b)
		},
	})
	return outcome{
		items:           collectItems(items, picked),
		candidates:      candidates,
		fallbackApplied: true,
	}
}

// moreRecent orders items most recently updated first, breaking ties by
// title then ID so equal timestamps still order deterministically.
func moreRecent(items []Item, a, b int) bool {
	ia, ib := &items[a], &items[b]
	if !ia.UpdatedAt.Equal(ib.UpdatedAt) {
		return ia.UpdatedAt.After(ib.UpdatedAt)
	}
	if ia.Title != ib.Title {
		return ia.Title < ib.Title
	}
	return ia.ID < ib.ID
}

func shuffleIndices(indices []int, r *rand.Rand) {
	swap := func(a, b int) { indices[a], indices[b] = indices[b], indices[a] }
	if r != nil {
		r.Shuffle(len(indices), swap)
		return
	}
	rand.Shuffle(len(indices), swap)
}

func collectItems(items []Item, indices []int) []Item {
	out := make([]Item, 0, len(indices))
	for _, i := range indices {
		out = append(out, items[i])
	}
	return out
}
