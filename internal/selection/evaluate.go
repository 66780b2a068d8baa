// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import "strings"

// matchesFilter reports whether the indexed item carries at least one of
// the filter's values in the filter's category. A missing or empty category
// never matches.
func matchesFilter(idx TagIndex, f TagFilter) bool {
	vals, ok := idx[f.Category]
	if !ok || len(vals) == 0 {
		return false
	}
	for _, v := range f.Values {
		if _, ok := vals[v]; ok {
			return true
		}
	}
	return false
}

// Match evaluates the group against one indexed item. The group must be in
// canonical form (see Canonical); the index side is normalized by
// BuildTagIndex.
//
// NoneOf is checked first and short-circuits: an excluded item can never
// match regardless of the rest of the group.
func (g TagQueryGroup) Match(idx TagIndex) bool {
	for _, f := range g.NoneOf {
		if matchesFilter(idx, f) {
			return false
		}
	}
	for _, f := range g.AllOf {
		if !matchesFilter(idx, f) {
			return false
		}
	}
	if len(g.AnyOf) > 0 {
		for _, sub := range g.AnyOf {
			if sub.Match(idx) {
				return true
			}
		}
		return false
	}
	return true
}

// hardFilter is the non-tag candidate gate: media type, provider, search
// term and explicit ID exclusions. Hard filters are applied before tag
// evaluation and stay in force through every fallback level.
type hardFilter struct {
	mediaType string
	provider  string
	search    string
	exclude   map[string]struct{}
}

func newHardFilter(opts Options) hardFilter {
	h := hardFilter{
		mediaType: strings.TrimSpace(opts.MediaType),
		provider:  strings.TrimSpace(opts.Provider),
		search:    strings.ToLower(strings.TrimSpace(opts.Search)),
	}
	if len(opts.ExcludeIDs) > 0 {
		h.exclude = make(map[string]struct{}, len(opts.ExcludeIDs))
		for _, id := range opts.ExcludeIDs {
			h.exclude[id] = struct{}{}
		}
	}
	return h
}

func (h hardFilter) passes(item *Item) bool {
	if h.mediaType != "" && !strings.EqualFold(item.MediaType, h.mediaType) {
		return false
	}
	if h.provider != "" && item.Provider != h.provider {
		return false
	}
	if h.search != "" {
		title := strings.ToLower(item.Title)
		desc := strings.ToLower(item.Description)
		if !strings.Contains(title, h.search) && !strings.Contains(desc, h.search) {
			return false
		}
	}
	if h.exclude != nil {
		if _, ok := h.exclude[item.ID]; ok {
			return false
		}
	}
	return true
}
