// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"net/url"
	"sort"
	"strings"
)

// Flat query-string key shapes, most specific prefix first. "not_tag_x"
// must be tested before "not_x": both would match, and the longer prefix
// wins.
const (
	prefixNotTag = "not_tag_"
	prefixNot    = "not_"
	prefixTag    = "tag_"
)

// Pair is one raw key-value pair from a flat query encoding, in source
// order. Order matters: it determines the relaxation priority of include
// categories.
type Pair struct {
	Key   string
	Value string
}

// ParsedTagFilters is the outcome of parsing a flat query encoding.
type ParsedTagFilters struct {
	// IncludeValues maps include categories to their accepted values.
	IncludeValues map[string]map[string]struct{}

	// ExcludeValues maps excluded categories to their rejected values.
	ExcludeValues map[string]map[string]struct{}

	// IncludeOrder lists include categories by first appearance in the
	// pair stream. Exclusions never contribute to the order.
	IncludeOrder []string
}

// ParseQueryString splits a raw query string into ordered key-value pairs.
// net/url's map form is not used because it loses pair order. Pairs that
// fail percent-decoding are dropped.
func ParseQueryString(raw string) []Pair {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil
	}
	segments := strings.Split(raw, "&")
	pairs := make([]Pair, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return pairs
}

// ParseTagFilters interprets ordered key-value pairs as tag filters.
//
// Key shapes: "<category>" or "tag_<category>" include, "not_<category>" or
// "not_tag_<category>" exclude. Prefix matching is on the raw key and the
// most specific prefix wins. Values are comma-separated tag tokens.
//
// The parser is permissive: pairs with empty keys, reserved keys, empty
// values, categories that normalize to empty, or values that all normalize
// to empty are skipped without error. Repeated keys union their values.
func ParseTagFilters(pairs []Pair, reserved map[string]struct{}) ParsedTagFilters {
	parsed := ParsedTagFilters{
		IncludeValues: make(map[string]map[string]struct{}),
		ExcludeValues: make(map[string]map[string]struct{}),
	}

	for _, p := range pairs {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			continue
		}
		// Reserved keys are checked on the raw key, before any prefix is
		// stripped: "not_limit" is the tag category "limit", not the
		// reserved key.
		if _, ok := reserved[key]; ok {
			continue
		}
		value := strings.TrimSpace(p.Value)
		if value == "" {
			continue
		}

		var category string
		exclude := false
		switch {
		case strings.HasPrefix(key, prefixNotTag):
			exclude = true
			category = key[len(prefixNotTag):]
		case strings.HasPrefix(key, prefixNot):
			exclude = true
			category = key[len(prefixNot):]
		case strings.HasPrefix(key, prefixTag):
			category = key[len(prefixTag):]
		default:
			category = key
		}
		category = Normalize(category)
		if category == "" {
			continue
		}

		values := splitCSV(value)
		if len(values) == 0 {
			continue
		}

		target := parsed.IncludeValues
		if exclude {
			target = parsed.ExcludeValues
		}
		set, ok := target[category]
		if !ok {
			set = make(map[string]struct{})
			target[category] = set
			if !exclude {
				parsed.IncludeOrder = append(parsed.IncludeOrder, category)
			}
		}
		for _, v := range values {
			set[v] = struct{}{}
		}
	}

	return parsed
}

// BuildSimpleGroup assembles a flat TagQueryGroup from parsed filters:
// one AllOf filter per include category in first-appearance order, one
// NoneOf filter per exclude category, no nesting. Values are sorted.
// Exclude categories are emitted in sorted order; NoneOf filters are all
// conjunctive negations, so their order carries no meaning.
func BuildSimpleGroup(parsed ParsedTagFilters) TagQueryGroup {
	group := TagQueryGroup{}

	for _, category := range parsed.IncludeOrder {
		values := sortedValues(parsed.IncludeValues[category])
		if len(values) == 0 {
			continue
		}
		group.AllOf = append(group.AllOf, TagFilter{Category: category, Values: values})
	}

	excludeCategories := make([]string, 0, len(parsed.ExcludeValues))
	for category := range parsed.ExcludeValues {
		excludeCategories = append(excludeCategories, category)
	}
	sort.Strings(excludeCategories)
	for _, category := range excludeCategories {
		values := sortedValues(parsed.ExcludeValues[category])
		if len(values) == 0 {
			continue
		}
		group.NoneOf = append(group.NoneOf, TagFilter{Category: category, Values: values})
	}

	return group
}

func sortedValues(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
