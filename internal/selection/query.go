// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"fmt"
	"sort"
)

// TagFilter matches items carrying at least one of Values in Category.
// Values are OR-combined within the category.
type TagFilter struct {
	// Category is the tag category, such as "mood" or "owner".
	Category string `json:"category" validate:"required"`

	// Values are the accepted tag values for Category.
	Values []string `json:"values" validate:"required,min=1,dive,required"`
}

// Canonical returns the filter with category and values normalized,
// empty tokens dropped, duplicates collapsed and values sorted.
func (f TagFilter) Canonical() TagFilter {
	seen := make(map[string]struct{}, len(f.Values))
	values := make([]string, 0, len(f.Values))
	for _, v := range f.Values {
		tok := Normalize(v)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		values = append(values, tok)
	}
	sort.Strings(values)
	return TagFilter{Category: Normalize(f.Category), Values: values}
}

// empty reports whether the filter can never match: no category or no values
// left after canonicalization.
func (f TagFilter) empty() bool {
	return f.Category == "" || len(f.Values) == 0
}

// TagQueryGroup is a recursive boolean query over item tags.
//
// Every AllOf filter must match, at least one AnyOf subgroup must match when
// AnyOf is non-empty, and no NoneOf filter may match. An empty group matches
// every item.
type TagQueryGroup struct {
	// AllOf filters are AND-combined across categories.
	AllOf []TagFilter `json:"all_of,omitempty" validate:"omitempty,dive"`

	// AnyOf subgroups are OR-combined; one match suffices.
	AnyOf []TagQueryGroup `json:"any_of,omitempty" validate:"omitempty,dive"`

	// NoneOf filters exclude items outright and are never relaxed.
	NoneOf []TagFilter `json:"none_of,omitempty" validate:"omitempty,dive"`
}

// Canonical returns the group with every filter canonicalized and filters
// that cannot match dropped. Subgroups are canonicalized recursively;
// subgroups that end up entirely empty are dropped.
func (g TagQueryGroup) Canonical() TagQueryGroup {
	out := TagQueryGroup{}
	for _, f := range g.AllOf {
		cf := f.Canonical()
		if !cf.empty() {
			out.AllOf = append(out.AllOf, cf)
		}
	}
	for _, sub := range g.AnyOf {
		cs := sub.Canonical()
		if !cs.Empty() {
			out.AnyOf = append(out.AnyOf, cs)
		}
	}
	for _, f := range g.NoneOf {
		cf := f.Canonical()
		if !cf.empty() {
			out.NoneOf = append(out.NoneOf, cf)
		}
	}
	return out
}

// Empty reports whether the group holds no filters at any level. An empty
// group matches every item.
func (g TagQueryGroup) Empty() bool {
	return len(g.AllOf) == 0 && len(g.AnyOf) == 0 && len(g.NoneOf) == 0
}

// IncludeCategories returns the AllOf categories in declaration order.
// This is the default relaxation priority when none is supplied.
func (g TagQueryGroup) IncludeCategories() []string {
	cats := make([]string, 0, len(g.AllOf))
	for _, f := range g.AllOf {
		cats = append(cats, f.Category)
	}
	return cats
}

// Fallback selects the relaxation strategy applied when the strict query
// yields no matches.
type Fallback int

const (
	// FallbackNone returns nothing when the strict query has no matches.
	FallbackNone Fallback = iota
	// FallbackSoft ranks items matching at least one include filter by
	// match count and include-order priority.
	FallbackSoft
	// FallbackAggressive retries with trailing include categories removed
	// until a relaxation level produces matches.
	FallbackAggressive
	// FallbackForce accumulates items across relaxation levels until the
	// requested limit is reached.
	FallbackForce
)

// String returns the textual mode name.
func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "none"
	case FallbackSoft:
		return "soft"
	case FallbackAggressive:
		return "aggressive"
	case FallbackForce:
		return "force"
	default:
		return "unknown"
	}
}

// ParseFallback maps a textual mode name to a Fallback. Matching is
// case-insensitive; the empty string maps to FallbackNone.
func ParseFallback(s string) (Fallback, error) {
	switch Normalize(s) {
	case "", "none":
		return FallbackNone, nil
	case "soft":
		return FallbackSoft, nil
	case "aggressive":
		return FallbackAggressive, nil
	case "force":
		return FallbackForce, nil
	default:
		return FallbackNone, fmt.Errorf("unknown fallback mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Fallback) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fallback) UnmarshalText(text []byte) error {
	mode, err := ParseFallback(string(text))
	if err != nil {
		return err
	}
	*f = mode
	return nil
}
