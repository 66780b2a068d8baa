// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import "sort"

// FallbackPlan describes one fallback computation over a candidate set.
// Items are addressed by index; the planner never touches the items
// themselves, which keeps it pure and lets callers own ordering concerns
// through Tiebreak.
type FallbackPlan struct {
	// Tags holds one TagIndex per item, aligned with item indices.
	Tags []TagIndex

	// Group is the query group, in canonical form.
	Group TagQueryGroup

	// Limit bounds the number of returned indices. Non-positive limits
	// select nothing.
	Limit int

	// Mode is the relaxation strategy applied when the strict query
	// matches nothing.
	Mode Fallback

	// IncludeOrder is the relaxation priority of include categories,
	// highest priority first. Empty means the Group.AllOf order.
	IncludeOrder []string

	// PassesHard reports whether an item passes the non-tag constraints
	// that are never relaxed (media type, provider, search, exclusions).
	// Nil means every item passes.
	PassesHard func(i int) bool

	// Tiebreak orders two item indices within otherwise equal rank. Nil
	// preserves input order. All planner sorts are stable.
	Tiebreak func(a, b int) bool
}

// PlanFallback returns the selected item indices for one query.
//
// The strict query is evaluated first; when it matches anything, those
// indices are returned bounded to Limit, in input order, and the fallback
// mode is not consulted. Otherwise the mode decides:
//
//   - FallbackNone: nothing.
//   - FallbackAggressive: retry with trailing include categories removed
//     (k = len(order) down to 0); the first level with matches wins,
//     ordered by Tiebreak.
//   - FallbackForce: walk the same ladder but accumulate unseen matches
//     level by level until Limit is reached; within a level, indices rank
//     by match count, then include-order match vector, then Tiebreak.
//   - FallbackSoft: no ladder; every candidate matching at least one
//     include filter ranks by count, match vector, then Tiebreak. AnyOf
//     subgroups are not consulted in soft mode.
//
// NoneOf filters and PassesHard exclude items at every level in every mode.
func PlanFallback(plan FallbackPlan) []int {
	if plan.Limit <= 0 {
		return nil
	}
	passes := plan.PassesHard
	if passes == nil {
		passes = func(int) bool { return true }
	}

	candidates := make([]int, 0, len(plan.Tags))
	for i := range plan.Tags {
		if passes(i) {
			candidates = append(candidates, i)
		}
	}

	matches := make([]int, 0, len(candidates))
	for _, i := range candidates {
		if plan.Group.Match(plan.Tags[i]) {
			matches = append(matches, i)
		}
	}
	if len(matches) > 0 {
		return bound(matches, plan.Limit)
	}

	order := plan.IncludeOrder
	if len(order) == 0 {
		order = plan.Group.IncludeCategories()
	}

	switch plan.Mode {
	case FallbackAggressive:
		return planAggressive(plan, candidates, order)
	case FallbackForce:
		return planForce(plan, candidates, order)
	case FallbackSoft:
		return planSoft(plan, candidates, order)
	default:
		return nil
	}
}

// planAggressive removes include categories from the end of the priority
// order until a relaxation level produces matches. The whole level is
// returned (bounded), ordered by the tiebreak alone.
func planAggressive(plan FallbackPlan, candidates []int, order []string) []int {
	for k := len(order); k >= 0; k-- {
		relaxed := relaxGroup(plan.Group, order[:k])
		var matches []int
		for _, i := range candidates {
			if relaxed.Match(plan.Tags[i]) {
				matches = append(matches, i)
			}
		}
		if len(matches) == 0 {
			continue
		}
		if plan.Tiebreak != nil {
			sort.SliceStable(matches, func(a, b int) bool {
				return plan.Tiebreak(matches[a], matches[b])
			})
		}
		return bound(matches, plan.Limit)
	}
	return nil
}

// planForce walks the same ladder as planAggressive but keeps collecting
// across levels until the limit is reached, skipping indices already
// collected at a stricter level. The result can still fall short of the
// limit once every level is exhausted.
func planForce(plan FallbackPlan, candidates []int, order []string) []int {
	filters := orderedFilters(plan.Group.AllOf, order)

	collected := make([]int, 0, plan.Limit)
	seen := make(map[int]struct{}, len(candidates))

	for k := len(order); k >= 0; k-- {
		relaxed := relaxGroup(plan.Group, order[:k])
		var batch []int
		for _, i := range candidates {
			if _, dup := seen[i]; dup {
				continue
			}
			if excludedBy(plan.Tags[i], plan.Group.NoneOf) {
				continue
			}
			if relaxed.Match(plan.Tags[i]) {
				batch = append(batch, i)
			}
		}
		rankByMatches(batch, plan.Tags, filters, plan.Tiebreak)
		for _, i := range batch {
			seen[i] = struct{}{}
			collected = append(collected, i)
			if len(collected) >= plan.Limit {
				return collected
			}
		}
	}
	return collected
}

// planSoft ranks every candidate matching at least one include filter.
// Without include filters there is nothing to rank by, so the result is
// empty even when AnyOf subgroups exist.
func planSoft(plan FallbackPlan, candidates []int, order []string) []int {
	if len(plan.Group.AllOf) == 0 {
		return nil
	}
	filters := orderedFilters(plan.Group.AllOf, order)

	var eligible []int
	for _, i := range candidates {
		if excludedBy(plan.Tags[i], plan.Group.NoneOf) {
			continue
		}
		if matchesAnyFilter(plan.Tags[i], filters) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	rankByMatches(eligible, plan.Tags, filters, plan.Tiebreak)
	return bound(eligible, plan.Limit)
}

// relaxGroup keeps only the AllOf filters whose category appears in keep.
// AnyOf subgroups and NoneOf exclusions always survive relaxation.
func relaxGroup(group TagQueryGroup, keep []string) TagQueryGroup {
	keepSet := make(map[string]struct{}, len(keep))
	for _, c := range keep {
		keepSet[c] = struct{}{}
	}
	kept := make([]TagFilter, 0, len(group.AllOf))
	for _, f := range group.AllOf {
		if _, ok := keepSet[f.Category]; ok {
			kept = append(kept, f)
		}
	}
	return TagQueryGroup{AllOf: kept, AnyOf: group.AnyOf, NoneOf: group.NoneOf}
}

// orderedFilters projects the AllOf filters onto the include order. When a
// category appears more than once in AllOf the last filter wins; categories
// absent from AllOf are skipped.
func orderedFilters(allOf []TagFilter, order []string) []TagFilter {
	byCat := make(map[string]TagFilter, len(allOf))
	for _, f := range allOf {
		byCat[f.Category] = f
	}
	filters := make([]TagFilter, 0, len(order))
	for _, c := range order {
		if f, ok := byCat[c]; ok {
			filters = append(filters, f)
		}
	}
	return filters
}

// rankByMatches stable-sorts indices by match count against the ordered
// filters (descending), then by the match vector so that items matching
// higher-priority filters rank first, then by the tiebreak.
func rankByMatches(indices []int, tags []TagIndex, filters []TagFilter, tiebreak func(a, b int) bool) {
	counts := make(map[int]int, len(indices))
	vecs := make(map[int][]bool, len(indices))
	for _, i := range indices {
		vec := make([]bool, len(filters))
		count := 0
		for fi, f := range filters {
			if matchesFilter(tags[i], f) {
				vec[fi] = true
				count++
			}
		}
		counts[i] = count
		vecs[i] = vec
	}

	sort.SliceStable(indices, func(a, b int) bool {
		ia, ib := indices[a], indices[b]
		if counts[ia] != counts[ib] {
			return counts[ia] > counts[ib]
		}
		va, vb := vecs[ia], vecs[ib]
		for k := range va {
			if va[k] != vb[k] {
				return va[k]
			}
		}
		if tiebreak != nil {
			return tiebreak(ia, ib)
		}
		return false
	})
}

func excludedBy(idx TagIndex, noneOf []TagFilter) bool {
	for _, f := range noneOf {
		if matchesFilter(idx, f) {
			return true
		}
	}
	return false
}

func matchesAnyFilter(idx TagIndex, filters []TagFilter) bool {
	for _, f := range filters {
		if matchesFilter(idx, f) {
			return true
		}
	}
	return false
}

func bound(indices []int, limit int) []int {
	if limit <= 0 {
		return nil
	}
	if limit < len(indices) {
		return indices[:limit]
	}
	return indices
}
