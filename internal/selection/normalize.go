// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes one tag token: surrounding whitespace is trimmed,
// the token is case-folded, decomposed (NFKD) and stripped of combining
// marks. "Café", "CAFE" and " cafe " all normalize to "cafe". Whitespace-only
// input normalizes to the empty string. Normalize is total and idempotent.
func Normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if isASCII(trimmed) {
		return strings.ToLower(trimmed)
	}

	folded := cases.Fold().String(trimmed)

	// Transformers are stateful between calls, so the chain is constructed
	// per invocation to keep Normalize safe for concurrent use.
	chain := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(chain, folded)
	if err != nil {
		return folded
	}
	return stripped
}

// NormalizeValues normalizes every token in order and drops tokens that
// normalize to empty. Duplicates are preserved; callers that need set
// semantics collapse them afterwards.
func NormalizeValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if tok := Normalize(v); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// splitCSV breaks a raw comma-separated value list into normalized tokens,
// dropping tokens that normalize to empty.
func splitCSV(raw string) []string {
	return NormalizeValues(strings.Split(raw, ","))
}

// isASCII reports whether s contains only ASCII bytes. ASCII tokens take a
// fast path: folding is plain lowercasing and decomposition is the identity.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
