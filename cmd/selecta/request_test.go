// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mediatheque/selecta/internal/selection"
)

func defaultReserved() map[string]struct{} {
	return selection.DefaultConfig().ReservedSet()
}

// ---------------------------------------------------------------------------
// Flag parsing
// ---------------------------------------------------------------------------

func TestParseFlags(t *testing.T) {
	t.Parallel()

	t.Run("all flags", func(t *testing.T) {
		t.Parallel()

		args := []string{
			"-snapshot", "catalogue.json",
			"-query", "owner=papa",
			"-limit", "5",
			"-fallback", "soft",
			"-random",
			"-media-type", "playlist",
			"-provider", "jellyfin",
			"-search", "jazz",
			"-exclude", "a,b",
		}
		opts, err := parseFlags(args, io.Discard)
		if err != nil {
			t.Fatalf("parseFlags() error = %v", err)
		}

		if opts.snapshot != "catalogue.json" {
			t.Errorf("snapshot = %q, want catalogue.json", opts.snapshot)
		}
		if opts.query != "owner=papa" {
			t.Errorf("query = %q, want owner=papa", opts.query)
		}
		if opts.limit != 5 {
			t.Errorf("limit = %d, want 5", opts.limit)
		}
		if opts.fallback != "soft" {
			t.Errorf("fallback = %q, want soft", opts.fallback)
		}
		if !opts.random {
			t.Error("random = false, want true")
		}
		if opts.mediaType != "playlist" {
			t.Errorf("mediaType = %q, want playlist", opts.mediaType)
		}
		if opts.provider != "jellyfin" {
			t.Errorf("provider = %q, want jellyfin", opts.provider)
		}
		if opts.search != "jazz" {
			t.Errorf("search = %q, want jazz", opts.search)
		}
		if opts.exclude != "a,b" {
			t.Errorf("exclude = %q, want a,b", opts.exclude)
		}

		for _, name := range []string{"snapshot", "query", "limit", "fallback", "random", "media-type", "provider", "search", "exclude"} {
			if !opts.set[name] {
				t.Errorf("set[%q] = false, want true", name)
			}
		}
	})

	t.Run("no flags", func(t *testing.T) {
		t.Parallel()

		opts, err := parseFlags(nil, io.Discard)
		if err != nil {
			t.Fatalf("parseFlags() error = %v", err)
		}
		if len(opts.set) != 0 {
			t.Errorf("set = %v, want empty", opts.set)
		}
		if opts.limit != 0 || opts.random || opts.query != "" {
			t.Errorf("unexpected non-zero defaults: %+v", opts)
		}
	})

	t.Run("explicit false is recorded", func(t *testing.T) {
		t.Parallel()

		opts, err := parseFlags([]string{"-random=false"}, io.Discard)
		if err != nil {
			t.Fatalf("parseFlags() error = %v", err)
		}
		if opts.random {
			t.Error("random = true, want false")
		}
		if !opts.set["random"] {
			t.Error("set[random] = false, want true")
		}
	})

	t.Run("query and payload are mutually exclusive", func(t *testing.T) {
		t.Parallel()

		_, err := parseFlags([]string{"-query", "owner=papa", "-payload", "req.json"}, io.Discard)
		if err == nil {
			t.Fatal("parseFlags() expected error, got nil")
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()

		if _, err := parseFlags([]string{"-bogus"}, io.Discard); err == nil {
			t.Fatal("parseFlags() expected error, got nil")
		}
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()

		_, err := parseFlags([]string{"-h"}, io.Discard)
		if !errors.Is(err, flag.ErrHelp) {
			t.Fatalf("parseFlags(-h) error = %v, want flag.ErrHelp", err)
		}
	})
}

// ---------------------------------------------------------------------------
// Query-string requests
// ---------------------------------------------------------------------------

func TestQueryRequest(t *testing.T) {
	t.Parallel()

	raw := "owner=papa&tag_mood=Énergique&not_genre=metal" +
		"&limit=5&fallback=soft&random=true" +
		"&exclude_ids=a,b&exclude_ids=b,c" +
		"&media_type=PLAYLIST&provider=jellyfin&search=jazz"

	req, err := queryRequest(raw, defaultReserved())
	if err != nil {
		t.Fatalf("queryRequest() error = %v", err)
	}

	wantQuery := selection.TagQueryGroup{
		AllOf: []selection.TagFilter{
			{Category: "owner", Values: []string{"papa"}},
			{Category: "mood", Values: []string{"energique"}},
		},
		NoneOf: []selection.TagFilter{
			{Category: "genre", Values: []string{"metal"}},
		},
	}
	if !reflect.DeepEqual(req.Query, wantQuery) {
		t.Errorf("Query = %+v, want %+v", req.Query, wantQuery)
	}
	if !reflect.DeepEqual(req.IncludeOrder, []string{"owner", "mood"}) {
		t.Errorf("IncludeOrder = %v, want [owner mood]", req.IncludeOrder)
	}
	if req.Limit != 5 {
		t.Errorf("Limit = %d, want 5", req.Limit)
	}
	if req.Fallback != selection.FallbackSoft {
		t.Errorf("Fallback = %v, want %v", req.Fallback, selection.FallbackSoft)
	}
	if !req.Random {
		t.Error("Random = false, want true")
	}
	if !reflect.DeepEqual(req.ExcludeIDs, []string{"a", "b", "c"}) {
		t.Errorf("ExcludeIDs = %v, want [a b c]", req.ExcludeIDs)
	}
	if req.MediaType != "playlist" {
		t.Errorf("MediaType = %q, want playlist", req.MediaType)
	}
	if req.Provider != "jellyfin" {
		t.Errorf("Provider = %q, want jellyfin", req.Provider)
	}
	if req.Search != "jazz" {
		t.Errorf("Search = %q, want jazz", req.Search)
	}
}

func TestQueryRequestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "non-numeric limit", raw: "limit=ten", wantErr: "limit"},
		{name: "non-boolean random", raw: "random=maybe", wantErr: "random"},
		{name: "unknown fallback", raw: "fallback=desperate", wantErr: "fallback"},
		{name: "unknown media type", raw: "media_type=vinyl", wantErr: "media_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := queryRequest(tt.raw, defaultReserved())
			if err == nil {
				t.Fatalf("queryRequest(%q) expected error, got nil", tt.raw)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestQueryRequestHonorsConfiguredReservedKeys(t *testing.T) {
	t.Parallel()

	// With "limit" not reserved, the pair is an ordinary tag filter.
	reserved := map[string]struct{}{"random": {}}

	req, err := queryRequest("limit=5&owner=papa", reserved)
	if err != nil {
		t.Fatalf("queryRequest() error = %v", err)
	}

	if req.Limit != 0 {
		t.Errorf("Limit = %d, want 0", req.Limit)
	}
	wantAllOf := []selection.TagFilter{
		{Category: "limit", Values: []string{"5"}},
		{Category: "owner", Values: []string{"papa"}},
	}
	if !reflect.DeepEqual(req.Query.AllOf, wantAllOf) {
		t.Errorf("Query.AllOf = %+v, want %+v", req.Query.AllOf, wantAllOf)
	}
}

// ---------------------------------------------------------------------------
// Full request assembly
// ---------------------------------------------------------------------------

func TestBuildRequestFlagPrecedence(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags([]string{
		"-query", "owner=papa&limit=5&random=true&exclude_ids=a,b",
		"-limit", "3",
		"-random=false",
		"-exclude", "c,a",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	req, err := buildRequest(opts, defaultReserved())
	if err != nil {
		t.Fatalf("buildRequest() error = %v", err)
	}

	if req.Limit != 3 {
		t.Errorf("Limit = %d, want 3 (flag overrides query string)", req.Limit)
	}
	if req.Random {
		t.Error("Random = true, want false (flag overrides query string)")
	}
	if !reflect.DeepEqual(req.ExcludeIDs, []string{"a", "b", "c"}) {
		t.Errorf("ExcludeIDs = %v, want [a b c] (union)", req.ExcludeIDs)
	}
}

func TestBuildRequestEmpty(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	req, err := buildRequest(opts, defaultReserved())
	if err != nil {
		t.Fatalf("buildRequest() error = %v", err)
	}
	if !req.Query.Empty() {
		t.Errorf("Query = %+v, want empty group", req.Query)
	}
	if req.Limit != 0 {
		t.Errorf("Limit = %d, want 0 (engine default applies)", req.Limit)
	}
}

func TestBuildRequestPayload(t *testing.T) {
	t.Parallel()

	payload := `{
		"query": {"all_of": [{"category": "Owner", "values": ["Papa"]}]},
		"limit": 4,
		"fallback": "force"
	}`
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	opts, err := parseFlags([]string{"-payload", path, "-media-type", "radio"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	req, err := buildRequest(opts, defaultReserved())
	if err != nil {
		t.Fatalf("buildRequest() error = %v", err)
	}

	wantAllOf := []selection.TagFilter{{Category: "owner", Values: []string{"papa"}}}
	if !reflect.DeepEqual(req.Query.AllOf, wantAllOf) {
		t.Errorf("Query.AllOf = %+v, want %+v (canonicalized)", req.Query.AllOf, wantAllOf)
	}
	if req.Limit != 4 {
		t.Errorf("Limit = %d, want 4", req.Limit)
	}
	if req.Fallback != selection.FallbackForce {
		t.Errorf("Fallback = %v, want %v", req.Fallback, selection.FallbackForce)
	}
	if req.MediaType != "radio" {
		t.Errorf("MediaType = %q, want radio (flag applied on payload)", req.MediaType)
	}
}

func TestBuildRequestPayloadErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		opts := &cliOptions{payload: filepath.Join(t.TempDir(), "absent.json"), set: map[string]bool{}}
		_, err := buildRequest(opts, defaultReserved())
		if err == nil || !strings.Contains(err.Error(), "open payload") {
			t.Fatalf("buildRequest() error = %v, want open payload error", err)
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "request.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("write payload: %v", err)
		}

		opts := &cliOptions{payload: path, set: map[string]bool{}}
		_, err := buildRequest(opts, defaultReserved())
		if err == nil || !strings.Contains(err.Error(), "decode payload") {
			t.Fatalf("buildRequest() error = %v, want decode payload error", err)
		}
	})

	t.Run("invalid media type flag", func(t *testing.T) {
		t.Parallel()

		opts := &cliOptions{mediaType: "vinyl", set: map[string]bool{"media-type": true}}
		_, err := buildRequest(opts, defaultReserved())
		if err == nil || !strings.Contains(err.Error(), "media-type") {
			t.Fatalf("buildRequest() error = %v, want media-type error", err)
		}
	})

	t.Run("invalid fallback flag", func(t *testing.T) {
		t.Parallel()

		opts := &cliOptions{fallback: "desperate", set: map[string]bool{"fallback": true}}
		_, err := buildRequest(opts, defaultReserved())
		if err == nil || !strings.Contains(err.Error(), "fallback") {
			t.Fatalf("buildRequest() error = %v, want fallback error", err)
		}
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestUnionIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ids  []string
		csv  string
		want []string
	}{
		{name: "empty base", ids: nil, csv: "a,b", want: []string{"a", "b"}},
		{name: "union with duplicates", ids: []string{"a"}, csv: "b,a,c", want: []string{"a", "b", "c"}},
		{name: "whitespace and empties", ids: nil, csv: " a , ,b,", want: []string{"a", "b"}},
		{name: "empty csv", ids: []string{"a"}, csv: "", want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := unionIDs(tt.ids, tt.csv)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("unionIDs(%v, %q) = %v, want %v", tt.ids, tt.csv, got, tt.want)
			}
		})
	}
}
