// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mediatheque/selecta/internal/catalog"
	"github.com/mediatheque/selecta/internal/selection"
)

// cliOptions holds the parsed command line. The set map records which
// flags were given explicitly, so a flag can override a payload or
// query-string value without inventing sentinel defaults.
type cliOptions struct {
	snapshot  string
	query     string
	payload   string
	limit     int
	fallback  string
	random    bool
	mediaType string
	provider  string
	search    string
	exclude   string

	set map[string]bool
}

// parseFlags parses the command line. Usage and error output go to
// stderr.
func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{set: make(map[string]bool)}

	fs := flag.NewFlagSet("selecta", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.snapshot, "snapshot", "", "path to the catalogue fixture JSON (overrides catalog.snapshot_path)")
	fs.StringVar(&opts.query, "query", "", `flat tag query string, e.g. "owner=papa&mood=energique"`)
	fs.StringVar(&opts.payload, "payload", "", `path to a structured request payload, "-" for stdin`)
	fs.IntVar(&opts.limit, "limit", 0, "maximum number of items (0 = engine default)")
	fs.StringVar(&opts.fallback, "fallback", "", "relaxation mode: none, soft, aggressive or force")
	fs.BoolVar(&opts.random, "random", false, "shuffle strict matches instead of ordering by recency")
	fs.StringVar(&opts.mediaType, "media-type", "", "restrict candidates to one media type")
	fs.StringVar(&opts.provider, "provider", "", "restrict candidates to one provider")
	fs.StringVar(&opts.search, "search", "", "restrict candidates to titles or descriptions containing the term")
	fs.StringVar(&opts.exclude, "exclude", "", "comma-separated item IDs to exclude")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.query != "" && opts.payload != "" {
		err := errors.New("-query and -payload are mutually exclusive")
		fmt.Fprintln(stderr, err)
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// buildRequest assembles the selection request from the structured
// payload or the flat query string, then applies explicit flags on top.
func buildRequest(opts *cliOptions, reserved map[string]struct{}) (selection.Request, error) {
	var req selection.Request

	switch {
	case opts.payload != "":
		decoded, err := loadPayload(opts.payload)
		if err != nil {
			return selection.Request{}, err
		}
		req = *decoded
	case opts.query != "":
		built, err := queryRequest(opts.query, reserved)
		if err != nil {
			return selection.Request{}, err
		}
		req = built
	}

	if err := applyFlags(&req, opts); err != nil {
		return selection.Request{}, err
	}
	return req, nil
}

// loadPayload decodes a structured request from a file or stdin.
func loadPayload(path string) (*selection.Request, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open payload: %w", err)
		}
		defer f.Close()
		r = f
	}

	req, err := selection.DecodeRequest(r)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return req, nil
}

// queryRequest builds a request from the flat query-string encoding.
// Non-reserved keys become tag filters; reserved keys carry request
// options.
func queryRequest(raw string, reserved map[string]struct{}) (selection.Request, error) {
	pairs := selection.ParseQueryString(raw)
	parsed := selection.ParseTagFilters(pairs, reserved)

	req := selection.Request{
		Query:        selection.BuildSimpleGroup(parsed),
		IncludeOrder: parsed.IncludeOrder,
	}
	if err := applyReservedPairs(&req, pairs, reserved); err != nil {
		return selection.Request{}, err
	}
	return req, nil
}

// applyReservedPairs maps reserved query-string keys onto request
// options. Only keys in the reserved set are consumed, mirroring what
// ParseTagFilters drops; reserved keys with no option meaning are
// ignored. Scalar keys take the last occurrence, exclude_ids unions.
func applyReservedPairs(req *selection.Request, pairs []selection.Pair, reserved map[string]struct{}) error {
	for _, p := range pairs {
		key := strings.TrimSpace(p.Key)
		if _, ok := reserved[key]; !ok {
			continue
		}
		value := strings.TrimSpace(p.Value)
		if value == "" {
			continue
		}

		switch key {
		case "media_type":
			mt, err := catalog.ParseMediaType(value)
			if err != nil {
				return fmt.Errorf("media_type: %w", err)
			}
			req.MediaType = mt.String()
		case "provider":
			req.Provider = value
		case "search":
			req.Search = value
		case "random":
			random, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("random: %w", err)
			}
			req.Random = random
		case "limit":
			limit, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("limit: %w", err)
			}
			req.Limit = limit
		case "fallback":
			mode, err := selection.ParseFallback(value)
			if err != nil {
				return fmt.Errorf("fallback: %w", err)
			}
			req.Fallback = mode
		case "exclude_ids":
			req.ExcludeIDs = unionIDs(req.ExcludeIDs, value)
		}
	}
	return nil
}

// applyFlags overrides request fields with explicitly set flags.
// Exclusions union rather than replace; they are never relaxed anywhere
// else either.
func applyFlags(req *selection.Request, opts *cliOptions) error {
	if opts.set["limit"] {
		req.Limit = opts.limit
	}
	if opts.set["random"] {
		req.Random = opts.random
	}
	if opts.set["fallback"] {
		mode, err := selection.ParseFallback(opts.fallback)
		if err != nil {
			return fmt.Errorf("-fallback: %w", err)
		}
		req.Fallback = mode
	}
	if opts.set["media-type"] {
		mt, err := catalog.ParseMediaType(opts.mediaType)
		if err != nil {
			return fmt.Errorf("-media-type: %w", err)
		}
		req.MediaType = mt.String()
	}
	if opts.set["provider"] {
		req.Provider = opts.provider
	}
	if opts.set["search"] {
		req.Search = opts.search
	}
	if opts.set["exclude"] {
		req.ExcludeIDs = unionIDs(req.ExcludeIDs, opts.exclude)
	}
	return nil
}

// unionIDs merges a comma-separated ID list into ids, trimming
// whitespace and dropping duplicates and empties.
func unionIDs(ids []string, csv string) []string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, part := range strings.Split(csv, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
