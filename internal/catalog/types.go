// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package catalog

import (
	"fmt"
	"strings"
)

// MediaType classifies a catalogue item.
type MediaType string

const (
	// MediaTypePlaylist is a curated track list on the provider.
	MediaTypePlaylist MediaType = "playlist"

	// MediaTypeAudiobook is a narrated book, usually long-form.
	MediaTypeAudiobook MediaType = "audiobook"

	// MediaTypeRadio is a live radio stream.
	MediaTypeRadio MediaType = "radio"

	// MediaTypePodcast is an episodic show feed.
	MediaTypePodcast MediaType = "podcast"

	// MediaTypeAlbum is a full album.
	MediaTypeAlbum MediaType = "album"

	// MediaTypeTrack is a single track.
	MediaTypeTrack MediaType = "track"
)

// ValidMediaTypes contains all valid media types.
var ValidMediaTypes = []MediaType{
	MediaTypePlaylist,
	MediaTypeAudiobook,
	MediaTypeRadio,
	MediaTypePodcast,
	MediaTypeAlbum,
	MediaTypeTrack,
}

// IsValidMediaType checks if a media type is valid.
func IsValidMediaType(t MediaType) bool {
	for _, valid := range ValidMediaTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// ParseMediaType maps a textual media type to a MediaType. Matching is
// case-insensitive after trimming; the empty string is an error.
func ParseMediaType(s string) (MediaType, error) {
	t := MediaType(strings.ToLower(strings.TrimSpace(s)))
	if !IsValidMediaType(t) {
		return "", fmt.Errorf("unknown media type %q", s)
	}
	return t, nil
}

// String returns the textual media type.
func (t MediaType) String() string {
	return string(t)
}

// Category is one tag category of the catalogue vocabulary.
type Category struct {
	// Slug is the normalized category key used in queries.
	Slug string `json:"slug"`

	// Label is the human-readable display name.
	Label string `json:"label"`
}

// DefaultCategories returns the seeded tag categories of a fresh catalogue,
// in display order. Slugs are what queries address; labels are what a
// catalogue UI shows.
func DefaultCategories() []Category {
	return []Category{
		{Slug: "owner", Label: "Propriétaire"},
		{Slug: "mood", Label: "Humeur"},
		{Slug: "context", Label: "Contexte"},
		{Slug: "genre", Label: "Genre"},
		{Slug: "time_of_day", Label: "Moment"},
		{Slug: "age_group", Label: "Tranche d'âge"},
	}
}
