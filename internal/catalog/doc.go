// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

// Package catalog holds the in-memory media catalogue the selection engine
// runs against.
//
// MemoryStore implements selection.SnapshotProvider: every mutation bumps a
// monotonically increasing revision, and Snapshot returns a defensive copy
// of the active items so a selection in flight never observes a concurrent
// mutation. LoadFile fills a store from a JSON fixture, which is how the CLI
// and the tests obtain a catalogue.
//
// The package also carries the catalogue vocabulary: the media types items
// may declare and the default tag categories with their display labels.
// There is no persistence layer; the store is memory-only.
package catalog
