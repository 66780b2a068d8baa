// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mediatheque/selecta/internal/selection"
)

// MemoryStore is an in-memory catalogue implementing
// selection.SnapshotProvider. Every mutation bumps the revision, so the
// engine's response cache is invalidated exactly when the catalogue changes.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]selection.Item
	order    []string
	revision int64
}

// NewMemoryStore creates a new empty in-memory catalogue.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]selection.Item),
	}
}

// Put upserts items into the catalogue. New items keep insertion order;
// existing items keep their position. Items without an ID are rejected and
// nothing is stored.
func (s *MemoryStore) Put(items ...selection.Item) error {
	for _, it := range items {
		if it.ID == "" {
			return fmt.Errorf("catalog: item %q has no id", it.Title)
		}
	}
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if _, exists := s.items[it.ID]; !exists {
			s.order = append(s.order, it.ID)
		}
		s.items[it.ID] = copyItem(it)
	}
	s.revision++
	return nil
}

// Remove deletes items by ID and returns how many were present.
func (s *MemoryStore) Remove(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, exists := s.items[id]; !exists {
			continue
		}
		delete(s.items, id)
		removed++
	}
	if removed == 0 {
		return 0
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if _, exists := s.items[id]; exists {
			kept = append(kept, id)
		}
	}
	s.order = kept
	s.revision++
	return removed
}

// Len returns the number of items in the catalogue.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision returns the current catalogue revision. It starts at zero and
// increases with every mutating Put or Remove.
func (s *MemoryStore) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot returns a defensive copy of the catalogue in insertion order.
// The returned snapshot is the caller's to keep; later mutations of the
// store never reach it.
func (s *MemoryStore) Snapshot(ctx context.Context) (*selection.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]selection.Item, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, copyItem(s.items[id]))
	}

	return &selection.Snapshot{
		Items:    items,
		Revision: s.revision,
		TakenAt:  time.Now().UTC(),
	}, nil
}

// copyItem deep-copies an item so stored and returned values never share
// tag slices with the caller.
func copyItem(it selection.Item) selection.Item {
	out := it
	if it.Tags != nil {
		out.Tags = make([]selection.Tag, len(it.Tags))
		copy(out.Tags, it.Tags)
	}
	return out
}

var _ selection.SnapshotProvider = (*MemoryStore)(nil)
