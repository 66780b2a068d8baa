// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package catalog

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/mediatheque/selecta/internal/selection"
)

// LoadFile reads a JSON catalogue fixture into store and returns the number
// of items loaded. The fixture is either a bare array of items or an object
// with an "items" field, so a dumped snapshot loads back unchanged.
func LoadFile(path string, store *MemoryStore) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalogue fixture: %w", err)
	}

	items, err := decodeItems(data)
	if err != nil {
		return 0, fmt.Errorf("parse catalogue fixture %s: %w", path, err)
	}
	if err := store.Put(items...); err != nil {
		return 0, fmt.Errorf("load catalogue fixture %s: %w", path, err)
	}
	return len(items), nil
}

func decodeItems(data []byte) ([]selection.Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("fixture is empty")
	}

	if trimmed[0] == '[' {
		var items []selection.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapped struct {
		Items []selection.Item `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}
