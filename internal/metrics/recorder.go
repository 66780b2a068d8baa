// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package metrics

import "github.com/mediatheque/selecta/internal/selection"

// Recorder adapts the package instruments to the selection engine's
// telemetry interface. The zero value is ready to use.
type Recorder struct{}

// NewRecorder creates a Recorder for selection telemetry.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordSelection implements selection.Recorder.
func (*Recorder) RecordSelection(rec selection.SelectionRecord) {
	RecordSelection(rec.Mode.String(), rec.Outcome, rec.SnapshotItems, rec.Candidates, rec.Returned, rec.Duration)
}

// RecordCache implements selection.Recorder.
func (*Recorder) RecordCache(hit bool) {
	RecordCacheLookup(hit)
}

var _ selection.Recorder = (*Recorder)(nil)
