// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// engineSettings mirrors the shape of the engine configuration the
// application validates at startup.
type engineSettings struct {
	DefaultLimit    int      `validate:"min=1"`
	MaxLimit        int      `validate:"min=1"`
	DefaultFallback string   `validate:"omitempty,fallbackmode"`
	ReservedKeys    []string `validate:"omitempty,dive,categoryslug"`
	SnapshotPath    string   `validate:"required"`
}

func validSettings() engineSettings {
	return engineSettings{
		DefaultLimit:    10,
		MaxLimit:        100,
		DefaultFallback: "aggressive",
		ReservedKeys:    []string{"media_type", "limit"},
		SnapshotPath:    "catalogue.json",
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*engineSettings)
	}{
		{
			name:   "all valid fields",
			modify: func(s *engineSettings) {},
		},
		{
			name:   "empty fallback means default",
			modify: func(s *engineSettings) { s.DefaultFallback = "" },
		},
		{
			name:   "no reserved keys",
			modify: func(s *engineSettings) { s.ReservedKeys = nil },
		},
		{
			name:   "minimum limits",
			modify: func(s *engineSettings) { s.DefaultLimit = 1; s.MaxLimit = 1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validSettings()
			tt.modify(&input)

			if err := ValidateStruct(&input); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*engineSettings)
		wantField string
		wantTag   string
	}{
		{
			name:      "zero default limit",
			modify:    func(s *engineSettings) { s.DefaultLimit = 0 },
			wantField: "DefaultLimit",
			wantTag:   "min",
		},
		{
			name:      "unknown fallback mode",
			modify:    func(s *engineSettings) { s.DefaultFallback = "desperate" },
			wantField: "DefaultFallback",
			wantTag:   "fallbackmode",
		},
		{
			name:      "reserved key with uppercase",
			modify:    func(s *engineSettings) { s.ReservedKeys = []string{"MediaType"} },
			wantField: "ReservedKeys[0]",
			wantTag:   "categoryslug",
		},
		{
			name:      "reserved key with spaces",
			modify:    func(s *engineSettings) { s.ReservedKeys = []string{"media type"} },
			wantField: "ReservedKeys[0]",
			wantTag:   "categoryslug",
		},
		{
			name:      "missing snapshot path",
			modify:    func(s *engineSettings) { s.SnapshotPath = "" },
			wantField: "SnapshotPath",
			wantTag:   "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validSettings()
			tt.modify(&input)

			err := ValidateStruct(&input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			errs := err.Errors()
			if len(errs) == 0 {
				t.Fatal("Errors() should contain at least one error")
			}

			found := false
			for _, e := range errs {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}

			if !found {
				t.Errorf("Expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, errs)
			}
		})
	}
}

func TestFallbackModeValidator(t *testing.T) {
	type payload struct {
		Mode string `validate:"fallbackmode"`
	}

	tests := []struct {
		mode  string
		valid bool
	}{
		{"none", true},
		{"soft", true},
		{"aggressive", true},
		{"force", true},
		{"AGGRESSIVE", true}, // parse is case-insensitive
		{"", true},           // empty means default
		{"desperate", false},
		{"softly", false},
	}

	for _, tt := range tests {
		t.Run("mode "+tt.mode, func(t *testing.T) {
			err := ValidateStruct(&payload{Mode: tt.mode})
			if tt.valid && err != nil {
				t.Errorf("ValidateStruct(mode=%q) = %v, want nil", tt.mode, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateStruct(mode=%q) = nil, want error", tt.mode)
			}
		})
	}
}

func TestCategorySlugValidator(t *testing.T) {
	type payload struct {
		Slug string `validate:"categoryslug"`
	}

	tests := []struct {
		slug  string
		valid bool
	}{
		{"mood", true},
		{"time_of_day", true},
		{"age_group", true},
		{"genre2", true},
		{"", false},
		{"Mood", false},
		{"time of day", false},
		{"humeur-énergique", false},
	}

	for _, tt := range tests {
		t.Run("slug "+tt.slug, func(t *testing.T) {
			err := ValidateStruct(&payload{Slug: tt.slug})
			if tt.valid && err != nil {
				t.Errorf("ValidateStruct(slug=%q) = %v, want nil", tt.slug, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateStruct(slug=%q) = nil, want error", tt.slug)
			}
		})
	}
}

func TestValidationError_Accessors(t *testing.T) {
	input := validSettings()
	input.MaxLimit = 0

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("expected validation error")
	}

	errs := err.Errors()
	if len(errs) != 1 {
		t.Fatalf("len(Errors()) = %d, want 1", len(errs))
	}

	e := errs[0]
	if e.Field() != "MaxLimit" {
		t.Errorf("Field() = %q, want MaxLimit", e.Field())
	}
	if e.Tag() != "min" {
		t.Errorf("Tag() = %q, want min", e.Tag())
	}
	if e.Param() != "1" {
		t.Errorf("Param() = %q, want 1", e.Param())
	}
	if e.Value() != 0 {
		t.Errorf("Value() = %v, want 0", e.Value())
	}
	if !strings.Contains(e.Error(), "MaxLimit") {
		t.Errorf("Error() = %q, want field name in message", e.Error())
	}
}

func TestRequestValidationError_CombinesMessages(t *testing.T) {
	input := validSettings()
	input.DefaultLimit = 0
	input.DefaultFallback = "desperate"

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "DefaultLimit") {
		t.Errorf("Error() = %q, want DefaultLimit mentioned", msg)
	}
	if !strings.Contains(msg, "DefaultFallback") {
		t.Errorf("Error() = %q, want DefaultFallback mentioned", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("Error() = %q, want messages joined with semicolons", msg)
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	ve := &RequestValidationError{}
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q, want %q", ve.Error(), "validation failed")
	}
}
