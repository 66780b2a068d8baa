// Selecta - Boolean Tag Selection Engine for Media Catalogues
// Copyright 2026 M. Verdier (mediatheque)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mediatheque/selecta

package selection

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// The structured payload is the one boundary where malformed input is an
// error rather than something to silently drop: flat query strings come
// from lenient automations, JSON payloads come from programs that want to
// know they sent garbage.

var (
	payloadValidatorOnce sync.Once
	payloadValidatorInst *validator.Validate
)

func payloadValidator() *validator.Validate {
	payloadValidatorOnce.Do(func() {
		payloadValidatorInst = validator.New(validator.WithRequiredStructEnabled())
	})
	return payloadValidatorInst
}

// DecodeRequest reads a structured selection request from JSON, validates
// it and returns it in canonical form (normalized filters, normalized
// include order). Unknown fallback modes, filters without a category and
// filters without values are rejected.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode selection request: %w", err)
	}
	if err := validatePayload(&req); err != nil {
		return nil, err
	}
	req.Query = req.Query.Canonical()
	req.IncludeOrder = NormalizeValues(req.IncludeOrder)
	return &req, nil
}

// DecodeGroup reads a bare query group from JSON, validates it and returns
// it in canonical form.
func DecodeGroup(r io.Reader) (TagQueryGroup, error) {
	var group TagQueryGroup
	if err := json.NewDecoder(r).Decode(&group); err != nil {
		return TagQueryGroup{}, fmt.Errorf("decode query group: %w", err)
	}
	if err := validatePayload(&group); err != nil {
		return TagQueryGroup{}, err
	}
	return group.Canonical(), nil
}

func validatePayload(v any) error {
	err := payloadValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("invalid selection payload: %s fails %q", payloadFieldPath(fe), fe.Tag())
	}
	return fmt.Errorf("invalid selection payload: %w", err)
}

// payloadFieldPath strips the root struct name from the validator's
// namespace so errors read "Query.AllOf[0].Category" rather than
// "Request.Query.AllOf[0].Category".
func payloadFieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
