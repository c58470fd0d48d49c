// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError represents an input validation error: the caller violated
// the contract, as opposed to a well-formed call the business rules reject.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateID checks that an identifier is usable: non-blank, valid UTF-8, and
// free of control characters.
func ValidateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: field, Message: "cannot be empty"}
	}
	if !utf8.ValidString(id) {
		return &ValidationError{Field: field, Message: "must be valid UTF-8"}
	}
	if hasControlChars(id) {
		return &ValidationError{Field: field, Message: "cannot contain control characters"}
	}
	return nil
}

// LooksLikeOpaqueID reports whether s has the shape of an opaque entity
// identifier. This is a heuristic used only to decide whether a failed id
// lookup should fall back to display-name resolution: a string that parses
// as a UUID is assumed to be an id and never retried as a name.
func LooksLikeOpaqueID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
