// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides text normalization helpers shared by the
// tabular pipeline.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes a string for loose comparisons: accents removed,
// lowercased, surrounding whitespace trimmed.
func Fold(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// FoldEqual reports whether two strings are equal under Fold.
func FoldEqual(a, b string) bool {
	return Fold(a) == Fold(b)
}
