// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"strconv"
	"strings"
)

// replacement is one entry of the text repair table.
type replacement struct {
	from string
	to   string
}

// textRepairs fixes the artifacts left by UTF-8 text that went through a
// Latin-1 round trip somewhere between the spreadsheet and its CSV export.
// The table is applied strictly in order. Order matters: "â€" is a prefix
// of every smart-punctuation entry, so it must stay last or it would
// consume the bytes the longer patterns need. TestTextRepairsOrder pins
// that invariant down.
var textRepairs = []replacement{
	{"â€™", "'"},
	{"â€œ", "\""},
	{"â€", "\""},
	{"â€“", "–"},
	{"â€”", "—"},
	{"Ã©", "é"},
	{"Ã¨", "è"},
	{"Ã¡", "á"},
	{"Ã­", "í"},
	{"Ã³", "ó"},
	{"Ãº", "ú"},
	{"Ã¼", "ü"},
	{"Ã±", "ñ"},
	{"Ã§", "ç"},
	{"â€", "\""},
}

// CleanText repairs double-encoding artifacts and trims surrounding
// whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	for _, r := range textRepairs {
		s = strings.ReplaceAll(s, r.from, r.to)
	}

	return strings.TrimSpace(s)
}

// CleanCoordinate parses a decimal coordinate cell. Spreadsheets
// occasionally export the typographic minus sign (U+2212) instead of the
// ASCII one, which would otherwise fail to parse. Blank or unparseable
// cells report ok=false; they are "missing", not an error.
func CleanCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "−", "-"))
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// ParseDate reinterprets a slash-separated day/month/year cell as an ISO
// YYYY-MM-DD string, zero-padding day and month. Anything else, including
// slash input with a different part count, passes through unchanged. No
// calendar validation is attempted.
func ParseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "/") {
		return s
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}

	day, month, year := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])

	return year + "-" + zfill(month) + "-" + zfill(day)
}

func zfill(s string) string {
	if len(s) < 2 {
		return "0" + s
	}

	return s
}

// CleanNumeric parses a human-formatted numeric cell, stripping thousands
// separators, currency glyphs and spaces. Empty or unparseable input
// yields 0, which is indistinguishable from a true zero reading; callers
// that care about the difference must check the raw cell first.
func CleanNumeric(s string) float64 {
	for _, junk := range []string{",", "$", "€", " ", " "} {
		s = strings.ReplaceAll(s, junk, "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return v
}
