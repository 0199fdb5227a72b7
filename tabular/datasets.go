// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errMultipleMatches = errors.New("multiple matches")
	errDatasetNotFound = errors.New("dataset not found")
)

// DatasetReference describes one published spreadsheet tab: where to
// fetch it, where its artifact goes, and how its columns map onto
// features.
type DatasetReference struct {
	Name        string       // Short name used on the command line
	Description string       // Human description for listings
	SourceURL   string       // Published CSV export URL
	Output      string       // Artifact path, relative to the output directory
	Mapping     FieldMapping // Column mapping configuration
}

// Validate checks if the DatasetReference has all required fields.
func (d *DatasetReference) Validate() error {
	if d.Name == "" {
		return errors.New("dataset reference: name must not be empty")
	}

	if d.SourceURL == "" {
		return fmt.Errorf("dataset reference %q: source URL must not be empty", d.Name)
	}

	if d.Output == "" {
		return fmt.Errorf("dataset reference %q: output path must not be empty", d.Name)
	}

	return nil
}

// All available datasets. The marathons sheet has an explicit curated
// mapping; the rest are loose sheets whose schema is sniffed per run.
var datasets = []DatasetReference{
	{
		Name:        "marathons",
		Description: "Curated marathon calendar",
		SourceURL:   "https://docs.google.com/spreadsheets/d/e/2PACX-1vSDhMx8shcqFiqMKjLnrC0NNhV3b_kNCyn7FfpT0IYd8gPJf0VnKtgkGSmtJRWzbTaLR1LtSeMnmwny/pub?gid=190506599&single=true&output=csv",
		Output:      "marathons.geojson",
		Mapping: FieldMapping{
			Lat:      "lat",
			Lon:      "lon",
			Filter:   "show?",
			Required: []string{"Name", "City"},
			TypeTag:  "marathon",
			Properties: []PropertyRule{
				{Column: "Name", Name: "name"},
				{Column: "City", Name: "city"},
				{Column: "ISO3", Name: "country_iso"},
				{Column: "Year", Name: "year"},
				{Column: "Full / Half", Name: "marathon_type"},
				{Column: "Date", Name: "date", Transform: DateTransform},
				{Column: "Sign up deadlines", Name: "signup_deadline", Transform: DateTransform},
				{Column: "Availability", Name: "availability"},
				{Column: "Landing Page", Name: "landing_page"},
				{Column: "Google Ads", Name: "google_ads"},
				{Column: "Comments", Name: "comments"},
				{Column: "Map Info Text", Name: "map_info_text"},
			},
		},
	},
	{
		Name:        "marathons-geoloc",
		Description: "Marathon tab with a combined geolocation column",
		SourceURL:   "https://docs.google.com/spreadsheets/d/e/2PACX-1vSDhMx8shcqFiqMKjLnrC0NNhV3b_kNCyn7FfpT0IYd8gPJf0VnKtgkGSmtJRWzbTaLR1LtSeMnmwny/pub?gid=1011192317&single=true&output=csv",
		Output:      "marathons-geoloc.geojson",
		Mapping: FieldMapping{
			Combined:    "geolocation",
			Passthrough: true,
		},
	},
	{
		Name:        "solar",
		Description: "Solar installation sites",
		SourceURL:   "https://docs.google.com/spreadsheets/d/1Kx_K2B0Xf8OkQjE0QjO3QR7NfZf9X1F7Q9W9F1Z1Q9Q/export?format=csv&gid=0",
		Output:      "solar.geojson",
		Mapping: FieldMapping{
			Filter:      "show",
			Passthrough: true,
		},
	},
	{
		Name:        "medical",
		Description: "Medical shipment destinations",
		SourceURL:   "https://docs.google.com/spreadsheets/d/1Kx_K2B0Xf8OkQjE0QjO3QR7NfZf9X1F7Q9W9F1Z1Q9Q/export?format=csv&gid=1234567890",
		Output:      "medical.geojson",
		Mapping: FieldMapping{
			Filter:      "show",
			Passthrough: true,
		},
	},
}

// Find locates a dataset by name using a case insensitive prefix match.
// Returns an error if no match or multiple matches are found.
func Find(q string) (*DatasetReference, error) {
	if q == "" {
		return nil, errors.New("empty search query")
	}

	var found *DatasetReference

	for i := range datasets {
		d := &datasets[i]
		if len(d.Name) < len(q) || !strings.EqualFold(d.Name[:len(q)], q) {
			continue
		}

		// An exact match always wins over longer prefix matches.
		if strings.EqualFold(d.Name, q) {
			dsCopy := *d

			return &dsCopy, nil
		}

		if found == nil {
			dsCopy := *d
			found = &dsCopy
		} else {
			return nil, fmt.Errorf("%w for %q: %q, %q", errMultipleMatches, q, found.Name, d.Name)
		}
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %q", errDatasetNotFound, q)
	}

	return found, nil
}

// Each applies the given callback to each dataset reference in registry
// order. It stops and returns the error if the callback returns one.
func Each(callback func(DatasetReference) error) error {
	for i := range datasets {
		if err := callback(datasets[i]); err != nil {
			return err
		}
	}

	return nil
}
