// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"fmt"
	"strings"

	"github.com/mapfeeds/tablemap/utils/textutils"
)

// SchemaError reports that coordinate-bearing columns could not be
// located. It aborts the run: a silently empty artifact is worse than a
// failed job.
type SchemaError struct {
	Wanted  []string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"tabular: could not locate %s column(s); available columns: %s",
		strings.Join(e.Wanted, ", "),
		strings.Join(e.Columns, ", "),
	)
}

// resolveColumn locates a column by name. Strategies apply in order:
// exact match, folded (case/accent-insensitive) match, folded substring
// match. Within a strategy the first match in column order wins, so
// schema drift resolves deterministically.
func resolveColumn(columns []string, want string) (string, bool) {
	for _, col := range columns {
		if col == want {
			return col, true
		}
	}

	for _, col := range columns {
		if textutils.FoldEqual(col, want) {
			return col, true
		}
	}

	folded := textutils.Fold(want)

	for _, col := range columns {
		if strings.Contains(textutils.Fold(col), folded) {
			return col, true
		}
	}

	return "", false
}

// sniffColumn locates a column whose folded name contains any of the
// candidate substrings, preferring earlier columns.
func sniffColumn(columns []string, candidates ...string) (string, bool) {
	for _, col := range columns {
		folded := textutils.Fold(col)

		for _, candidate := range candidates {
			if strings.Contains(folded, candidate) {
				return col, true
			}
		}
	}

	return "", false
}

// coordinateColumns is the outcome of schema resolution: either a lat/lon
// column pair or a single combined "lat,lon" column.
type coordinateColumns struct {
	lat      string
	lon      string
	combined string
}

// resolveCoordinates maps the coordinate configuration onto actual table
// columns. With explicit names it resolves each one; with none it falls
// back to sniffing the way the flexible-schema sources do: a lat/lon pair
// first, a combined geolocation column second.
func (m *FieldMapping) resolveCoordinates(t *Table) (coordinateColumns, error) {
	if m.Combined != "" {
		col, ok := resolveColumn(t.Columns, m.Combined)
		if !ok {
			return coordinateColumns{}, &SchemaError{Wanted: []string{m.Combined}, Columns: t.Columns}
		}

		return coordinateColumns{combined: col}, nil
	}

	if m.Lat != "" || m.Lon != "" {
		lat, okLat := resolveColumn(t.Columns, m.Lat)
		lon, okLon := resolveColumn(t.Columns, m.Lon)

		if !okLat || !okLon {
			missing := make([]string, 0, 2)
			if !okLat {
				missing = append(missing, m.Lat)
			}
			if !okLon {
				missing = append(missing, m.Lon)
			}

			return coordinateColumns{}, &SchemaError{Wanted: missing, Columns: t.Columns}
		}

		return coordinateColumns{lat: lat, lon: lon}, nil
	}

	lat, okLat := sniffColumn(t.Columns, "lat")
	lon, okLon := sniffColumn(t.Columns, "lon", "lng")

	if okLat && okLon {
		return coordinateColumns{lat: lat, lon: lon}, nil
	}

	if combined, ok := sniffColumn(t.Columns, "geolocation", "location"); ok {
		return coordinateColumns{combined: combined}, nil
	}

	return coordinateColumns{}, &SchemaError{
		Wanted:  []string{"lat", "lon/lng", "geolocation"},
		Columns: t.Columns,
	}
}
