// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"log"
	"strings"

	"github.com/mapfeeds/tablemap/geo"
)

// defaultSentinel marks a broken spreadsheet formula reference. A cell
// carrying it is invalid, not intentionally empty.
const defaultSentinel = "#REF!"

// TransformFunc cleans a raw cell into its output property value.
type TransformFunc func(string) any

// Built-in property transforms.
var (
	// TextTransform repairs encoding artifacts and trims.
	TextTransform TransformFunc = func(s string) any { return CleanText(s) }
	// DateTransform repairs text, then normalizes slash dates to ISO.
	DateTransform TransformFunc = func(s string) any { return ParseDate(CleanText(s)) }
	// NumberTransform parses human-formatted numbers; blank and junk read as 0.
	NumberTransform TransformFunc = func(s string) any { return CleanNumeric(s) }
	// RawTransform passes the cell through untouched.
	RawTransform TransformFunc = func(s string) any { return s }
)

// PropertyRule maps one source column onto one output property.
type PropertyRule struct {
	Column    string
	Name      string
	Transform TransformFunc // nil means TextTransform
}

// FieldMapping configures the conversion of one table shape into
// features. Coordinate configuration is one of: a Lat/Lon column pair, a
// single Combined "lat,lon" column, or nothing at all, in which case the
// schema is sniffed from the column names.
type FieldMapping struct {
	Lat      string
	Lon      string
	Combined string

	// Filter names a column whose cleaned upper-cased value must be
	// exactly "TRUE" for the row to be retained. Empty disables
	// filtering. Absent or malformed cells count as FALSE.
	Filter string

	// Required lists columns that must be non-empty and not the
	// sentinel after cleaning.
	Required []string

	// Sentinel overrides defaultSentinel.
	Sentinel string

	// TypeTag, when set, is emitted as the constant "type" property.
	TypeTag string

	// Properties maps source columns onto output properties, in order.
	Properties []PropertyRule

	// Passthrough emits unmapped columns verbatim under lower-cased
	// keys. When false, unmapped columns are dropped.
	Passthrough bool
}

func (m *FieldMapping) sentinel() string {
	if m.Sentinel == "" {
		return defaultSentinel
	}

	return m.Sentinel
}

// SkipReason classifies why a row was dropped. Dropping a row is part of
// normal operation, not an error.
type SkipReason int

const (
	// SkipFiltered means the show flag was not TRUE.
	SkipFiltered SkipReason = iota
	// SkipCoordinateMissing means a coordinate cell was blank or unparseable.
	SkipCoordinateMissing
	// SkipCoordinateRange means a parsed coordinate fell outside WGS84 bounds.
	SkipCoordinateRange
	// SkipCombinedMalformed means a combined cell did not split into two parts.
	SkipCombinedMalformed
	// SkipRequiredField means a required cell was empty or the sentinel.
	SkipRequiredField
)

func (r SkipReason) String() string {
	switch r {
	case SkipFiltered:
		return "filtered out"
	case SkipCoordinateMissing:
		return "missing coordinates"
	case SkipCoordinateRange:
		return "coordinates out of range"
	case SkipCombinedMalformed:
		return "malformed combined coordinates"
	case SkipRequiredField:
		return "missing required field"
	default:
		return "unknown"
	}
}

// ConvertMetrics tracks row accounting for one or more conversions.
type ConvertMetrics struct {
	Processed int
	Skipped   int
	SkippedBy map[SkipReason]int
}

// Merge combines the metrics from another ConvertMetrics into this one.
func (m *ConvertMetrics) Merge(o *ConvertMetrics) *ConvertMetrics {
	if o == nil {
		return m
	}

	m.Processed += o.Processed
	m.Skipped += o.Skipped

	for reason, n := range o.SkippedBy {
		m.count(reason, n)
	}

	return m
}

func (m *ConvertMetrics) count(reason SkipReason, n int) {
	if m.SkippedBy == nil {
		m.SkippedBy = make(map[SkipReason]int)
	}

	m.SkippedBy[reason] += n
}

// Converter turns a Table into a feature collection according to a
// FieldMapping. The zero value is usable; diagnostics go to the default
// logger.
type Converter struct {
	// Logger receives per-row skip diagnostics and the summary line.
	Logger *log.Logger

	// Progress, when set, is invoked once per input row.
	Progress func()

	Metrics ConvertMetrics
}

func (c *Converter) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)

		return
	}

	log.Printf(format, args...)
}

// Convert runs the pipeline over every row in input order. Row-level
// problems drop the row and continue; only schema resolution failures
// abort. Row numbers in diagnostics are 1-based with the header as row 1,
// matching what a spreadsheet user sees.
func (c *Converter) Convert(t *Table, m *FieldMapping) (*geo.FeatureCollection, error) {
	coords, err := m.resolveCoordinates(t)
	if err != nil {
		return nil, err
	}

	if coords.combined != "" {
		c.logf("Resolved combined coordinate column %q", coords.combined)
	} else {
		c.logf("Resolved coordinate columns: latitude %q, longitude %q", coords.lat, coords.lon)
	}

	filterCol := ""
	if m.Filter != "" {
		// An unresolvable filter column keeps the configured name; every
		// row then reads "" and is filtered out, the permissive default.
		filterCol = m.Filter
		if col, ok := resolveColumn(t.Columns, m.Filter); ok {
			filterCol = col
		}
	}

	consumed := map[string]bool{
		coords.lat:      true,
		coords.lon:      true,
		coords.combined: true,
		filterCol:       true,
	}

	fc := geo.NewFeatureCollection(len(t.Rows))
	sentinel := m.sentinel()

	for i, row := range t.Rows {
		rowNum := i + 2

		if c.Progress != nil {
			c.Progress()
		}

		if filterCol != "" {
			if flag := strings.ToUpper(strings.TrimSpace(row[filterCol])); flag != "TRUE" {
				c.skip(rowNum, SkipFiltered, "%s=%q", filterCol, row[filterCol])

				continue
			}
		}

		lat, lon, reason, ok := extractCoordinates(row, coords)
		if !ok {
			if coords.combined != "" {
				c.skip(rowNum, reason, "%s=%q", coords.combined, row[coords.combined])
			} else {
				c.skip(rowNum, reason, "lat=%q, lon=%q", row[coords.lat], row[coords.lon])
			}

			continue
		}

		if missing, ok := checkRequired(row, t.Columns, m.Required, sentinel); !ok {
			c.skip(rowNum, SkipRequiredField, "%s", missing)

			continue
		}

		fc.Append(geo.NewPointFeature(lat, lon, c.buildProperties(row, t.Columns, m, consumed)))
		c.Metrics.Processed++
	}

	c.logf("Conversion complete - %d features, %d rows skipped", c.Metrics.Processed, c.Metrics.Skipped)

	return fc, nil
}

func (c *Converter) skip(rowNum int, reason SkipReason, format string, args ...any) {
	c.Metrics.Skipped++
	c.Metrics.count(reason, 1)
	c.logf("Row %d: skipping (%s): "+format, append([]any{rowNum, reason}, args...)...)
}

// extractCoordinates reads and validates the row's coordinates. A false
// result carries the skip reason.
func extractCoordinates(row Row, coords coordinateColumns) (lat, lon float64, reason SkipReason, ok bool) {
	if coords.combined != "" {
		raw := strings.TrimSpace(row[coords.combined])
		if raw == "" {
			return 0, 0, SkipCoordinateMissing, false
		}

		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			return 0, 0, SkipCombinedMalformed, false
		}

		latV, okLat := CleanCoordinate(parts[0])
		lonV, okLon := CleanCoordinate(parts[1])

		if !okLat || !okLon {
			return 0, 0, SkipCoordinateMissing, false
		}

		lat, lon = latV, lonV
	} else {
		latV, okLat := CleanCoordinate(row[coords.lat])
		lonV, okLon := CleanCoordinate(row[coords.lon])

		if !okLat || !okLon {
			return 0, 0, SkipCoordinateMissing, false
		}

		lat, lon = latV, lonV
	}

	if geo.ValidateCoordinates(lat, lon) != nil {
		return 0, 0, SkipCoordinateRange, false
	}

	return lat, lon, 0, true
}

// checkRequired verifies the required columns. Required names resolve
// against the actual columns the same way coordinates do.
func checkRequired(row Row, columns []string, required []string, sentinel string) (string, bool) {
	for _, name := range required {
		col := name
		if resolved, ok := resolveColumn(columns, name); ok {
			col = resolved
		}

		if v := CleanText(row[col]); v == "" || v == sentinel {
			return col, false
		}
	}

	return "", true
}

// buildProperties assembles the output property map: the constant type
// tag first, then the explicit rules in order, then - in permissive
// mappings - the remaining columns verbatim under lower-cased keys.
func (c *Converter) buildProperties(row Row, columns []string, m *FieldMapping, consumed map[string]bool) map[string]any {
	props := make(map[string]any, len(m.Properties)+1)

	if m.TypeTag != "" {
		props["type"] = m.TypeTag
	}

	ruled := make(map[string]bool, len(m.Properties))

	for _, rule := range m.Properties {
		col := rule.Column
		if resolved, ok := resolveColumn(columns, rule.Column); ok {
			col = resolved
		}

		ruled[col] = true

		transform := rule.Transform
		if transform == nil {
			transform = TextTransform
		}

		props[rule.Name] = transform(row[col])
	}

	if m.Passthrough {
		for _, col := range columns {
			if consumed[col] || ruled[col] {
				continue
			}

			props[strings.ToLower(col)] = row[col]
		}
	}

	return props
}
