// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

// Package geo holds the GeoJSON artifact model produced by the conversion
// pipeline. Geometry is built on go-geom so that coordinate handling (and
// in particular the [longitude, latitude] axis order) is delegated to the
// library instead of hand-assembled slices.
package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

var (
	// ErrLatitudeRange reports a latitude outside [-90, 90].
	ErrLatitudeRange = errors.New("latitude out of range")
	// ErrLongitudeRange reports a longitude outside [-180, 180].
	ErrLongitudeRange = errors.New("longitude out of range")
)

// Metadata describes the provenance of a generated collection. The JSON
// field names match the artifact format consumed downstream.
type Metadata struct {
	LastUpdated   time.Time `json:"last_updated"`
	Source        string    `json:"source"`
	TotalFeatures int       `json:"total_features"`
}

// Feature is a single geolocated record. It carries its own JSON codec
// instead of delegating to the library's Feature type: that one runs
// property strings through json.Marshal, which escapes & and < to \u
// sequences, and the artifact must keep URLs and text verbatim.
type Feature struct {
	Geometry   geom.T
	Properties map[string]any
}

// MarshalJSON implements the json.Marshaler interface. Geometry is
// encoded by go-geom (it contains only a type tag and numbers); the
// properties object is encoded with HTML escaping disabled.
func (f *Feature) MarshalJSON() ([]byte, error) {
	geometry, err := geojson.Marshal(f.Geometry)
	if err != nil {
		return nil, fmt.Errorf("marshaling geometry: %w", err)
	}

	properties := f.Properties
	if properties == nil {
		properties = map[string]any{}
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":"Feature","geometry":`)
	buf.Write(geometry)
	buf.WriteString(`,"properties":`)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(properties); err != nil {
		return nil, fmt.Errorf("marshaling properties: %w", err)
	}

	// Encode leaves a trailing newline after the properties object.
	buf.Truncate(buf.Len() - 1)
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var gf geojson.Feature
	if err := json.Unmarshal(data, &gf); err != nil {
		return err
	}

	f.Geometry = gf.Geometry
	f.Properties = gf.Properties

	return nil
}

// FeatureCollection is an ordered set of point features plus optional
// provenance metadata. Feature order mirrors the source row order so that
// two runs over the same input produce byte-identical artifacts.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
	Metadata *Metadata  `json:"metadata,omitempty"`
}

// NewFeatureCollection returns an empty collection. Features is allocated
// so an empty collection serializes as [] and not null.
func NewFeatureCollection(capacity int) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*Feature, 0, capacity),
	}
}

// ValidateCoordinates checks the global WGS84 bounds.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: %f", ErrLatitudeRange, lat)
	}

	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %f", ErrLongitudeRange, lon)
	}

	return nil
}

// NewPointFeature builds a Point feature from a latitude/longitude pair.
// The caller is expected to have validated the ranges already; the
// arguments are taken in lat/lon order and flipped here, once, into the
// GeoJSON axis order.
func NewPointFeature(lat, lon float64, properties map[string]any) *Feature {
	if properties == nil {
		properties = map[string]any{}
	}

	return &Feature{
		Geometry:   geom.NewPointFlat(geom.XY, []float64{lon, lat}),
		Properties: properties,
	}
}

// Append adds a feature preserving insertion order.
func (fc *FeatureCollection) Append(f *Feature) {
	fc.Features = append(fc.Features, f)
}

// Stamp records generation metadata on the collection.
func (fc *FeatureCollection) Stamp(source string, now time.Time) {
	fc.Metadata = &Metadata{
		LastUpdated:   now,
		Source:        source,
		TotalFeatures: len(fc.Features),
	}
}

// Merge concatenates collections in argument order into a new collection.
// Metadata is not carried over; the caller stamps the result.
func Merge(collections ...*FeatureCollection) *FeatureCollection {
	n := 0
	for _, fc := range collections {
		n += len(fc.Features)
	}

	merged := NewFeatureCollection(n)
	for _, fc := range collections {
		merged.Features = append(merged.Features, fc.Features...)
	}

	return merged
}
