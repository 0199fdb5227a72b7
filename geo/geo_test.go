// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/twpayne/go-geom"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantErr  bool
	}{
		{"origin", 0, 0, false},
		{"montevideo", -34.9011, -56.1645, false},
		{"north pole", 90, 0, false},
		{"date line", 0, -180, false},
		{"lat too high", 90.0001, 0, true},
		{"lat too low", -91, 0, true},
		{"lon too high", 0, 180.5, true},
		{"lon too low", 0, -181, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lon)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateCoordinates(%f, %f) = %v, wantErr %v", tc.lat, tc.lon, err, tc.wantErr)
			}
		})
	}
}

// Features must carry coordinates in [lon, lat] order regardless of the
// lat-first argument order of NewPointFeature.
func TestNewPointFeatureAxisOrder(t *testing.T) {
	f := NewPointFeature(-34.9011, -56.1645, map[string]any{"name": "Montevideo"})

	p, ok := f.Geometry.(*geom.Point)
	if !ok {
		t.Fatalf("geometry is %T, want *geom.Point", f.Geometry)
	}

	coords := p.FlatCoords()
	if coords[0] != -56.1645 || coords[1] != -34.9011 {
		t.Fatalf("coordinates = %v, want [lon lat] = [-56.1645 -34.9011]", coords)
	}
}

func TestMarshalEmptyCollection(t *testing.T) {
	data, err := Marshal(NewFeatureCollection(0))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if !strings.Contains(string(data), `"features": []`) {
		t.Fatalf("empty collection must serialize features as [], got:\n%s", data)
	}
}

func TestMarshalPreservesNonASCII(t *testing.T) {
	fc := NewFeatureCollection(1)
	fc.Append(NewPointFeature(43.2630, -2.9350, map[string]any{
		"name": "Maratón de São Paulo",
		"url":  "https://example.com/entry?a=1&b=2",
	}))

	data, err := Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "Maratón de São Paulo") {
		t.Errorf("non-ASCII text was escaped:\n%s", out)
	}

	if !strings.Contains(out, "?a=1&b=2") {
		t.Errorf("HTML-sensitive runes were escaped:\n%s", out)
	}

	for _, escape := range []string{"\\u0026", "\\u003c", "\\u003e"} {
		if strings.Contains(out, escape) {
			t.Errorf("found %s escape sequence in:\n%s", escape, out)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	fc := NewFeatureCollection(2)
	fc.Append(NewPointFeature(40.4168, -3.7038, map[string]any{
		"name": "Madrid",
		"type": "marathon",
	}))
	fc.Append(NewPointFeature(-34.6037, -58.3816, map[string]any{
		"name": "Buenos Aires",
		"date": "2024-12-25",
	}))
	fc.Stamp("https://example.com/sheet.csv", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	data, err := Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got FeatureCollection
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.Type != "FeatureCollection" {
		t.Errorf("type = %q", got.Type)
	}

	if len(got.Features) != len(fc.Features) {
		t.Fatalf("feature count = %d, want %d", len(got.Features), len(fc.Features))
	}

	for i, f := range got.Features {
		want := fc.Features[i]

		wantCoords := want.Geometry.(*geom.Point).FlatCoords()

		p, ok := f.Geometry.(*geom.Point)
		if !ok {
			t.Fatalf("feature %d geometry is %T, want *geom.Point", i, f.Geometry)
		}

		coords := p.FlatCoords()
		for j := range wantCoords {
			if math.Abs(coords[j]-wantCoords[j]) > 1e-9 {
				t.Errorf("feature %d coords = %v, want %v", i, coords, wantCoords)
			}
		}

		for k, v := range want.Properties {
			if got := f.Properties[k]; got != v {
				t.Errorf("feature %d property %q = %v, want %v", i, k, got, v)
			}
		}
	}

	if got.Metadata == nil {
		t.Fatal("metadata was dropped")
	}

	if got.Metadata.TotalFeatures != 2 || got.Metadata.Source != "https://example.com/sheet.csv" {
		t.Errorf("metadata = %+v", got.Metadata)
	}
}

func TestMetadataFieldNames(t *testing.T) {
	fc := NewFeatureCollection(0)
	fc.Stamp("src", time.Now())

	data, err := Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	for _, field := range []string{`"last_updated"`, `"source"`, `"total_features"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("metadata field %s missing in:\n%s", field, data)
		}
	}
}

func TestMerge(t *testing.T) {
	a := NewFeatureCollection(1)
	a.Append(NewPointFeature(1, 2, map[string]any{"name": "a"}))

	b := NewFeatureCollection(2)
	b.Append(NewPointFeature(3, 4, map[string]any{"name": "b"}))
	b.Append(NewPointFeature(5, 6, map[string]any{"name": "c"}))

	merged := Merge(a, b)
	if len(merged.Features) != 3 {
		t.Fatalf("merged feature count = %d, want 3", len(merged.Features))
	}

	if name := merged.Features[0].Properties["name"]; name != "a" {
		t.Errorf("merge did not preserve argument order, first feature is %v", name)
	}
}

func TestWriteFileCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "nested", "out.geojson")

	fc := NewFeatureCollection(1)
	fc.Append(NewPointFeature(10, 20, map[string]any{"name": "x"}))

	if err := WriteFile(path, fc); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	var got FeatureCollection
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}

	if len(got.Features) != 1 {
		t.Fatalf("artifact feature count = %d, want 1", len(got.Features))
	}
}
