// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Marshal serializes a collection as indented UTF-8 JSON. HTML escaping is
// disabled so accented names and URLs survive verbatim in the artifact.
func Marshal(fc *FeatureCollection) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(fc); err != nil {
		return nil, fmt.Errorf("marshaling feature collection: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFile serializes the collection to path, creating missing parent
// directories. The content is fully marshaled before the file is touched,
// so a marshal failure never truncates a previous artifact.
func WriteFile(path string, fc *FeatureCollection) error {
	data, err := Marshal(fc)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing feature collection: %w", err)
	}

	return nil
}
