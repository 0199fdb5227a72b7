// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mapfeeds/tablemap/geo"
	"github.com/mapfeeds/tablemap/tabular"
	"github.com/spf13/cobra"
)

var convertOptions struct {
	dataset  string
	metadata bool
	sniff    bool
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.csv> <output.geojson>",
	Short: "Convert a local CSV file into a GeoJSON artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		input, output := args[0], args[1]

		mapping, err := convertMapping()
		if err != nil {
			return err
		}

		f, err := os.Open(filepath.Clean(input))
		if err != nil {
			return fmt.Errorf("opening input file: %w", err)
		}

		table, err := tabular.ReadTable(f)
		if cerr := f.Close(); cerr != nil {
			return errors.Join(err, fmt.Errorf("closing input file: %w", cerr))
		}

		if err != nil {
			return fmt.Errorf("parsing %s: %w", input, err)
		}

		log.Printf("Read %d columns, %d rows from %s", len(table.Columns), len(table.Rows), input)

		conv := &tabular.Converter{}

		fc, err := conv.Convert(table, mapping)
		if err != nil {
			return err
		}

		if convertOptions.metadata {
			fc.Stamp(input, time.Now())
		}

		if err := geo.WriteFile(output, fc); err != nil {
			return err
		}

		log.Printf(
			"Conversion complete - processed %d records, skipped %d, output %s",
			conv.Metrics.Processed,
			conv.Metrics.Skipped,
			output,
		)

		return nil
	},
}

// convertMapping picks the column mapping: a registry dataset's mapping
// by default, or pure schema sniffing with --sniff.
func convertMapping() (*tabular.FieldMapping, error) {
	if convertOptions.sniff {
		return &tabular.FieldMapping{Passthrough: true}, nil
	}

	ds, err := tabular.Find(convertOptions.dataset)
	if err != nil {
		return nil, err
	}

	return &ds.Mapping, nil
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(
		&convertOptions.dataset,
		"dataset",
		"marathons",
		"Registry dataset whose column mapping to apply",
	)
	convertCmd.Flags().BoolVar(
		&convertOptions.metadata,
		"metadata",
		false,
		"Include a generation metadata block in the artifact",
	)
	convertCmd.Flags().BoolVar(
		&convertOptions.sniff,
		"sniff",
		false,
		"Ignore the registry and discover coordinate columns by name",
	)
}
