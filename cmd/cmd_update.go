// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/mapfeeds/tablemap/tabular"
	"github.com/spf13/cobra"
)

var updateOptions = &tabular.ClientOptions{}

func datasetArg(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
			return err
		}

		if _, err := tabular.Find(args[0]); err != nil {
			return err
		}
	}

	return nil
}

var updateCmd = &cobra.Command{
	Use:   "update [dataset]",
	Short: "Fetch published sheet data and regenerate GeoJSON artifacts",
	Args:  datasetArg,
	RunE: func(_ *cobra.Command, args []string) error {
		updateOptions.UserAgent = fmt.Sprintf("tablemap/%s (+https://github.com/mapfeeds/tablemap)", Version)

		client := tabular.NewClient(updateOptions)

		if len(args) == 0 {
			return client.UpdateAll()
		}

		ds, err := tabular.Find(args[0])
		if err != nil {
			return err
		}

		if _, err := client.Update(ds); err != nil {
			return err
		}

		log.Printf(
			"Update complete - %d features, %d rows skipped",
			client.Metrics.Processed,
			client.Metrics.Skipped,
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(
		&updateOptions.OutDir,
		"out-dir",
		"data",
		"Directory where artifacts are written",
	)
	updateCmd.Flags().BoolVar(
		&updateOptions.DryRun,
		"dry-run",
		false,
		"Fetch and convert but don't write any file",
	)
	updateCmd.Flags().BoolVar(
		&updateOptions.KeepRaw,
		"keep-raw",
		false,
		"Also save the fetched CSV next to the artifact",
	)
	updateCmd.Flags().BoolVar(
		&updateOptions.Combined,
		"combined",
		true,
		"When updating every dataset, also write combined.geojson",
	)
	updateCmd.Flags().BoolVar(
		&updateOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	updateCmd.Flags().BoolVar(
		&updateOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
