// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/mapfeeds/tablemap/tabular"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets known to the registry",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, b, c := strings.Repeat("─", 16), strings.Repeat("─", 26), strings.Repeat("─", 40)
		fmt.Println("Available datasets:")
		fmt.Printf("╭─%-16s─┬─%-26s─┬─%-40s╮\n", a, b, c)
		fmt.Printf("│ %-16s │ %-26s │ %-40s│\n", "Name", "Output", "Description")
		fmt.Printf("├─%-16s─┼─%-26s─┼─%-40s┤\n", a, b, c)
		err := tabular.Each(func(ds tabular.DatasetReference) error {
			fmt.Printf("│ %-16s │ %-26s │ %-40s│\n", ds.Name, ds.Output, ds.Description)

			return nil
		})
		fmt.Printf("╰─%-16s─┴─%-26s─┴─%-40s╯\n", a, b, c)

		return err
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
