// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/mapfeeds/tablemap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
