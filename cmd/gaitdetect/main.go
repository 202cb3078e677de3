// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// gaitdetect runs FC/IC detection over accelerometer recordings stored as
// CSV files and prints the events as JSON.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "gaitdetect",
		Short: "Offline gait event detection",
		Long: `gaitdetect finds Final Contact and Initial Contact events in a
thigh-worn accelerometer recording. Input is a CSV file with one sample
per row, in g, with gravity retained on the measured axis.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand())

	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}
