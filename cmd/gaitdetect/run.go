// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/gait_computer/internal/app"
	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/gait"
	"github.com/relabs-tech/gait_computer/internal/session"
	"github.com/relabs-tech/gait_computer/internal/store"
)

type runOptions struct {
	rate       int
	minStride  float64
	column     string
	configPath string
	storePath  string
	start      string
	signals    bool
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Detect gait events in a CSV recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args[0], cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.rate, "rate", 100, "sampling rate in Hz")
	f.Float64Var(&opts.minStride, "min-stride", 0.8, "shortest plausible stride in seconds")
	f.StringVar(&opts.column, "column", "0", "CSV column holding the signal, by index or header name")
	f.StringVar(&opts.configPath, "config", "", "read GAIT_* parameters from this configuration file")
	f.StringVar(&opts.storePath, "store", "", "also save the session in this session store directory")
	f.StringVar(&opts.start, "start", "", "recording start time (RFC 3339) for the stored session; default now")
	f.BoolVar(&opts.signals, "signals", false, "include the three filtered signals in the output")
	return cmd
}

// output is the JSON document printed by run.
type output struct {
	File    string          `json:"file"`
	Samples int             `json:"samples"`
	Result  *gait.Result    `json:"result"`
	Summary session.Summary `json:"summary"`
}

func run(opts runOptions, path string, w io.Writer) error {
	params := gait.DefaultParams()
	if opts.configPath != "" {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		params = app.GaitParams(cfg)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	acc, err := readColumn(file, opts.column)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	res, err := gait.NewDetector(params).Detect(acc, opts.rate, opts.minStride)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	summary := session.Summarize(res, opts.rate, 0)

	if opts.storePath != "" {
		if err := save(opts, path, len(acc), res, summary); err != nil {
			return err
		}
	}

	if !opts.signals {
		res.SignalStep, res.SignalStride, res.Signal5Stride = nil, nil, nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{File: path, Samples: len(acc), Result: res, Summary: summary})
}

func save(opts runOptions, path string, n int, res *gait.Result, summary session.Summary) error {
	start := time.Now().UTC()
	if opts.start != "" {
		var err error
		if start, err = time.Parse(time.RFC3339, opts.start); err != nil {
			return fmt.Errorf("bad --start: %w", err)
		}
	}

	st, err := store.Open(opts.storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.Put(session.Session{
		Start:           start,
		End:             start.Add(time.Duration(n-1) * time.Second / time.Duration(opts.rate)),
		Source:          filepath.Base(path),
		SampleRate:      opts.rate,
		Samples:         n,
		Status:          session.StatusAnalysed,
		FC:              res.FC,
		IC:              res.IC,
		StepFrequency:   res.StepFrequency,
		StrideFrequency: res.StrideFrequency,
		Summary:         summary,
	})
}

// readColumn reads one numeric column. A first row that does not parse as
// a number is taken as the header, which lets column name a field.
func readColumn(r io.Reader, column string) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	index, byIndex := -1, false
	if i, err := strconv.Atoi(column); err == nil {
		if i < 0 {
			return nil, fmt.Errorf("column index %d is negative", i)
		}
		index, byIndex = i, true
	}

	var values []float64
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if index < 0 {
			// Header row naming the column.
			for i, name := range record {
				if strings.EqualFold(strings.TrimSpace(name), column) {
					index = i
				}
			}
			if index < 0 {
				return nil, fmt.Errorf("no column named %q", column)
			}
			continue
		}
		if index >= len(record) {
			return nil, fmt.Errorf("row %d has %d columns, want column %d", row, len(record), index)
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(record[index]), 64)
		if err != nil {
			if row == 1 && byIndex {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no samples", gait.ErrInvalidInput)
	}
	return values, nil
}
