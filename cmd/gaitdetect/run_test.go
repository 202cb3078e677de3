// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/gait_computer/internal/gait"
	"github.com/relabs-tech/gait_computer/internal/sensors"
	"github.com/relabs-tech/gait_computer/internal/store"
)

func writeRecording(t *testing.T, header bool) string {
	t.Helper()
	var b strings.Builder
	if header {
		b.WriteString("time,acc_x\n")
	}
	for i := range 2000 {
		ts := float64(i) / 100
		fmt.Fprintf(&b, "%.2f,%.6f\n", ts, sensors.WalkingG(ts, 1.8, 100))
	}
	path := filepath.Join(t.TempDir(), "walk.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	return path
}

func defaultOptions() runOptions {
	return runOptions{rate: 100, minStride: 0.8, column: "1"}
}

func TestReadColumn(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		column string
		want   []float64
	}{
		{"single column", "1.0\n1.5\n0.5\n", "0", []float64{1, 1.5, 0.5}},
		{"by index with header", "t,acc\n0,1.1\n1,0.9\n", "1", []float64{1.1, 0.9}},
		{"by name", "t, Acc\n0,1.1\n1,0.9\n", "acc", []float64{1.1, 0.9}},
		{"comments", "# exported\n2\n3\n", "0", []float64{2, 3}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := readColumn(strings.NewReader(c.input), c.column)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Errorf("got %v, want %v", got, c.want)
				}
			}
		})
	}

	errorCases := []struct {
		name   string
		input  string
		column string
	}{
		{"unknown name", "a,b\n1,2\n", "c"},
		{"missing column", "1,2\n3\n", "1"},
		{"bad number", "1\nx\n", "0"},
		{"empty", "", "0"},
		{"negative index", "1\n", "-1"},
	}
	for _, c := range errorCases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := readColumn(strings.NewReader(c.input), c.column); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRun(t *testing.T) {

	t.Run("prints events as JSON", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(defaultOptions(), writeRecording(t, true), &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got output
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if got.Samples != 2000 {
			t.Errorf("got %d samples, want 2000", got.Samples)
		}
		if len(got.Result.FC) < 15 {
			t.Errorf("got %d FC events", len(got.Result.FC))
		}
		if got.Result.SignalStep != nil {
			t.Error("filtered signals printed without --signals")
		}
		if got.Summary.CadenceSPM < 100 || got.Summary.CadenceSPM > 116 {
			t.Errorf("cadence %.1f, want about 108", got.Summary.CadenceSPM)
		}
	})

	t.Run("signals on request", func(t *testing.T) {
		opts := defaultOptions()
		opts.signals = true
		var out bytes.Buffer
		if err := run(opts, writeRecording(t, false), &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got output
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if len(got.Result.SignalStep) != 2000 {
			t.Errorf("step signal has %d samples, want 2000", len(got.Result.SignalStep))
		}
	})

	t.Run("saves the session", func(t *testing.T) {
		opts := defaultOptions()
		opts.storePath = t.TempDir()
		opts.start = "2026-03-01T10:00:00Z"
		if err := run(opts, writeRecording(t, true), &bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		st, err := store.Open(opts.storePath)
		if err != nil {
			t.Fatalf("reopen store: %v", err)
		}
		defer st.Close()
		s, err := st.Get(time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Source != "walk.csv" || s.Samples != 2000 || len(s.FC) == 0 {
			t.Errorf("stored session %+v", s)
		}
	})

	t.Run("detection errors keep their kind", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.csv")
		if err := os.WriteFile(path, []byte("1\n1\n1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		opts := defaultOptions()
		opts.column = "0"
		err := run(opts, path, &bytes.Buffer{})
		if !errors.Is(err, gait.ErrSignalTooShort) {
			t.Errorf("got %v, want ErrSignalTooShort", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if err := run(defaultOptions(), filepath.Join(t.TempDir(), "nope.csv"), &bytes.Buffer{}); err == nil {
			t.Error("expected an error")
		}
	})
}
