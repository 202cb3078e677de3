// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/gait_computer/internal/gait"
)

func TestMockWalker(t *testing.T) {

	t.Run("is deterministic", func(t *testing.T) {
		a := NewMockWalker(100, "x", 1)
		b := NewMockWalker(100, "x", 1)
		for i := 0; i < 500; i++ {
			sa, _ := a.NextAccel()
			sb, _ := b.NextAccel()
			if sa.Ax != sb.Ax || sa.Ay != sb.Ay || sa.Az != sb.Az {
				t.Fatalf("sample %d differs: %+v vs %+v", i, sa, sb)
			}
		}
	})

	t.Run("numbers samples from one", func(t *testing.T) {
		m := NewMockWalker(100, "x", 1)
		for want := uint64(1); want <= 3; want++ {
			s, _ := m.NextAccel()
			if s.Seq != want {
				t.Errorf("got seq %d, want %d", s.Seq, want)
			}
		}
	})

	t.Run("puts the gait signal on the configured axis", func(t *testing.T) {
		m := NewMockWalker(100, "z", 1)
		var sum float64
		for i := 0; i < 1000; i++ {
			s, _ := m.NextAccel()
			z, err := s.Axis("z")
			if err != nil {
				t.Fatal(err)
			}
			sum += z
		}
		// Gravity plus the mean of the heel-strike pulses.
		if mean := sum / 1000; math.Abs(mean-1.07) > 0.05 {
			t.Errorf("mean z %.3f g, want about 1.07", mean)
		}
	})

	t.Run("walking stream is detectable", func(t *testing.T) {
		m := NewMockWalker(100, "x", 1)
		acc := make([]float64, 2000)
		for i := range acc {
			s, _ := m.NextAccel()
			acc[i], _ = s.Axis("x")
		}
		res, err := gait.Detect(acc, 100, 0.8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(res.StepFrequency-1.8) > 0.05 {
			t.Errorf("step frequency %.3f, want 1.8", res.StepFrequency)
		}
		if len(res.FC) < 15 {
			t.Errorf("only %d FC events", len(res.FC))
		}
	})

	t.Run("seated stream has no stride", func(t *testing.T) {
		m := NewMockWalker(100, "x", 1)
		m.Seated = true
		acc := make([]float64, 2000)
		for i := range acc {
			s, _ := m.NextAccel()
			acc[i], _ = s.Axis("x")
		}
		_, err := gait.Detect(acc, 100, 0.8)
		if !errors.Is(err, gait.ErrInsufficientSpectralContent) {
			t.Errorf("got %v, want ErrInsufficientSpectralContent", err)
		}
	})
}
