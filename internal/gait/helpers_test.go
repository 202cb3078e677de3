// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// walkingSignal is 20 s at 100 Hz in g: gravity, a 1.8 Hz step and a
// 0.9 Hz stride component, and a heel-strike pulse on every step crest.
func walkingSignal() []float64 {
	const (
		fs      = 100.0
		seconds = 20.0
		fStep   = 1.8
		fStride = 0.9
	)
	n := int(fs * seconds)
	x := make([]float64, n)
	for i := range x {
		t := float64(i) / fs
		x[i] = 1 + 0.6*math.Sin(2*math.Pi*fStep*t) + 0.4*math.Sin(2*math.Pi*fStride*t)
	}
	for k := 0; ; k++ {
		c := (float64(k) + 0.25) / fStep * fs
		if c >= float64(n) {
			break
		}
		for i := range x {
			d := float64(i) - c
			x[i] += 1.5 * math.Exp(-d*d/2)
		}
	}
	return x
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertInts(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func assertClose(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("got %.6f, want %.6f ± %g", got, want, tol)
	}
}

func assertIncreasing(t *testing.T, name string, x []int) {
	t.Helper()
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			t.Errorf("%s not strictly increasing at %d: %v", name, i, x)
			return
		}
	}
}
