// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// lineSpectrum has n+1 bins df apart, zero except for the given bins.
func lineSpectrum(df float64, n int, lines map[int]float64) Spectrum {
	sp := Spectrum{Frequencies: make([]float64, n+1), Power: make([]float64, n+1)}
	for k := range sp.Frequencies {
		sp.Frequencies[k] = float64(k) * df
	}
	for k, p := range lines {
		sp.Power[k] = p
	}
	return sp
}

func sine(n int, freq, fs float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / fs)
	}
	return x
}

func TestWelchEstimator(t *testing.T) {
	w := WelchEstimator{SegmentLength: 2048, FFTLength: 4096}

	t.Run("peaks at the frequency of a sine", func(t *testing.T) {
		sp, err := w.PowerSpectrum(sine(3000, 10, 100), 100)
		assertError(t, err, nil)

		assertInt(t, len(sp.Power), 2049)
		assertInt(t, len(sp.Frequencies), 2049)
		assertClose(t, sp.Frequencies[floats.MaxIdx(sp.Power)], 10, 0.03)
		assertClose(t, sp.Frequencies[len(sp.Frequencies)-1], 50, 1e-9)
	})

	t.Run("shortens the segment for short signals", func(t *testing.T) {
		sp, err := w.PowerSpectrum(sine(300, 5, 100), 100)
		assertError(t, err, nil)

		assertInt(t, len(sp.Power), 2049)
		assertClose(t, sp.Frequencies[floats.MaxIdx(sp.Power)], 5, 0.2)
	})

	t.Run("ignores a constant offset", func(t *testing.T) {
		x := sine(3000, 10, 100)
		plain, err := w.PowerSpectrum(x, 100)
		assertError(t, err, nil)

		floats.AddConst(3, x)
		shifted, err := w.PowerSpectrum(x, 100)
		assertError(t, err, nil)

		if !floats.EqualApprox(plain.Power, shifted.Power, 1e-9) {
			t.Error("offset changed the spectrum")
		}
	})

	t.Run("total power matches signal variance", func(t *testing.T) {
		// A unit sine has variance 1/2; the density integrates to it.
		sp, err := w.PowerSpectrum(sine(3000, 10, 100), 100)
		assertError(t, err, nil)

		df := sp.Frequencies[1] - sp.Frequencies[0]
		assertClose(t, floats.Sum(sp.Power)*df, 0.5, 0.02)
	})

	t.Run("rejects single sample", func(t *testing.T) {
		_, err := w.PowerSpectrum([]float64{1}, 100)
		assertError(t, err, ErrInsufficientSpectralContent)
	})
}

func TestEstimateFrequencies(t *testing.T) {

	t.Run("stride is the strongest peak below step", func(t *testing.T) {
		sp := lineSpectrum(0.1, 40, map[int]float64{6: 1, 9: 3, 18: 10, 25: 4})
		step, stride, err := estimateFrequencies(sp, PeakPicker{}, 0.5)
		assertError(t, err, nil)

		assertClose(t, step, 1.8, 1e-9)
		assertClose(t, stride, 0.9, 1e-9)
	})

	t.Run("falls back to the second peak below the minimum stride", func(t *testing.T) {
		sp := lineSpectrum(0.1, 40, map[int]float64{3: 5, 9: 3, 18: 10})
		_, stride, err := estimateFrequencies(sp, PeakPicker{}, 0.5)
		assertError(t, err, nil)

		assertClose(t, stride, 0.9, 1e-9)
	})

	t.Run("second peak is used even below the minimum stride", func(t *testing.T) {
		sp := lineSpectrum(0.1, 40, map[int]float64{2: 5, 4: 3, 18: 10})
		_, stride, err := estimateFrequencies(sp, PeakPicker{}, 0.5)
		assertError(t, err, nil)

		assertClose(t, stride, 0.4, 1e-9)
	})

	t.Run("equal powers pick the lower frequency", func(t *testing.T) {
		sp := lineSpectrum(0.1, 40, map[int]float64{6: 4, 9: 4, 18: 10})
		_, stride, err := estimateFrequencies(sp, PeakPicker{}, 0.5)
		assertError(t, err, nil)

		assertClose(t, stride, 0.6, 1e-9)
	})

	t.Run("fails with a single low peak", func(t *testing.T) {
		sp := lineSpectrum(0.1, 40, map[int]float64{3: 5, 18: 10})
		_, _, err := estimateFrequencies(sp, PeakPicker{}, 0.5)
		assertError(t, err, ErrInsufficientSpectralContent)
	})

	t.Run("fails without peaks below step", func(t *testing.T) {
		sp := lineSpectrum(0.1, 40, map[int]float64{18: 10})
		_, _, err := estimateFrequencies(sp, PeakPicker{}, 0.5)
		assertError(t, err, ErrInsufficientSpectralContent)
	})

	t.Run("fails on a flat spectrum", func(t *testing.T) {
		sp := lineSpectrum(0.1, 40, nil)
		_, _, err := estimateFrequencies(sp, PeakPicker{}, 0.5)
		assertError(t, err, ErrInsufficientSpectralContent)
	})
}
