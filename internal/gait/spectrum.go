// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is a one-sided power spectral density: Power[i] at Frequencies[i] Hz.
type Spectrum struct {
	Frequencies []float64
	Power       []float64
}

// SpectralEstimator estimates the power spectrum of a real signal.
type SpectralEstimator interface {
	PowerSpectrum(x []float64, sampleRate float64) (Spectrum, error)
}

// WelchEstimator averages periodograms of Hann-windowed, mean-removed
// segments overlapping by half a segment. Segments longer than the signal
// are shortened to the signal length.
type WelchEstimator struct {
	SegmentLength int
	FFTLength     int
}

// PowerSpectrum implements SpectralEstimator with density scaling.
func (w WelchEstimator) PowerSpectrum(x []float64, sampleRate float64) (Spectrum, error) {
	nperseg := min(w.SegmentLength, len(x))
	if nperseg < 2 {
		return Spectrum{}, fmt.Errorf("%w: %d samples per segment", ErrInsufficientSpectralContent, nperseg)
	}
	nfft := max(w.FFTLength, nperseg)
	step := nperseg - nperseg/2

	win := periodicHann(nperseg)
	var winPower float64
	for _, v := range win {
		winPower += v * v
	}

	fft := fourier.NewFFT(nfft)
	buf := make([]float64, nfft)
	coeff := make([]complex128, nfft/2+1)
	power := make([]float64, nfft/2+1)

	segments := 0
	for start := 0; start+nperseg <= len(x); start += step {
		seg := x[start : start+nperseg]
		mean := stat.Mean(seg, nil)
		for i := range buf {
			buf[i] = 0
		}
		for i, v := range seg {
			buf[i] = (v - mean) * win[i]
		}
		coeff = fft.Coefficients(coeff, buf)
		for k, c := range coeff {
			power[k] += real(c)*real(c) + imag(c)*imag(c)
		}
		segments++
	}

	scale := 1 / (sampleRate * winPower * float64(segments))
	last := len(power) - 1
	for k := range power {
		power[k] *= scale
		// Nyquist appears once in an even-length transform.
		if k > 0 && (k < last || nfft%2 == 1) {
			power[k] *= 2
		}
	}

	freqs := make([]float64, len(power))
	for k := range freqs {
		freqs[k] = float64(k) * sampleRate / float64(nfft)
	}
	return Spectrum{Frequencies: freqs, Power: power}, nil
}

// periodicHann is the DFT-even Hann window of length n.
func periodicHann(n int) []float64 {
	w := make([]float64, n+1)
	for i := range w {
		w[i] = 1
	}
	return window.Hann(w)[:n]
}

// estimateFrequencies picks the step frequency as the dominant spectral
// bin and the stride frequency as the strongest peak below it. A stride
// peak under minStride Hz is replaced by the second strongest one, which
// is used as found.
func estimateFrequencies(sp Spectrum, finder PeakFinder, minStride float64) (step, stride float64, err error) {
	if len(sp.Power) == 0 || len(sp.Power) != len(sp.Frequencies) {
		return 0, 0, fmt.Errorf("%w: empty spectrum", ErrInsufficientSpectralContent)
	}
	iStep := floats.MaxIdx(sp.Power)
	if top := sp.Power[iStep]; !(top > 0) || math.IsInf(top, 0) {
		return 0, 0, fmt.Errorf("%w: no spectral power", ErrInsufficientSpectralContent)
	}
	step = sp.Frequencies[iStep]

	// Frequencies ascend, so the bins below the step frequency are a prefix.
	below := sp.Power[:iStep]
	peaks := finder.FindPeaks(below, PeakOptions{})
	if len(peaks) == 0 {
		return 0, 0, fmt.Errorf("%w: no peaks below step frequency %.3f Hz", ErrInsufficientSpectralContent, step)
	}

	// Descending by power; equal powers keep index order, so the lower bin wins.
	ranked := append([]int(nil), peaks...)
	sort.SliceStable(ranked, func(i, j int) bool { return below[ranked[i]] > below[ranked[j]] })

	stride = sp.Frequencies[ranked[0]]
	if stride < minStride {
		if len(ranked) < 2 {
			return 0, 0, fmt.Errorf("%w: stride peak %.3f Hz below %.2f Hz and no alternative", ErrInsufficientSpectralContent, stride, minStride)
		}
		stride = sp.Frequencies[ranked[1]]
	}
	return step, stride, nil
}
