// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gait detects Final Contact (FC) and Initial Contact (IC) events
// in a single-axis thigh accelerometer recording.
//
// The pipeline runs over a complete recording:
//
//  1. step and stride frequencies from the Welch power spectrum
//  2. three zero-phase low-pass copies (step, stride, 5×stride)
//  3. one minimum per stride in the stride band, close minima merged
//  4. FC = highest step-band peak between consecutive minima
//  5. IC = first upward threshold crossing of the 5×stride band after each FC
//
// Input acceleration is expected in g with gravity retained on the
// measured axis, so the default height and crossing thresholds of 1 sit at
// the gravity level.
//
// Based on Gurchiek et al. (2020), Gait event detection using a thigh-worn
// accelerometer, https://doi.org/10.1016/j.gaitpost.2020.06.004.
package gait

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInsufficientSpectralContent means no usable step/stride peaks exist
	// in the power spectrum (signal flat, too short, or not periodic).
	ErrInsufficientSpectralContent = errors.New("insufficient spectral content")

	// ErrSignalTooShort means the signal cannot be zero-phase filtered.
	ErrSignalTooShort = errors.New("signal too short for filtering")

	// ErrCutoffOutOfRange means a filter cutoff is not inside (0, fs/2).
	ErrCutoffOutOfRange = errors.New("filter cutoff out of range")

	// ErrMergeWindowOutOfRange means the forward variance window used to
	// resolve two close stride minima runs past the end of the signal.
	ErrMergeWindowOutOfRange = errors.New("merge window out of range")

	// ErrInvalidInput covers empty or non-finite signals and non-positive
	// sampling rate, stride duration or parameters.
	ErrInvalidInput = errors.New("invalid input")
)

// Params holds the tunable constants of the pipeline.
type Params struct {
	FilterOrder        int     // Butterworth order of every filter
	SegmentLength      int     // Welch segment length (samples)
	FFTLength          int     // Welch transform length
	MinStrideFrequency float64 // Hz; lower stride peaks are treated as artifacts
	HarmonicMultiplier float64 // third band cutoff = multiplier × stride frequency
	HighPassCutoff     float64 // Hz; isolates impact transients when merging minima
	StepPeakHeight     float64 // minimum step-band peak value for FC candidates
	StepPeakDistance   int     // minimum spacing of step-band peaks (samples)
	CrossingThreshold  float64 // IC threshold on the 5×stride band
	ICMinDelay         int     // an IC must come more than this many samples after its FC
}

// DefaultParams returns the constants of the published algorithm.
func DefaultParams() Params {
	return Params{
		FilterOrder:        4,
		SegmentLength:      2048,
		FFTLength:          4096,
		MinStrideFrequency: 0.5,
		HarmonicMultiplier: 5,
		HighPassCutoff:     10,
		StepPeakHeight:     1,
		StepPeakDistance:   100,
		CrossingThreshold:  1,
		ICMinDelay:         25,
	}
}

// Validate checks that every parameter is usable.
func (p Params) Validate() error {
	switch {
	case p.FilterOrder < 1:
		return fmt.Errorf("%w: filter order must be >= 1, got %d", ErrInvalidInput, p.FilterOrder)
	case p.SegmentLength < 2:
		return fmt.Errorf("%w: segment length must be >= 2, got %d", ErrInvalidInput, p.SegmentLength)
	case p.FFTLength < p.SegmentLength:
		return fmt.Errorf("%w: FFT length %d shorter than segment length %d", ErrInvalidInput, p.FFTLength, p.SegmentLength)
	case !(p.MinStrideFrequency >= 0):
		return fmt.Errorf("%w: minimum stride frequency must be >= 0, got %g", ErrInvalidInput, p.MinStrideFrequency)
	case !(p.HarmonicMultiplier > 0):
		return fmt.Errorf("%w: harmonic multiplier must be > 0, got %g", ErrInvalidInput, p.HarmonicMultiplier)
	case !(p.HighPassCutoff > 0):
		return fmt.Errorf("%w: high-pass cutoff must be > 0, got %g", ErrInvalidInput, p.HighPassCutoff)
	case math.IsNaN(p.StepPeakHeight) || math.IsNaN(p.CrossingThreshold):
		return fmt.Errorf("%w: thresholds must be numbers", ErrInvalidInput)
	case p.StepPeakDistance < 1:
		return fmt.Errorf("%w: step peak distance must be >= 1, got %d", ErrInvalidInput, p.StepPeakDistance)
	case p.ICMinDelay < 0:
		return fmt.Errorf("%w: IC minimum delay must be >= 0, got %d", ErrInvalidInput, p.ICMinDelay)
	}
	return nil
}

// Result is the outcome of one detection run. FC and IC hold sample
// indices; the three filtered signals are kept for inspection and plotting.
type Result struct {
	FC               []int     `json:"fc"`
	IC               []int     `json:"ic"`
	StepFrequency    float64   `json:"step_frequency_hz"`
	StrideFrequency  float64   `json:"stride_frequency_hz"`
	MinStrideSamples int       `json:"min_stride_samples"`
	Minima           []int     `json:"stride_minima"`
	SignalStep       []float64 `json:"signal_step,omitempty"`
	SignalStride     []float64 `json:"signal_stride,omitempty"`
	Signal5Stride    []float64 `json:"signal_5stride,omitempty"`
}

// Detector runs the pipeline with swappable numeric capabilities.
// Use NewDetector; a zero Detector has no capabilities.
type Detector struct {
	Params   Params
	Spectrum SpectralEstimator
	Filter   ZeroPhaseFilter
	Peaks    PeakFinder
}

// NewDetector returns a Detector using the Welch estimator, Butterworth
// zero-phase filters and the local-maxima peak picker.
func NewDetector(p Params) *Detector {
	return &Detector{
		Params:   p,
		Spectrum: WelchEstimator{SegmentLength: p.SegmentLength, FFTLength: p.FFTLength},
		Filter:   Butterworth{Order: p.FilterOrder},
		Peaks:    PeakPicker{},
	}
}

// Detect runs the pipeline with DefaultParams.
func Detect(acc []float64, sampleRate int, minStride float64) (*Result, error) {
	return NewDetector(DefaultParams()).Detect(acc, sampleRate, minStride)
}

// Detect finds FC and IC events in acc, sampled at sampleRate Hz, given the
// shortest plausible stride duration in seconds. It returns either a
// complete result or an error wrapping one of the package sentinels.
func (d *Detector) Detect(acc []float64, sampleRate int, minStride float64) (*Result, error) {
	p := d.Params
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := validateSignal(acc, sampleRate, minStride); err != nil {
		return nil, err
	}
	if minLen := filterPadLength(p.FilterOrder); len(acc) <= minLen {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrSignalTooShort, len(acc), minLen)
	}

	fs := float64(sampleRate)
	minStrideSamples := int(math.Round(minStride * fs))

	spectrum, err := d.Spectrum.PowerSpectrum(acc, fs)
	if err != nil {
		return nil, fmt.Errorf("power spectrum: %w", err)
	}
	fStep, fStride, err := estimateFrequencies(spectrum, d.Peaks, p.MinStrideFrequency)
	if err != nil {
		return nil, err
	}

	signalStep, err := d.Filter.LowPass(acc, fStep, fs)
	if err != nil {
		return nil, fmt.Errorf("step band: %w", err)
	}
	signalStride, err := d.Filter.LowPass(acc, fStride, fs)
	if err != nil {
		return nil, fmt.Errorf("stride band: %w", err)
	}
	signal5Stride, err := d.Filter.LowPass(acc, p.HarmonicMultiplier*fStride, fs)
	if err != nil {
		return nil, fmt.Errorf("%g×stride band: %w", p.HarmonicMultiplier, err)
	}

	minima := strideMinima(signalStride, d.Peaks)
	if pairs := closePairs(minima, minStrideSamples); len(pairs) > 0 {
		hf, err := d.Filter.HighPass(acc, p.HighPassCutoff, fs)
		if err != nil {
			return nil, fmt.Errorf("impact band: %w", err)
		}
		minima, err = mergeMinima(minima, pairs, hf)
		if err != nil {
			return nil, err
		}
	}

	stepPeaks := d.Peaks.FindPeaks(signalStep, PeakOptions{
		Height:    p.StepPeakHeight,
		UseHeight: true,
		Distance:  p.StepPeakDistance,
	})
	fc := finalContacts(minima, stepPeaks, signalStep)
	ic := initialContacts(fc, upwardCrossings(signal5Stride, p.CrossingThreshold), p.ICMinDelay)

	return &Result{
		FC:               fc,
		IC:               ic,
		StepFrequency:    fStep,
		StrideFrequency:  fStride,
		MinStrideSamples: minStrideSamples,
		Minima:           minima,
		SignalStep:       signalStep,
		SignalStride:     signalStride,
		Signal5Stride:    signal5Stride,
	}, nil
}

func validateSignal(acc []float64, sampleRate int, minStride float64) error {
	if len(acc) == 0 {
		return fmt.Errorf("%w: empty signal", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sampling rate must be positive, got %d", ErrInvalidInput, sampleRate)
	}
	if !(minStride > 0) || math.IsInf(minStride, 0) {
		return fmt.Errorf("%w: minimum stride must be positive, got %g", ErrInvalidInput, minStride)
	}
	for i, v := range acc {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: sample %d is %v", ErrInvalidInput, i, v)
		}
	}
	return nil
}
