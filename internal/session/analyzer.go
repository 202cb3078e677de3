// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/gait_computer/internal/gait"
	"github.com/relabs-tech/gait_computer/internal/imu"
	"github.com/relabs-tech/gait_computer/internal/orientation"
)

// Analyzer runs the posture gate and the gait detector over recorded
// windows.
type Analyzer struct {
	Detector   *gait.Detector
	Gate       orientation.Gate
	SampleRate int
	MinStride  float64 // seconds
}

// Analyze builds a Session from one window. A detection error is recorded
// in the session and also returned so callers can count it.
func (a *Analyzer) Analyze(window []imu.AccelSample, speedMPS float64) (Session, error) {
	if len(window) == 0 {
		err := fmt.Errorf("%w: empty window", gait.ErrInvalidInput)
		return Session{Status: StatusFailed, SampleRate: a.SampleRate, Axis: a.Gate.Axis, Error: err.Error()}, err
	}
	s := Session{
		Start:      window[0].Time,
		End:        window[len(window)-1].Time,
		Source:     window[0].Source,
		SampleRate: a.SampleRate,
		Samples:    len(window),
		Axis:       a.Gate.Axis,
	}

	upright, tilt, err := a.Gate.Upright(window)
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
		return s, fmt.Errorf("posture: %w", err)
	}
	s.InclinationDeg = tilt
	if !upright {
		s.Status = StatusSkipped
		return s, nil
	}

	acc := make([]float64, len(window))
	for i, sample := range window {
		if acc[i], err = sample.Axis(a.Gate.Axis); err != nil {
			s.Status = StatusFailed
			s.Error = err.Error()
			return s, fmt.Errorf("%w: %v", gait.ErrInvalidInput, err)
		}
	}

	res, err := a.Detector.Detect(acc, a.SampleRate, a.MinStride)
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
		return s, err
	}

	s.Status = StatusAnalysed
	s.FC = res.FC
	s.IC = res.IC
	s.StepFrequency = res.StepFrequency
	s.StrideFrequency = res.StrideFrequency
	s.Summary = Summarize(res, a.SampleRate, speedMPS)
	return s, nil
}

// ErrorKind names the sentinel behind a detection error, for metrics labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gait.ErrInsufficientSpectralContent):
		return "insufficient_spectral_content"
	case errors.Is(err, gait.ErrSignalTooShort):
		return "signal_too_short"
	case errors.Is(err, gait.ErrCutoffOutOfRange):
		return "cutoff_out_of_range"
	case errors.Is(err, gait.ErrMergeWindowOutOfRange):
		return "merge_window_out_of_range"
	case errors.Is(err, gait.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, orientation.ErrNoGravity):
		return "no_gravity"
	}
	return "other"
}
