// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session turns recorded accelerometer windows into analysed gait
// sessions and summarises them.
package session

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gait_computer/internal/gait"
)

// Status of an analysed window.
const (
	StatusAnalysed = "analysed" // detection ran and produced events
	StatusSkipped  = "skipped"  // thigh not upright, detection not attempted
	StatusFailed   = "failed"   // detection returned an error
)

// Session is one analysed recording window.
type Session struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Source     string    `json:"source"`
	SampleRate int       `json:"sample_rate"`
	Samples    int       `json:"samples"`
	Axis       string    `json:"axis"`

	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
	InclinationDeg float64 `json:"inclination_deg"`

	FC              []int   `json:"fc"`
	IC              []int   `json:"ic"`
	StepFrequency   float64 `json:"step_frequency_hz"`
	StrideFrequency float64 `json:"stride_frequency_hz"`

	Summary Summary `json:"summary"`
}

// Summary holds spatio-temporal gait parameters derived from the events.
type Summary struct {
	CadenceSPM      float64 `json:"cadence_spm"` // steps per minute
	Strides         int     `json:"strides"`     // complete FC-to-FC cycles
	StrideTimeMean  float64 `json:"stride_time_s"`
	StrideTimeCV    float64 `json:"stride_time_cv"`
	ContactInterval float64 `json:"fc_to_ic_s"` // mean FC to following IC
	SpeedMPS        float64 `json:"speed_mps,omitempty"`
	StrideLengthM   float64 `json:"stride_length_m,omitempty"`
}

// Summarize derives a Summary from a detection result. speedMPS is the
// walking speed from GPS, or 0 when unknown.
func Summarize(res *gait.Result, sampleRate int, speedMPS float64) Summary {
	var s Summary
	if res == nil || sampleRate <= 0 {
		return s
	}
	fs := float64(sampleRate)
	s.CadenceSPM = 60 * res.StepFrequency

	if len(res.FC) > 1 {
		strides := make([]float64, len(res.FC)-1)
		for i := range strides {
			strides[i] = float64(res.FC[i+1]-res.FC[i]) / fs
		}
		s.Strides = len(strides)
		mean, std := stat.MeanStdDev(strides, nil)
		s.StrideTimeMean = mean
		if len(strides) > 1 && mean > 0 {
			s.StrideTimeCV = std / mean
		}
	}

	var intervals []float64
	j := 0
	for _, ic := range res.IC {
		// Latest FC before this IC.
		for j+1 < len(res.FC) && res.FC[j+1] < ic {
			j++
		}
		if j < len(res.FC) && res.FC[j] < ic {
			intervals = append(intervals, float64(ic-res.FC[j])/fs)
		}
	}
	if len(intervals) > 0 {
		s.ContactInterval = stat.Mean(intervals, nil)
	}

	if speedMPS > 0 {
		s.SpeedMPS = speedMPS
		s.StrideLengthM = speedMPS * s.StrideTimeMean
	}
	return s
}
