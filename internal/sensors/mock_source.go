// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/gait_computer/internal/imu"
)

// MockWalker synthesizes a thigh accelerometer during level walking.
// Samples are a pure function of the sequence number, so two walkers with
// the same settings produce identical streams.
type MockWalker struct {
	SampleRate    int     // Hz
	StepFrequency float64 // Hz; stride frequency is half of it
	Axis          string  // axis carrying gravity and the gait signal
	AccelRange    byte
	Seated        bool // thigh horizontal: gravity moves off the gait axis

	start time.Time
	seq   uint64
}

// NewMockWalker returns a walker at 1.8 steps/s on the given axis.
func NewMockWalker(sampleRate int, axis string, accelRange byte) *MockWalker {
	return &MockWalker{
		SampleRate:    sampleRate,
		StepFrequency: 1.8,
		Axis:          axis,
		AccelRange:    accelRange,
		start:         time.Now(),
	}
}

// WalkingG is the gait-axis acceleration in g at time t seconds: gravity,
// the step and stride oscillations, and a heel-strike pulse on every step
// crest.
func WalkingG(t, stepFrequency float64, sampleRate int) float64 {
	g := 1 + 0.6*math.Sin(2*math.Pi*stepFrequency*t) + 0.4*math.Sin(math.Pi*stepFrequency*t)

	// Nearest crest of the step oscillation, in samples.
	k := math.Round(t*stepFrequency - 0.25)
	d := (t - (k+0.25)/stepFrequency) * float64(sampleRate)
	return g + 1.5*math.Exp(-d*d/2)
}

// NextAccel implements imu.AccelSource.
func (m *MockWalker) NextAccel() (imu.AccelSample, error) {
	t := float64(m.seq) / float64(m.SampleRate)
	m.seq++

	gait := WalkingG(t, m.StepFrequency, m.SampleRate)
	side := 0.05 * math.Sin(2*math.Pi*m.StepFrequency*t+1)
	var along, across float64 = gait, side
	if m.Seated {
		// Gravity on the forward axis, almost no motion.
		along, across = 0.05*math.Sin(0.5*t), 1
	}

	var x, y, z float64
	switch m.Axis {
	case "y":
		y, z, x = along, across, side
	case "z":
		z, x, y = along, across, side
	default:
		x, y, z = along, across, side
	}

	return imu.AccelSample{
		Source: "mock",
		Seq:    m.seq,
		Time:   m.start.Add(time.Duration(t * float64(time.Second))),
		Ax:     imu.FromG(x, m.AccelRange),
		Ay:     imu.FromG(y, m.AccelRange),
		Az:     imu.FromG(z, m.AccelRange),
		Range:  m.AccelRange,
	}, nil
}
