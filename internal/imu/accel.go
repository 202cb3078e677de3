// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"time"
)

// AccelSample is one raw three-axis accelerometer reading as published on
// the accel topic.
type AccelSample struct {
	Source string    `json:"source"` // sensor name, e.g. "thigh" or "mock"
	Seq    uint64    `json:"seq"`    // monotonically increasing per source
	Time   time.Time `json:"time"`

	Ax int16 `json:"ax"` // raw counts
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	// Range is the full-scale setting the counts were taken at:
	// 0=±2g, 1=±4g, 2=±8g, 3=±16g.
	Range byte `json:"range"`
}

// AccelSource is anything that can provide accelerometer samples over time.
type AccelSource interface {
	NextAccel() (AccelSample, error)
}

// countsPerG is the MPU-9250 accelerometer sensitivity per range setting.
var countsPerG = [4]float64{16384, 8192, 4096, 2048}

// CountsPerG returns the sensitivity in LSB/g for an accel range setting.
func CountsPerG(accelRange byte) (float64, error) {
	if int(accelRange) >= len(countsPerG) {
		return 0, fmt.Errorf("accel range %d out of 0-3", accelRange)
	}
	return countsPerG[accelRange], nil
}

// G returns the three axes in g.
func (s AccelSample) G() (x, y, z float64, err error) {
	scale, err := CountsPerG(s.Range)
	if err != nil {
		return 0, 0, 0, err
	}
	return float64(s.Ax) / scale, float64(s.Ay) / scale, float64(s.Az) / scale, nil
}

// Axis returns one axis in g. axis is "x", "y" or "z".
func (s AccelSample) Axis(axis string) (float64, error) {
	x, y, z, err := s.G()
	if err != nil {
		return 0, err
	}
	switch axis {
	case "x":
		return x, nil
	case "y":
		return y, nil
	case "z":
		return z, nil
	}
	return 0, fmt.Errorf("unknown axis %q", axis)
}

// FromG converts an acceleration in g to raw counts at the given range,
// saturating at the int16 limits.
func FromG(g float64, accelRange byte) int16 {
	scale, err := CountsPerG(accelRange)
	if err != nil {
		return 0
	}
	v := g * scale
	switch {
	case v >= 32767:
		return 32767
	case v <= -32768:
		return -32768
	}
	if v < 0 {
		return int16(v - 0.5)
	}
	return int16(v + 0.5)
}
