// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation estimates thigh posture from the gravity direction
// seen by the accelerometer.
package orientation

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/gait_computer/internal/imu"
)

// ErrNoGravity means the averaged acceleration vector is too small to give
// a direction (free fall or an all-zero recording).
var ErrNoGravity = errors.New("no gravity vector")

// Pose is the accelerometer tilt of the sensor in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// Inclination is the angle in degrees between the acceleration vector and
// the sensor axis that runs along the thigh. 0 means the thigh is vertical.
func Inclination(ax, ay, az float64, axis string) (float64, error) {
	norm := math.Sqrt(ax*ax + ay*ay + az*az)
	if norm < 0.1 {
		return 0, fmt.Errorf("%w: |a| = %.3f g", ErrNoGravity, norm)
	}
	var along float64
	switch axis {
	case "x":
		along = ax
	case "y":
		along = ay
	case "z":
		along = az
	default:
		return 0, fmt.Errorf("unknown axis %q", axis)
	}
	// Sensor mounting sign is unknown, so upside down counts as vertical.
	c := math.Min(math.Abs(along)/norm, 1)
	return math.Acos(c) * 180.0 / math.Pi, nil
}

// MeanInclination averages the acceleration vectors of a recording, which
// cancels the periodic gait component and leaves gravity, and returns its
// inclination from the thigh axis.
func MeanInclination(samples []imu.AccelSample, axis string) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: no samples", ErrNoGravity)
	}
	var sx, sy, sz float64
	for _, s := range samples {
		x, y, z, err := s.G()
		if err != nil {
			return 0, err
		}
		sx += x
		sy += y
		sz += z
	}
	n := float64(len(samples))
	return Inclination(sx/n, sy/n, sz/n, axis)
}

// Gate decides whether a recording was taken with the thigh upright,
// which is a precondition for walking.
type Gate struct {
	Axis    string
	MaxTilt float64 // degrees
}

// Upright reports whether the mean inclination of samples is below
// MaxTilt, together with that inclination.
func (g Gate) Upright(samples []imu.AccelSample) (bool, float64, error) {
	tilt, err := MeanInclination(samples, g.Axis)
	if err != nil {
		return false, 0, err
	}
	return tilt < g.MaxTilt, tilt, nil
}
