// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/imu"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

type imuSource struct {
	name       string // for logging and the sample Source field
	imu        *mpu9250.MPU9250
	accelRange byte
	seq        uint64
}

// NewIMUSource initializes the thigh MPU9250 over SPI using the global
// configuration.
func NewIMUSource() (imu.AccelSource, error) {
	cfg := config.Get()
	return newIMUSource("thigh", cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange)
}

func newIMUSource(name, spiDev, csPin string, accelRange byte) (imu.AccelSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", name, csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", name, spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", name, err)
	}

	if err := dev.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("%s IMU: set accel range: %w", name, err)
	}
	log.Printf("%s IMU: accelerometer range set to %d (±%dg)", name, accelRange, []int{2, 4, 8, 16}[accelRange])

	// Calibration removes bias only; gravity stays on the measured axis.
	if err := dev.Calibrate(); err != nil {
		log.Printf("Warning: %s IMU calibration failed: %v", name, err)
	} else {
		log.Printf("%s IMU calibration complete", name)
	}

	return &imuSource{name: name, imu: dev, accelRange: accelRange}, nil
}

// NextAccel reads the three accelerometer axes.
func (s *imuSource) NextAccel() (imu.AccelSample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.AccelSample{}, fmt.Errorf("%s IMU accel X: %w", s.name, err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.AccelSample{}, fmt.Errorf("%s IMU accel Y: %w", s.name, err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.AccelSample{}, fmt.Errorf("%s IMU accel Z: %w", s.name, err)
	}

	s.seq++
	return imu.AccelSample{
		Source: s.name,
		Seq:    s.seq,
		Time:   time.Now(),
		Ax:     ax,
		Ay:     ay,
		Az:     az,
		Range:  s.accelRange,
	}, nil
}
