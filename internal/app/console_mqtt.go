// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/gps"
	"github.com/relabs-tech/gait_computer/internal/imu"
	"github.com/relabs-tech/gait_computer/internal/orientation"
	"github.com/relabs-tech/gait_computer/internal/session"
)

// RunConsoleMQTT prints gait sessions, GPS fixes and, at most once per
// CONSOLE_LOG_INTERVAL, the latest accelerometer sample.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, "console")
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicGait, "console", func(payload []byte) {
		var s session.Session
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("console: session unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSession(s))
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicGPS, "console", func(payload []byte) {
		var f gps.Fix
		if err := json.Unmarshal(payload, &f); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Println(formatFix(f))
	})
	if err != nil {
		return err
	}

	throttle := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	var mu sync.Mutex
	var last time.Time
	err = subscribe(client, cfg.TopicAccel, "console", func(payload []byte) {
		mu.Lock()
		due := time.Since(last) >= throttle
		if due {
			last = time.Now()
		}
		mu.Unlock()
		if !due {
			return
		}

		var s imu.AccelSample
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("console: accel unmarshal error: %v", err)
			return
		}
		fmt.Println(formatAccel(s))
	})
	if err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatSession(s session.Session) string {
	start := s.Start.Format(time.TimeOnly)
	switch s.Status {
	case session.StatusSkipped:
		return fmt.Sprintf("[GAIT] %s skipped  tilt=%5.1f°", start, s.InclinationDeg)
	case session.StatusFailed:
		return fmt.Sprintf("[GAIT] %s failed   %s", start, s.Error)
	}
	line := fmt.Sprintf(
		"[GAIT] %s FC=%3d IC=%3d  step=%.2fHz stride=%.2fHz  cadence=%5.1f spm  stride=%.2fs cv=%.3f",
		start, len(s.FC), len(s.IC), s.StepFrequency, s.StrideFrequency,
		s.Summary.CadenceSPM, s.Summary.StrideTimeMean, s.Summary.StrideTimeCV,
	)
	if s.Summary.StrideLengthM > 0 {
		line += fmt.Sprintf("  length=%.2fm", s.Summary.StrideLengthM)
	}
	return line
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf(
		"[GPS ] time=%s date=%s lat=%.6f lon=%.6f speed=%.2fm/s course=%.1f° validity=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedMPS, f.CourseDeg, f.Validity,
	)
}

func formatAccel(s imu.AccelSample) string {
	x, y, z, err := s.G()
	if err != nil {
		return fmt.Sprintf("[ACC ] %s seq=%d %v", s.Source, s.Seq, err)
	}
	pose := orientation.ComputePoseFromAccel(x, y, z)
	return fmt.Sprintf("[ACC ] %s seq=%d ax=%6.3f ay=%6.3f az=%6.3f g  roll=%6.1f pitch=%6.1f",
		s.Source, s.Seq, x, y, z, pose.Roll, pose.Pitch)
}
