// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"time"

	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/imu"
	"github.com/relabs-tech/gait_computer/internal/sensors"
)

// RunIMUProducer samples the thigh accelerometer at IMU_SAMPLE_RATE and
// publishes every sample as JSON on TOPIC_ACCEL.
func RunIMUProducer() error {
	cfg := config.Get()

	var src imu.AccelSource
	if cfg.IMUMock {
		log.Printf("imu: using mock walking source on axis %s", cfg.IMUAxis)
		src = sensors.NewMockWalker(cfg.IMUSampleRate, cfg.IMUAxis, cfg.IMUAccelRange)
	} else {
		var err error
		if src, err = sensors.NewIMUSource(); err != nil {
			return err
		}
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, "imu")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	return produceAccel(src, mqttPublisher{client}, cfg.TopicAccel, cfg.IMUSampleRate,
		time.Duration(cfg.ConsoleLogInterval)*time.Millisecond, nil)
}

// produceAccel publishes samples from src until stop is closed. Read and
// publish errors are logged and the sample is dropped; the sequence gap
// makes the recorder start a fresh window.
func produceAccel(src imu.AccelSource, pub Publisher, topic string, sampleRate int, logEvery time.Duration, stop <-chan struct{}) error {
	ticker := time.NewTicker(time.Second / time.Duration(sampleRate))
	defer ticker.Stop()

	var sent, failed int
	lastLog := time.Now()
	log.Printf("imu: publishing %d Hz samples on %s", sampleRate, topic)

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
		}

		sample, err := src.NextAccel()
		if err != nil {
			failed++
			log.Printf("imu: read error: %v", err)
			continue
		}
		if err := publishJSON(pub, topic, sample); err != nil {
			failed++
			log.Printf("imu: publish error: %v", err)
			continue
		}
		sent++

		if logEvery > 0 && time.Since(lastLog) >= logEvery {
			x, y, z, _ := sample.G()
			log.Printf("imu: seq=%d sent=%d failed=%d a=(%.3f, %.3f, %.3f) g",
				sample.Seq, sent, failed, x, y, z)
			lastLog = time.Now()
		}
	}
}
