// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA RMC sentences, and
// publishes each fix as JSON on TOPIC_GPS.
func RunGPSProducer() error {
	cfg := config.Get()
	if cfg.GPSSerialPort == "" {
		return fmt.Errorf("gps: GPS_SERIAL_PORT is not configured")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS, "gps")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("gps: open %s: %w", serialOpts.PortName, err)
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return publishFixes(port, mqttPublisher{client}, cfg.TopicGPS)
}

// publishFixes forwards every RMC fix read from r.
func publishFixes(r io.Reader, pub Publisher, topic string) error {
	return gps.Scan(r, func(fix gps.Fix) error {
		if err := publishJSON(pub, topic, fix); err != nil {
			log.Printf("gps: publish error: %v", err)
			return nil
		}
		log.Printf("gps: fix %s lat=%.6f lon=%.6f speed=%.2f m/s valid=%v",
			fix.Time, fix.Latitude, fix.Longitude, fix.SpeedMPS, fix.Valid())
		return nil
	})
}
