// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/gps"
	"github.com/relabs-tech/gait_computer/internal/session"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// DisplayData holds the latest session and fix for the display.
type DisplayData struct {
	mu sync.RWMutex

	session     session.Session
	haveSession bool

	fix     gps.Fix
	haveFix bool
}

func (d *DisplayData) snapshot() (session.Session, bool, gps.Fix, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session, d.haveSession, d.fix, d.haveFix
}

// RunDisplay shows the latest gait session on an SSD1306 OLED.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderLines(splashLines()), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, "display")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	err = subscribe(client, cfg.TopicGait, "display", func(payload []byte) {
		var s session.Session
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("display: session unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.session = s
		data.haveSession = true
		data.mu.Unlock()
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicGPS, "display", func(payload []byte) {
		var f gps.Fix
		if err := json.Unmarshal(payload, &f); err != nil {
			log.Printf("display: gps unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.fix = f
		data.haveFix = true
		data.mu.Unlock()
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		s, haveSession, f, haveFix := data.snapshot()
		img := renderLines(sessionLines(s, haveSession, f, haveFix))
		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func splashLines() []string {
	return []string{"", "Gait Pi", "Waiting for", "steps"}
}

// sessionLines formats up to four 7x13 text lines for a 128x64 panel.
func sessionLines(s session.Session, haveSession bool, f gps.Fix, haveFix bool) []string {
	if !haveSession {
		return []string{"", "Gait", "Waiting..."}
	}

	var lines []string
	switch s.Status {
	case session.StatusSkipped:
		lines = []string{"Not walking", fmt.Sprintf("Tilt: %5.1f", s.InclinationDeg)}
	case session.StatusFailed:
		lines = []string{"No gait found"}
	default:
		lines = []string{
			fmt.Sprintf("Cad: %5.1f spm", s.Summary.CadenceSPM),
			fmt.Sprintf("Str: %4.2fs %4.1f%%", s.Summary.StrideTimeMean, 100*s.Summary.StrideTimeCV),
			fmt.Sprintf("FC:%3d  IC:%3d", len(s.FC), len(s.IC)),
		}
	}

	if haveFix && f.Valid() {
		lines = append(lines, fmt.Sprintf("GPS: %4.2f m/s", f.SpeedMPS))
	} else {
		lines = append(lines, "GPS: no fix")
	}
	return lines
}

// renderLines draws text lines top to bottom on a blank frame.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		y := (i + 1) * lineHeight
		if y > displayHeight {
			break
		}
		drawer.Dot = fixed.P(0, y)
		drawer.DrawBytes([]byte(line))
	}
	return img
}
