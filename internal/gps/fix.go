// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// KnotsToMPS converts speed over ground from knots to metres per second.
const KnotsToMPS = 1852.0 / 3600.0

// ErrNotRMC means a sentence parsed fine but carries no position fix.
var ErrNotRMC = errors.New("not an RMC sentence")

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string    `json:"time"`        // e.g. "12:34:56.0000"
	Date       string    `json:"date"`        // e.g. "06/12/25"
	UTC        time.Time `json:"utc"`         // Date and Time combined
	Latitude   float64   `json:"lat"`         // decimal degrees
	Longitude  float64   `json:"lon"`         // decimal degrees
	SpeedKnots float64   `json:"speed_knots"` // speed over ground
	SpeedMPS   float64   `json:"speed_mps"`
	CourseDeg  float64   `json:"course_deg"` // course over ground
	Validity   string    `json:"validity"`   // "A" (valid) / "V" (void), etc.
}

// Valid reports whether the receiver flagged the fix as usable.
func (f Fix) Valid() bool {
	return f.Validity == nmea.ValidRMC
}

// ParseRMC parses one NMEA line into a Fix. Lines that are valid NMEA but
// not RMC return ErrNotRMC.
func ParseRMC(line string) (Fix, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, fmt.Errorf("not an NMEA sentence: %q", line)
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, fmt.Errorf("nmea parse: %w", err)
	}
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, fmt.Errorf("%w: %s", ErrNotRMC, sentence.DataType())
	}
	m := sentence.(nmea.RMC)

	fix := Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		SpeedMPS:   m.Speed * KnotsToMPS,
		CourseDeg:  m.Course,
		Validity:   m.Validity,
	}
	if m.Date.Valid && m.Time.Valid {
		year := 2000 + m.Date.YY
		if m.Date.YY >= 80 {
			year = 1900 + m.Date.YY
		}
		fix.UTC = time.Date(year, time.Month(m.Date.MM), m.Date.DD,
			m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
	}
	return fix, nil
}

// Scan reads NMEA lines from r and calls fn for every RMC fix until r is
// exhausted or fn returns an error. Noisy or partial sentences are skipped.
func Scan(r io.Reader, fn func(Fix) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if fix, perr := ParseRMC(line); perr == nil {
				if ferr := fn(fix); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gps read: %w", err)
		}
	}
}
