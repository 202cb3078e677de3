// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"log"

	"github.com/relabs-tech/gait_computer/internal/imu"
)

// Recorder collects consecutive samples from one source into fixed-length
// windows. A gap in sequence numbers or a change of source discards the
// partial window, since the detector assumes a uniform sampling rate.
type Recorder struct {
	size   int
	buf    []imu.AccelSample
	source string
	last   uint64
}

// NewRecorder returns a Recorder emitting windows of size samples.
func NewRecorder(size int) *Recorder {
	return &Recorder{size: size, buf: make([]imu.AccelSample, 0, size)}
}

// Add appends s and returns a complete window when one fills up. The
// returned slice is owned by the caller.
func (r *Recorder) Add(s imu.AccelSample) ([]imu.AccelSample, bool) {
	if len(r.buf) > 0 && (s.Source != r.source || s.Seq != r.last+1) {
		log.Printf("recorder: discarding %d samples (source %q seq %d after %q seq %d)",
			len(r.buf), s.Source, s.Seq, r.source, r.last)
		r.buf = r.buf[:0]
	}
	r.source = s.Source
	r.last = s.Seq
	r.buf = append(r.buf, s)
	if len(r.buf) < r.size {
		return nil, false
	}
	window := make([]imu.AccelSample, len(r.buf))
	copy(window, r.buf)
	r.buf = r.buf[:0]
	return window, true
}

// Pending is the number of samples in the current partial window.
func (r *Recorder) Pending() int {
	return len(r.buf)
}
