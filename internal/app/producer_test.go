// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/gait_computer/internal/gps"
	"github.com/relabs-tech/gait_computer/internal/imu"
	"github.com/relabs-tech/gait_computer/internal/sensors"
)

func TestProduceAccel(t *testing.T) {
	pub := &fakePublisher{}
	src := sensors.NewMockWalker(1000, "x", 1)
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- produceAccel(src, pub, "gait/accel", 1000, 0, stop) }()

	waitFor(t, "five samples", func() bool { return len(pub.messages()) >= 5 })
	close(stop)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("producer did not stop")
	}

	msgs := pub.messages()
	for i, m := range msgs {
		assertString(t, m.topic, "gait/accel")
		var s imu.AccelSample
		if err := json.Unmarshal(m.payload, &s); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
		if s.Seq != uint64(i+1) {
			t.Errorf("message %d has seq %d", i, s.Seq)
		}
		assertString(t, s.Source, "mock")
	}
}

func TestPublishFixes(t *testing.T) {
	input := strings.Join([]string{
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
		"$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*70",
		"noise",
	}, "\r\n")
	pub := &fakePublisher{}

	if err := publishFixes(strings.NewReader(input), pub, "gait/gps"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := pub.messages()
	assertInt(t, len(msgs), 1)
	assertString(t, msgs[0].topic, "gait/gps")
	var f gps.Fix
	if err := json.Unmarshal(msgs[0].payload, &f); err != nil {
		t.Fatalf("decode fix: %v", err)
	}
	if !f.Valid() {
		t.Error("published fix should be valid")
	}
}
