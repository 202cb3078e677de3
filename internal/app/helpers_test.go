// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/imu"
	"github.com/relabs-tech/gait_computer/internal/metrics"
	"github.com/relabs-tech/gait_computer/internal/sensors"
	"github.com/relabs-tech/gait_computer/internal/store"
)

type message struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, message{topic, append([]byte(nil), payload...)})
	return nil
}

func (p *fakePublisher) messages() []message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]message(nil), p.msgs...)
}

func newTestServer(t *testing.T) (*GaitServer, *fakePublisher) {
	t.Helper()
	st, err := store.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Defaults()
	cfg.GaitWindowSeconds = 1
	pub := &fakePublisher{}
	return NewGaitServer(cfg, st, metrics.NewStats(), pub), pub
}

func walkWindow(n int, seated bool) []imu.AccelSample {
	m := sensors.NewMockWalker(100, "x", 1)
	m.Seated = seated
	w := make([]imu.AccelSample, n)
	for i := range w {
		w[i], _ = m.NextAccel()
	}
	return w
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func assertInt(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertString(t testing.TB, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertStringContains(t testing.TB, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("%q does not contain %q", got, want)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct status, got %d, want %d", got, want)
	}
}
