// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/relabs-tech/gait_computer/internal/gait"
	"github.com/relabs-tech/gait_computer/internal/session"
)

func TestStatsObserve(t *testing.T) {

	t.Run("counts an analysed window", func(t *testing.T) {
		s := NewStats()
		sess := session.Session{
			Status:  session.StatusAnalysed,
			FC:      []int{10, 120, 230},
			IC:      []int{50, 160},
			Summary: session.Summary{CadenceSPM: 108, StrideTimeCV: 0.02},
		}
		s.Observe(sess, nil, 5*time.Millisecond)

		assertFloat(t, testutil.ToFloat64(s.Windows.WithLabelValues(session.StatusAnalysed)), 1)
		assertFloat(t, testutil.ToFloat64(s.Events.WithLabelValues("fc")), 3)
		assertFloat(t, testutil.ToFloat64(s.Events.WithLabelValues("ic")), 2)
		assertFloat(t, testutil.ToFloat64(s.Cadence), 108)
		assertFloat(t, testutil.ToFloat64(s.StrideCV), 0.02)
	})

	t.Run("counts failures by kind", func(t *testing.T) {
		s := NewStats()
		s.Observe(session.Session{Status: session.StatusFailed}, gait.ErrInsufficientSpectralContent, time.Millisecond)

		assertFloat(t, testutil.ToFloat64(s.Windows.WithLabelValues(session.StatusFailed)), 1)
		assertFloat(t, testutil.ToFloat64(s.Failures.WithLabelValues("insufficient_spectral_content")), 1)
		assertFloat(t, testutil.ToFloat64(s.Cadence), 0)
	})

	t.Run("skipped windows leave the gauges alone", func(t *testing.T) {
		s := NewStats()
		s.Cadence.Set(100)
		s.Observe(session.Session{Status: session.StatusSkipped}, nil, time.Millisecond)

		assertFloat(t, testutil.ToFloat64(s.Windows.WithLabelValues(session.StatusSkipped)), 1)
		assertFloat(t, testutil.ToFloat64(s.Cadence), 100)
	})
}

func TestStatsHandler(t *testing.T) {
	s := NewStats()
	s.Samples.Add(42)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "gait_samples_received_total 42") {
		t.Errorf("sample counter missing from output:\n%s", body)
	}
}

func assertFloat(t *testing.T, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("got %g, want %g", got, want)
	}
}
