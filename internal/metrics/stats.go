// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exposes gait server statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/gait_computer/internal/session"
)

// Stats holds the server's collectors on a private registry.
type Stats struct {
	Registry *prometheus.Registry

	Samples   prometheus.Counter
	Windows   *prometheus.CounterVec // by status
	Failures  *prometheus.CounterVec // by error kind
	Events    *prometheus.CounterVec // by event type: fc, ic
	Cadence   prometheus.Gauge
	StrideCV  prometheus.Gauge
	Clients   prometheus.Gauge
	Detection prometheus.Histogram
}

// NewStats registers every collector on a new registry.
func NewStats() *Stats {
	reg := prometheus.NewRegistry()
	s := &Stats{
		Registry: reg,
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gait",
			Name:      "samples_received_total",
			Help:      "Accelerometer samples received over MQTT.",
		}),
		Windows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gait",
			Name:      "windows_total",
			Help:      "Recorded windows by analysis status.",
		}, []string{"status"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gait",
			Name:      "detection_failures_total",
			Help:      "Failed detections by error kind.",
		}, []string{"kind"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gait",
			Name:      "events_total",
			Help:      "Detected gait events by type.",
		}, []string{"type"}),
		Cadence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gait",
			Name:      "cadence_steps_per_minute",
			Help:      "Cadence of the latest analysed window.",
		}),
		StrideCV: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gait",
			Name:      "stride_time_cv",
			Help:      "Stride time coefficient of variation of the latest analysed window.",
		}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gait",
			Name:      "websocket_clients",
			Help:      "Connected live viewers.",
		}),
		Detection: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gait",
			Name:      "detection_duration_seconds",
			Help:      "Time spent analysing one window.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	reg.MustRegister(
		s.Samples, s.Windows, s.Failures, s.Events,
		s.Cadence, s.StrideCV, s.Clients, s.Detection,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// Observe records the outcome of one analysed window.
func (s *Stats) Observe(sess session.Session, err error, took time.Duration) {
	s.Windows.WithLabelValues(sess.Status).Inc()
	s.Detection.Observe(took.Seconds())
	if err != nil {
		s.Failures.WithLabelValues(session.ErrorKind(err)).Inc()
		return
	}
	if sess.Status != session.StatusAnalysed {
		return
	}
	s.Events.WithLabelValues("fc").Add(float64(len(sess.FC)))
	s.Events.WithLabelValues("ic").Add(float64(len(sess.IC)))
	s.Cadence.Set(sess.Summary.CadenceSPM)
	s.StrideCV.Set(sess.Summary.StrideTimeCV)
}

// Handler serves the registry in the Prometheus text format.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}
