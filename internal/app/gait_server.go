// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/relabs-tech/gait_computer/internal/config"
	"github.com/relabs-tech/gait_computer/internal/gait"
	"github.com/relabs-tech/gait_computer/internal/gps"
	"github.com/relabs-tech/gait_computer/internal/imu"
	"github.com/relabs-tech/gait_computer/internal/metrics"
	"github.com/relabs-tech/gait_computer/internal/orientation"
	"github.com/relabs-tech/gait_computer/internal/session"
	"github.com/relabs-tech/gait_computer/internal/store"
)

// fixMaxAge is how long a GPS speed stays usable for stride length.
const fixMaxAge = 30 * time.Second

// GaitServer records accelerometer samples from MQTT into windows,
// analyses each window, stores the resulting session and fans it out to
// MQTT, websocket viewers and metrics.
type GaitServer struct {
	Topic    string // where sessions are published
	Analyzer *session.Analyzer
	Store    *store.SessionStore
	Stats    *metrics.Stats
	Hub      *Hub
	Pub      Publisher

	mu       sync.Mutex
	recorder *session.Recorder
	fix      gps.Fix
	fixAt    time.Time

	windows chan []imu.AccelSample
}

// GaitParams maps the GAIT_* configuration keys onto detector parameters.
func GaitParams(cfg *config.Config) gait.Params {
	p := gait.DefaultParams()
	p.FilterOrder = cfg.GaitFilterOrder
	p.SegmentLength = cfg.GaitSegmentLength
	p.FFTLength = cfg.GaitFFTLength
	p.MinStrideFrequency = cfg.GaitMinStrideFreq
	p.HighPassCutoff = cfg.GaitHighPassCutoff
	p.StepPeakHeight = cfg.GaitStepPeakHeight
	p.StepPeakDistance = cfg.GaitStepPeakDist
	p.CrossingThreshold = cfg.GaitICThreshold
	p.ICMinDelay = cfg.GaitICMinDelay
	return p
}

// NewAnalyzer builds the window analyzer described by cfg.
func NewAnalyzer(cfg *config.Config) *session.Analyzer {
	return &session.Analyzer{
		Detector:   gait.NewDetector(GaitParams(cfg)),
		Gate:       orientation.Gate{Axis: cfg.IMUAxis, MaxTilt: cfg.OrientationMaxTilt},
		SampleRate: cfg.IMUSampleRate,
		MinStride:  cfg.GaitMinStride,
	}
}

// NewGaitServer wires a server for cfg. pub may be nil when sessions are
// not republished.
func NewGaitServer(cfg *config.Config, st *store.SessionStore, stats *metrics.Stats, pub Publisher) *GaitServer {
	return &GaitServer{
		Topic:    cfg.TopicGait,
		Analyzer: NewAnalyzer(cfg),
		Store:    st,
		Stats:    stats,
		Hub:      NewHub(stats),
		Pub:      pub,
		recorder: session.NewRecorder(cfg.GaitWindowSeconds * cfg.IMUSampleRate),
		windows:  make(chan []imu.AccelSample, 4),
	}
}

// HandleAccel decodes one MQTT sample and queues a window when it fills.
func (g *GaitServer) HandleAccel(payload []byte) {
	var sample imu.AccelSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		log.Printf("gait: bad accel payload: %v", err)
		return
	}
	g.Stats.Samples.Inc()

	g.mu.Lock()
	window, full := g.recorder.Add(sample)
	g.mu.Unlock()
	if !full {
		return
	}

	select {
	case g.windows <- window:
	default:
		log.Printf("gait: analysis backlog full, dropping window starting %s", window[0].Time.Format(time.RFC3339))
	}
}

// HandleFix keeps the latest valid GPS fix.
func (g *GaitServer) HandleFix(payload []byte) {
	var fix gps.Fix
	if err := json.Unmarshal(payload, &fix); err != nil {
		log.Printf("gait: bad gps payload: %v", err)
		return
	}
	if !fix.Valid() {
		return
	}
	g.mu.Lock()
	g.fix = fix
	g.fixAt = time.Now()
	g.mu.Unlock()
}

// speed returns the latest GPS speed, or 0 when no recent fix exists.
func (g *GaitServer) speed() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fixAt.IsZero() || time.Since(g.fixAt) > fixMaxAge {
		return 0
	}
	return g.fix.SpeedMPS
}

// Run analyses queued windows until stop is closed, then analyses the
// windows still queued and returns.
func (g *GaitServer) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			for {
				select {
				case window := <-g.windows:
					g.process(window)
				default:
					return
				}
			}
		case window := <-g.windows:
			g.process(window)
		}
	}
}

// Start runs the analysis loop in the background. The returned function
// stops it and waits until no window is being analysed or stored.
func (g *GaitServer) Start() (stop func()) {
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		g.Run(quit)
		close(done)
	}()
	return func() {
		close(quit)
		<-done
	}
}

func (g *GaitServer) process(window []imu.AccelSample) {
	if _, err := g.ProcessWindow(window); err != nil {
		log.Printf("gait: %v", err)
	}
}

// ProcessWindow analyses one window and distributes the session. Windows
// that fail detection are still stored and published with status failed;
// only storage errors are returned.
func (g *GaitServer) ProcessWindow(window []imu.AccelSample) (session.Session, error) {
	began := time.Now()
	sess, detectErr := g.Analyzer.Analyze(window, g.speed())
	g.Stats.Observe(sess, detectErr, time.Since(began))

	switch {
	case detectErr != nil:
		log.Printf("gait: window %s: detection failed (%s): %v",
			sess.Start.Format(time.RFC3339), session.ErrorKind(detectErr), detectErr)
	case sess.Status == session.StatusSkipped:
		log.Printf("gait: window %s: skipped, thigh tilt %.1f°", sess.Start.Format(time.RFC3339), sess.InclinationDeg)
	default:
		log.Printf("gait: window %s: %d FC, %d IC, cadence %.1f spm",
			sess.Start.Format(time.RFC3339), len(sess.FC), len(sess.IC), sess.Summary.CadenceSPM)
	}

	if g.Pub != nil {
		if err := publishJSON(g.Pub, g.Topic, sess); err != nil {
			log.Printf("gait: publish session: %v", err)
		}
	}
	g.Hub.Broadcast(sess)

	if err := g.Store.Put(sess); err != nil {
		return sess, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// RunGaitServer subscribes to the accelerometer and GPS topics, analyses
// recorded windows, and serves the session API, live websocket and
// metrics over HTTP.
func RunGaitServer() error {
	cfg := config.Get()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()
	if cfg.StorePath == "" {
		log.Printf("gait: STORE_PATH not set, sessions kept in memory")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDServer, "gait")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	g := NewGaitServer(cfg, st, metrics.NewStats(), mqttPublisher{client})
	if err := subscribe(client, cfg.TopicAccel, "gait", g.HandleAccel); err != nil {
		return err
	}
	if err := subscribe(client, cfg.TopicGPS, "gait", g.HandleFix); err != nil {
		return err
	}

	stopAnalysis := g.Start()

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	srv := &http.Server{Addr: addr, Handler: g.Router()}
	go func() {
		log.Printf("gait: HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("gait: HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("gait: shutting down")
	err = srv.Close()
	// The store closes on return, so analysis must be finished first.
	stopAnalysis()
	g.Hub.Close()
	return err
}
