// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gait_computer/internal/metrics"
	"github.com/relabs-tech/gait_computer/internal/session"
	"github.com/relabs-tech/gait_computer/internal/store"
)

const (
	defaultSessionLimit = 100
	wsWriteTimeout      = 200 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans analysed sessions out to connected websocket viewers.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	stats *metrics.Stats
}

// NewHub returns an empty hub; stats may be nil.
func NewHub(stats *metrics.Stats) *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool), stats: stats}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	n := len(h.conns)
	h.mu.Unlock()
	h.setClients(n)
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	h.setClients(n)
}

func (h *Hub) setClients(n int) {
	if h.stats != nil {
		h.stats.Clients.Set(float64(n))
	}
}

// Clients is the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// Broadcast sends sess to every viewer, dropping viewers that cannot keep up.
func (h *Hub) Broadcast(sess session.Session) {
	payload, err := json.Marshal(sess)
	if err != nil {
		log.Printf("web: marshal session: %v", err)
		return
	}
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	for _, c := range h.snapshot() {
		_ = c.Close()
		h.remove(c)
	}
}

// Router serves the session API, the live websocket and Prometheus metrics.
func (g *GaitServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", g.Stats.Handler())
	r.HandleFunc("/ws", g.WebsocketHandler)
	r.HandleFunc("/api/sessions", g.SessionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/latest", g.LatestHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{start}", g.SessionHandler).Methods(http.MethodGet)

	return r
}

// WebsocketHandler registers a live viewer. Viewers only receive; the read
// loop exists to notice when they go away.
func (g *GaitServer) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	g.Hub.add(conn)
	log.Printf("web: viewer connected from %s", r.RemoteAddr)

	defer func() {
		g.Hub.remove(conn)
		conn.Close()
		log.Printf("web: viewer %s disconnected", r.RemoteAddr)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// SessionsHandler lists stored sessions, oldest first. Query parameters
// from and to are RFC 3339 times bounding the session start; limit caps
// the result.
func (g *GaitServer) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := time.Unix(0, math.MinInt64)
	to := time.Unix(0, math.MaxInt64)
	limit := defaultSessionLimit

	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			http.Error(w, fmt.Sprintf("bad from: %v", err), http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			http.Error(w, fmt.Sprintf("bad to: %v", err), http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
	}

	sessions, err := g.Store.Range(from, to, limit)
	if err != nil {
		log.Printf("web: range query: %v", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	writeJSON(w, sessions)
}

// LatestHandler returns the most recent session.
func (g *GaitServer) LatestHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := g.Store.Latest(1)
	if err != nil {
		log.Printf("web: latest query: %v", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	if len(sessions) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, sessions[0])
}

// SessionHandler returns the session starting at the RFC 3339 time in the path.
func (g *GaitServer) SessionHandler(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339Nano, mux.Vars(r)["start"])
	if err != nil {
		http.Error(w, fmt.Sprintf("bad start: %v", err), http.StatusBadRequest)
		return
	}
	sess, err := g.Store.Get(start)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("web: get session: %v", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sess)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}
