// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"context"
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/post_flight/internal/frames"
	"github.com/relabs-tech/post_flight/internal/geometry"
)

//go:embed viewer.html
var viewerPage []byte

const (
	clientBuffer = 64
	writeWait    = 5 * time.Second
)

// ViewerConfig is sent to every browser on connect.
type ViewerConfig struct {
	Limit     float64 `json:"limit"`
	Elevation float64 `json:"elevation"`
	Azimuth   float64 `json:"azimuth"`
	Interval  float64 `json:"interval_ms"`
}

// Hub is a renderer that pushes frames to connected browsers over
// websocket and serves the canvas viewer.
type Hub struct {
	run    string
	edges  []geometry.Edge
	config ViewerConfig

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[*hubClient]struct{}
	last     FramePayload
	haveLast bool
	closed   bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a hub with no clients.
func NewHub(run string, edges []geometry.Edge, config ViewerConfig) *Hub {
	return &Hub{
		run:     run,
		edges:   edges,
		config:  config,
		clients: make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Handler serves the viewer at /, the frame stream at /ws, the latest pose
// at /api/orientation and the viewer settings at /api/config.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(viewerPage)
	})
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		last, ok := h.last, h.haveLast
		h.mu.RUnlock()

		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, last)
	})
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, h.config)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.haveLast {
		if msg, err := json.Marshal(h.last); err == nil {
			c.send <- msg
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("web: viewer connected from %s (%d connected)", r.RemoteAddr, n)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop only watches for the browser going away.
func (h *Hub) readLoop(c *hubClient) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("web: write error: %v", err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replay finished"),
		time.Now().Add(writeWait))
}

func (h *Hub) drop(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Render broadcasts the frame. A viewer too slow to keep up with the frame
// cadence is disconnected rather than stalling playback.
func (h *Hub) Render(ctx context.Context, f frames.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := NewPayload(h.run, f, h.edges)
	msg, err := json.Marshal(p)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last, h.haveLast = p, true
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("web: viewer %s too slow, disconnecting", c.conn.RemoteAddr())
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

// Close ends every viewer stream.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}
