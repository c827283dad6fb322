// Package diag streams per-frame timings to websocket clients and answers
// health checks.
package diag

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"OSR/internal/ocean"
)

// Frame is the message sent for every generated frame.
type Frame struct {
	T       int64         `json:"t"`
	FrameID uint64        `json:"frame_id"`
	SimTime float64       `json:"sim_time"`
	Timings ocean.Timings `json:"timings"`
}

type Hub struct {
	mu        sync.RWMutex
	device    string
	startTime time.Time
	last      Frame
	clients   map[*websocket.Conn]bool
	log       zerolog.Logger
}

func NewHub(device string, log zerolog.Logger) *Hub {
	return &Hub{
		device:    device,
		startTime: time.Now(),
		clients:   map[*websocket.Conn]bool{},
		log:       log,
	}
}

// Handler routes /timings and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/timings", h.HandleTimingsWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

func (h *Hub) HandleTimingsWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]any{
		"device":   h.device,
		"frame_id": h.last.FrameID,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"clients":  len(h.clients),
		"timings":  h.last.Timings,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Publish records the frame and sends it to every connected client. It is
// called from the frame loop only.
func (h *Hub) Publish(frameID uint64, simTime float64, t ocean.Timings) {
	f := Frame{T: time.Now().UnixNano(), FrameID: frameID, SimTime: simTime, Timings: t}
	b, _ := json.Marshal(f)

	h.mu.Lock()
	h.last = f
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Msg("write timings")
		}
	}
}

// Clients is the number of connected timing streams.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
