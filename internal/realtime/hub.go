// Package realtime fans upload progress out to watching browser tabs over
// WebSocket, one room per upload id.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub maintains upload_id -> set of connections and broadcasts progress events.
// The importer produces events in-process, so there is no cross-instance fan-out.
type Hub struct {
	rooms  map[string]map[string]*Client
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{rooms: make(map[string]map[string]*Client), logger: logger}
}

// Register adds a client to an upload room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.UploadID] == nil {
		h.rooms[c.UploadID] = make(map[string]*Client)
	}
	h.rooms[c.UploadID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client watching upload", zap.String("client_id", c.ID), zap.String("upload_id", c.UploadID))
}

// Unregister removes a client from its room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.UploadID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.UploadID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client stopped watching upload", zap.String("client_id", c.ID), zap.String("upload_id", c.UploadID))
}

// Broadcast sends an event to all clients watching an upload.
func (h *Hub) Broadcast(uploadID, event string, payload interface{}) {
	data, _ := json.Marshal(payload)
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[uploadID] {
		select {
		case c.send <- msg:
		default:
			// Slow consumer; drop the event rather than stall the broadcast.
		}
	}
}

// BroadcastProgress implements upload.ProgressBroadcaster.
func (h *Hub) BroadcastProgress(uploadID string, pct float64) {
	h.Broadcast(uploadID, "progress", map[string]float64{"percent": pct})
}

// BroadcastStatus implements upload.ProgressBroadcaster.
func (h *Hub) BroadcastStatus(uploadID, status, message string) {
	h.Broadcast(uploadID, "status", map[string]string{"status": status, "message": message})
}
