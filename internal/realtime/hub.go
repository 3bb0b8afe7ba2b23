package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/config"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
	"github.com/sensorgrid/telemetry-core/internal/metrics"
	"github.com/sensorgrid/telemetry-core/internal/telemetry"
)

// clientIDPrefix is prepended to generated session identifiers.
const clientIDPrefix = "ws-"

// Hub manages WebSocket connections, their room memberships, and event
// fan-out. It is injected into collaborators rather than accessed through
// package state, so tests can run isolated hubs side by side.
//
// Every connected client implicitly receives all-client broadcasts;
// device rooms additionally receive per-device updates.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	clients map[*Client]struct{}
	mu      sync.RWMutex

	metrics *metrics.Metrics
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a hub. Clients connect via HandleUpgrade.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// SetMetrics attaches optional connected-client gauges.
func (h *Hub) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// HandleUpgrade upgrades an HTTP request to a WebSocket connection and
// starts the client's read/write pumps. The client immediately receives
// a connected acknowledgement carrying its session id.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:    clientIDPrefix + uuid.NewString()[:8],
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		rooms: make(map[string]struct{}),
	}

	h.register(client)

	go client.writePump(h.cfg)
	go client.readPump(h.cfg)

	client.sendEvent(EventConnected, map[string]any{
		"clientId": client.id,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// register adds a client to the hub.
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.metrics.ClientConnected()
	h.logger.Debug("websocket client connected",
		"client_id", client.id,
		"clients", h.ClientCount(),
	)
}

// unregister removes a client from the hub.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
		h.metrics.ClientDisconnected()
	}
	h.logger.Debug("websocket client disconnected",
		"client_id", client.id,
		"clients", h.ClientCount(),
	)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastReading fans a persisted reading out to connected dashboards.
//
// Every client receives sensor-data-update; members of the device's room
// additionally receive device-data-update. When the reading is an alert,
// every client also receives an alert event. The alert always accompanies
// the data events: callers only pass readings that were durably stored.
func (h *Hub) BroadcastReading(reading *telemetry.SensorReading) {
	h.broadcast("", EventSensorDataUpdate, reading)
	h.broadcast(DeviceRoom(reading.DeviceID), EventDeviceDataUpdate, reading)

	if reading.IsAlert {
		h.broadcast("", EventAlert, alertPayload{
			DeviceID: reading.DeviceID,
			Message:  reading.AlertMessage,
			Severity: alertSeverity,
			Reading:  reading,
		})
	}
}

// BroadcastStatus sends a system-status event to all clients.
// Used for device online/offline announcements and service status.
func (h *Hub) BroadcastStatus(data any) {
	h.broadcast("", EventSystemStatus, data)
}

// broadcast delivers an event to all clients, or to a room's members
// when room is non-empty.
//
// The client set is snapshotted under the read lock and released before
// any sends, so a slow client cannot stall registration. Sends are
// non-blocking; clients with full buffers miss the event.
func (h *Hub) broadcast(room, event string, data any) {
	msg := Event{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if room != "" && !client.inRoom(room) {
			continue
		}
		client.trySend(payload)
		sent++
	}
	if sent > 0 {
		h.logger.Debug("event broadcast", "event", event, "room", room, "recipients", sent)
	}
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}
