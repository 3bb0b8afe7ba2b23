package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/config"
)

// sendBufferSize is the per-client outbound message buffer size.
const sendBufferSize = 256

// Client is one connected WebSocket session.
//
// A client always receives all-client broadcasts; joining device rooms
// opts it into per-device updates on top.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	rooms map[string]struct{}
	mu    sync.RWMutex
}

// ID returns the session identifier assigned at connect time.
func (c *Client) ID() string {
	return c.id
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "client_id", c.id, "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps connection alive
		// even if the browser doesn't respond to protocol-level pings).
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming WebSocket message.
func (c *Client) handleMessage(data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid JSON message")
		return
	}

	switch msg.Event {
	case ActionJoinRoom:
		c.joinRoom(msg.Room)
	case ActionLeaveRoom:
		c.leaveRoom(msg.Room)
	case ActionSubscribeDevice:
		c.subscribeDevice(msg.DeviceID)
	case ActionUnsubscribeDevice:
		c.unsubscribeDevice(msg.DeviceID)
	case ActionPing:
		c.sendEvent(EventPong, nil)
	default:
		c.sendError("unknown event: " + msg.Event)
	}
}

// joinRoom adds the client to a room. Joining a room the client is
// already in is acknowledged again without side effects.
func (c *Client) joinRoom(room string) {
	if room == "" {
		c.sendError("room is required")
		return
	}

	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()

	c.hub.logger.Debug("client joined room", "client_id", c.id, "room", room)
	c.sendEvent(EventRoomJoined, map[string]string{"room": room})
}

// leaveRoom removes the client from a room. Leaving a room the client is
// not in is acknowledged without side effects.
func (c *Client) leaveRoom(room string) {
	if room == "" {
		c.sendError("room is required")
		return
	}

	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()

	c.sendEvent(EventRoomLeft, map[string]string{"room": room})
}

// subscribeDevice joins the device's room with a device-flavoured ack.
func (c *Client) subscribeDevice(deviceID string) {
	if deviceID == "" {
		c.sendError("deviceId is required")
		return
	}

	c.mu.Lock()
	c.rooms[DeviceRoom(deviceID)] = struct{}{}
	c.mu.Unlock()

	c.sendEvent(EventDeviceSubscribed, map[string]string{"deviceId": deviceID})
}

// unsubscribeDevice leaves the device's room.
func (c *Client) unsubscribeDevice(deviceID string) {
	if deviceID == "" {
		c.sendError("deviceId is required")
		return
	}

	c.mu.Lock()
	delete(c.rooms, DeviceRoom(deviceID))
	c.mu.Unlock()

	c.sendEvent(EventDeviceUnsubscribed, map[string]string{"deviceId": deviceID})
}

// inRoom checks the client's membership in a room.
func (c *Client) inRoom(room string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// trySend attempts to send data to the client's send channel.
// It silently handles closed channels (client disconnected during
// broadcast) and full buffers (slow client).
func (c *Client) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}

// sendEvent marshals and sends an event to this client only.
// Routes through trySend to safely handle closed channels during shutdown.
func (c *Client) sendEvent(event string, data any) {
	msg := Event{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(payload)
}

// sendError sends an error event to this client.
func (c *Client) sendError(message string) {
	c.sendEvent(EventError, map[string]string{"message": message})
}
