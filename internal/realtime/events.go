package realtime

// Server-to-client event names.
const (
	EventConnected          = "connected"
	EventRoomJoined         = "room-joined"
	EventRoomLeft           = "room-left"
	EventDeviceSubscribed   = "device-subscribed"
	EventDeviceUnsubscribed = "device-unsubscribed"
	EventSensorDataUpdate   = "sensor-data-update"
	EventDeviceDataUpdate   = "device-data-update"
	EventAlert              = "alert"
	EventSystemStatus       = "system-status"
	EventError              = "error"
	EventPong               = "pong"
)

// Client-to-server event names.
const (
	ActionJoinRoom          = "join-room"
	ActionLeaveRoom         = "leave-room"
	ActionSubscribeDevice   = "subscribe-device"
	ActionUnsubscribeDevice = "unsubscribe-device"
	ActionPing              = "ping"
)

// alertSeverity is the severity attached to threshold alerts.
// The classifier has a single severity tier.
const alertSeverity = "warning"

// Event is the wire shape of every server-to-client message.
type Event struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// inboundMessage is the wire shape of client-to-server messages.
type inboundMessage struct {
	Event    string `json:"event"`
	Room     string `json:"room,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
}

// alertPayload is the data carried by an alert event.
type alertPayload struct {
	DeviceID string `json:"deviceId"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Reading  any    `json:"reading"`
}

// DeviceRoom returns the room name for a device's subscribers.
//
// Example: "device-sensor-001"
func DeviceRoom(deviceID string) string {
	return "device-" + deviceID
}
