package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/config"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
	"github.com/sensorgrid/telemetry-core/internal/telemetry"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		Path:           "/ws",
		MaxMessageSize: 8192,
		PingInterval:   30,
		PongTimeout:    10,
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(testWSConfig(), logging.Default())
}

var testClientSeq int

// newTestClient registers a pump-less client on the hub and returns it.
// Events land in the client's send channel for inspection.
func newTestClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	testClientSeq++
	client := &Client{
		id:    fmt.Sprintf("ws-test-%d", testClientSeq),
		hub:   hub,
		send:  make(chan []byte, sendBufferSize),
		rooms: make(map[string]struct{}),
	}
	hub.register(client)
	t.Cleanup(func() { hub.unregister(client) })
	return client
}

// drainEvents collects the event names currently queued for a client.
func drainEvents(t *testing.T, client *Client) []string {
	t.Helper()
	var events []string
	for {
		select {
		case data := <-client.send:
			var evt Event
			if err := json.Unmarshal(data, &evt); err != nil {
				t.Fatalf("unmarshalling queued event: %v", err)
			}
			events = append(events, evt.Event)
		default:
			return events
		}
	}
}

func TestBroadcastReading_NormalReading(t *testing.T) {
	hub := newTestHub(t)
	everyone := newTestClient(t, hub)
	subscriber := newTestClient(t, hub)
	subscriber.rooms[DeviceRoom("sensor-001")] = struct{}{}

	hub.BroadcastReading(&telemetry.SensorReading{
		ID:       "sd-abc12345",
		DeviceID: "sensor-001",
	})

	got := drainEvents(t, everyone)
	want := []string{EventSensorDataUpdate}
	assertEvents(t, "unsubscribed client", got, want)

	got = drainEvents(t, subscriber)
	want = []string{EventSensorDataUpdate, EventDeviceDataUpdate}
	assertEvents(t, "room member", got, want)
}

// An alert reading must pair the alert event with the data events;
// a normal reading must never carry one.
func TestBroadcastReading_AlertPairing(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(t, hub)

	hub.BroadcastReading(&telemetry.SensorReading{
		ID:           "sd-abc12345",
		DeviceID:     "sensor-001",
		Temperature:  95,
		IsAlert:      true,
		AlertMessage: "High temperature",
	})

	events := drainEvents(t, client)
	assertEvents(t, "alert reading", events, []string{EventSensorDataUpdate, EventAlert})

	hub.BroadcastReading(&telemetry.SensorReading{
		ID:       "sd-def67890",
		DeviceID: "sensor-001",
	})

	events = drainEvents(t, client)
	for _, e := range events {
		if e == EventAlert {
			t.Error("normal reading produced an alert event")
		}
	}
}

func TestBroadcastReading_AlertCarriesSeverity(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(t, hub)

	hub.BroadcastReading(&telemetry.SensorReading{
		ID:           "sd-abc12345",
		DeviceID:     "sensor-001",
		IsAlert:      true,
		AlertMessage: "High power usage",
	})

	var alertData []byte
	for {
		select {
		case data := <-client.send:
			if strings.Contains(string(data), `"event":"alert"`) {
				alertData = data
			}
		default:
			goto done
		}
	}
done:
	if alertData == nil {
		t.Fatal("no alert event queued")
	}

	var evt struct {
		Data alertPayload `json:"data"`
	}
	if err := json.Unmarshal(alertData, &evt); err != nil {
		t.Fatalf("unmarshalling alert: %v", err)
	}
	if evt.Data.Severity != "warning" {
		t.Errorf("severity = %q, want %q", evt.Data.Severity, "warning")
	}
	if evt.Data.Message != "High power usage" {
		t.Errorf("message = %q, want %q", evt.Data.Message, "High power usage")
	}
}

func TestBroadcastStatus(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(t, hub)

	hub.BroadcastStatus(map[string]string{"deviceId": "sensor-001", "status": "offline"})

	events := drainEvents(t, client)
	assertEvents(t, "status broadcast", events, []string{EventSystemStatus})
}

func TestRoomMembership(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(t, hub)

	client.joinRoom("device-sensor-001")
	if !client.inRoom("device-sensor-001") {
		t.Error("client not in room after join")
	}

	// Idempotent re-join
	client.joinRoom("device-sensor-001")
	if !client.inRoom("device-sensor-001") {
		t.Error("client dropped from room after repeated join")
	}

	client.leaveRoom("device-sensor-001")
	if client.inRoom("device-sensor-001") {
		t.Error("client still in room after leave")
	}

	events := drainEvents(t, client)
	assertEvents(t, "room lifecycle", events,
		[]string{EventRoomJoined, EventRoomJoined, EventRoomLeft})
}

func TestHandleMessage_UnknownEvent(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(t, hub)

	client.handleMessage([]byte(`{"event":"no-such-event"}`))
	client.handleMessage([]byte(`{not json`))

	events := drainEvents(t, client)
	assertEvents(t, "bad messages", events, []string{EventError, EventError})
}

// End-to-end check over a real connection: connect ack, subscribe ack,
// then a broadcast delivery.
func TestHub_EndToEnd(t *testing.T) {
	hub := newTestHub(t)

	server := httptest.NewServer(http.HandlerFunc(hub.HandleUpgrade))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialling hub: %v", err)
	}
	defer conn.Close()
	if resp != nil {
		defer resp.Body.Close()
	}

	readEvent := func() Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck
		var evt Event
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("reading event: %v", err)
		}
		return evt
	}

	if evt := readEvent(); evt.Event != EventConnected {
		t.Fatalf("first event = %q, want %q", evt.Event, EventConnected)
	}

	err = conn.WriteJSON(inboundMessage{Event: ActionSubscribeDevice, DeviceID: "sensor-001"})
	if err != nil {
		t.Fatalf("writing subscribe: %v", err)
	}
	if evt := readEvent(); evt.Event != EventDeviceSubscribed {
		t.Fatalf("subscribe ack = %q, want %q", evt.Event, EventDeviceSubscribed)
	}

	hub.BroadcastReading(&telemetry.SensorReading{ID: "sd-abc12345", DeviceID: "sensor-001"})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		seen[readEvent().Event] = true
	}
	if !seen[EventSensorDataUpdate] || !seen[EventDeviceDataUpdate] {
		t.Errorf("broadcast events = %v, want sensor-data-update and device-data-update", seen)
	}
}

// assertEvents compares an event-name sequence.
func assertEvents(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: events = %v, want %v", label, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: event %d = %q, want %q", label, i, got[i], want[i])
		}
	}
}
