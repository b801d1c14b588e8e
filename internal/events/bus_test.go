package events

import (
	"encoding/json"
	"errors"
	"testing"
)

// ─── Mocks ───────────────────────────────────────────────────────────────────

type mockPublisher struct {
	topics   []string
	payloads [][]byte
	qos      []byte
	err      error
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topic)
	m.payloads = append(m.payloads, payload)
	m.qos = append(m.qos, qos)
	return nil
}

type mockBroadcaster struct {
	channels []string
	payloads []any
}

func (m *mockBroadcaster) Broadcast(channel string, payload any) {
	m.channels = append(m.channels, channel)
	m.payloads = append(m.payloads, payload)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// ─── Tests ───────────────────────────────────────────────────────────────────

func TestDeviceCommand(t *testing.T) {
	pub := &mockPublisher{}
	bus := NewBus(pub, 1, noopLogger{})

	err := bus.DeviceCommand(DeviceCommand{
		HomeUniqueID:   "home-7f",
		DeviceUniqueID: "plug-kitchen",
		Command:        map[string]any{"state": "ON"},
	})
	if err != nil {
		t.Fatalf("DeviceCommand() error = %v", err)
	}

	if len(pub.topics) != 1 || pub.topics[0] != "pulse/event/device-command-publish" {
		t.Errorf("published topics = %v", pub.topics)
	}
	if pub.qos[0] != 1 {
		t.Errorf("qos = %d, want 1", pub.qos[0])
	}

	var got map[string]any
	if err := json.Unmarshal(pub.payloads[0], &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if got["homeUniqueId"] != "home-7f" || got["deviceUniqueId"] != "plug-kitchen" {
		t.Errorf("payload = %v", got)
	}
	cmd, ok := got["command"].(map[string]any)
	if !ok || cmd["state"] != "ON" {
		t.Errorf("command = %v", got["command"])
	}
}

func TestEventTopics(t *testing.T) {
	pub := &mockPublisher{}
	bus := NewBus(pub, 0, noopLogger{})

	if err := bus.HomeConnected(HomeConnected{HomeID: "h-1", Connected: true}); err != nil {
		t.Fatalf("HomeConnected() error = %v", err)
	}
	if err := bus.UserNotification(UserSensorNotification{UserID: "u-1"}); err != nil {
		t.Fatalf("UserNotification() error = %v", err)
	}
	if err := bus.RuleNotification(RuleNotification{RuleID: "r-1"}); err != nil {
		t.Fatalf("RuleNotification() error = %v", err)
	}

	want := []string{
		"pulse/event/home-connected",
		"pulse/event/user-sensor-notification",
		"pulse/event/rule-notification",
	}
	for i, topic := range want {
		if pub.topics[i] != topic {
			t.Errorf("topic[%d] = %s, want %s", i, pub.topics[i], topic)
		}
	}
}

func TestBroadcastMirror(t *testing.T) {
	pub := &mockPublisher{}
	hub := &mockBroadcaster{}
	bus := NewBus(pub, 1, noopLogger{})
	bus.SetBroadcaster(hub)

	ev := HomeConnected{HomeID: "h-1", Connected: true}
	if err := bus.HomeConnected(ev); err != nil {
		t.Fatalf("HomeConnected() error = %v", err)
	}

	if len(hub.channels) != 1 || hub.channels[0] != ChannelHomeConnected {
		t.Errorf("broadcast channels = %v", hub.channels)
	}
	if got, ok := hub.payloads[0].(HomeConnected); !ok || got != ev {
		t.Errorf("broadcast payload = %v", hub.payloads[0])
	}
}

func TestPublishErrorSkipsBroadcast(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	hub := &mockBroadcaster{}
	bus := NewBus(pub, 1, noopLogger{})
	bus.SetBroadcaster(hub)

	if err := bus.RuleNotification(RuleNotification{RuleID: "r-1"}); err == nil {
		t.Fatal("RuleNotification() error = nil, want publish failure")
	}
	if len(hub.channels) != 0 {
		t.Errorf("broadcast ran despite publish failure: %v", hub.channels)
	}
}

func TestNoBroadcaster(t *testing.T) {
	pub := &mockPublisher{}
	bus := NewBus(pub, 1, noopLogger{})

	// Must not panic without a hub attached.
	if err := bus.HomeConnected(HomeConnected{HomeID: "h-1", Connected: true}); err != nil {
		t.Fatalf("HomeConnected() error = %v", err)
	}
}
