package events

import (
	"encoding/json"
	"fmt"

	"github.com/casapulse/pulse-core/internal/infrastructure/mqtt"
)

// Publisher is the slice of the MQTT client the bus needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Broadcaster fans an event out to live WebSocket clients. The bus treats
// it as best-effort; a nil broadcaster disables the mirror.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Logger is the minimal logging interface the bus needs.
type Logger interface {
	Debug(msg string, args ...any)
}

// Bus publishes outbound events to the message bus and mirrors each one to
// the WebSocket hub.
//
// Thread Safety: safe for concurrent use once constructed. SetBroadcaster
// must be called before the bus is shared across goroutines.
type Bus struct {
	pub    Publisher
	hub    Broadcaster
	qos    byte
	logger Logger
	topics mqtt.Topics
}

// NewBus creates an event bus publishing at the given QoS level.
func NewBus(pub Publisher, qos byte, logger Logger) *Bus {
	return &Bus{pub: pub, qos: qos, logger: logger}
}

// SetBroadcaster attaches the WebSocket hub for event mirroring.
func (b *Bus) SetBroadcaster(hub Broadcaster) {
	b.hub = hub
}

// DeviceCommand publishes a device command event.
func (b *Bus) DeviceCommand(ev DeviceCommand) error {
	return b.emit(b.topics.EventDeviceCommand(), ChannelDeviceCommand, ev)
}

// HomeConnected publishes a home connectivity event.
func (b *Bus) HomeConnected(ev HomeConnected) error {
	return b.emit(b.topics.EventHomeConnected(), ChannelHomeConnected, ev)
}

// UserNotification publishes a per-user sensor notification event.
func (b *Bus) UserNotification(ev UserSensorNotification) error {
	return b.emit(b.topics.EventUserNotification(), ChannelUserNotification, ev)
}

// RuleNotification publishes a fired rule notification event.
func (b *Bus) RuleNotification(ev RuleNotification) error {
	return b.emit(b.topics.EventRuleNotification(), ChannelRuleNotification, ev)
}

// emit serialises the event, publishes it on the bus, and mirrors it to the
// WebSocket hub. The mirror never affects the publish outcome.
func (b *Bus) emit(topic, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", channel, err)
	}

	if err := b.pub.Publish(topic, data, b.qos, false); err != nil {
		return fmt.Errorf("publishing %s event: %w", channel, err)
	}

	if b.hub != nil {
		b.hub.Broadcast(channel, payload)
	}

	b.logger.Debug("event published", "channel", channel, "bytes", len(data))
	return nil
}
