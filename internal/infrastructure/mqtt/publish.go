package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outbound payloads at 1MB, matching common broker
// limits and preventing runaway event bodies.
const maxPayloadSize = 1 << 20

// Publish sends a message to the given topic and waits for the broker
// acknowledgement appropriate to the QoS level.
//
// Parameters:
//   - topic: Destination topic (e.g. "pulse/event/rule-notification")
//   - payload: Message body, typically JSON, at most 1MB
//   - qos: 0 (at most once), 1 (at least once), or 2 (exactly once)
//   - retained: Broker keeps the last message for new subscribers; use
//     for state topics like the system status, never for events
//
// Returns:
//   - error: nil on success, otherwise a sentinel-wrapped failure
//
// Example:
//
//	topic := mqtt.Topics{}.EventDeviceCommand()
//	err := client.Publish(topic, body, 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishString publishes a string payload; shorthand for Publish with
// a []byte conversion.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message at the configured default
// QoS, for state topics whose latest value new subscribers should see.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
