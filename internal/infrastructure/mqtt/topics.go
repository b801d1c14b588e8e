package mqtt

import "fmt"

// Topic prefixes for the Pulse Core message bus.
//
// Inbound telemetry arrives on the home hierarchy published by field
// gateways: home/id/{homeUniqueID}/{deviceUniqueID}. Outbound events use
// the pulse/event hierarchy and are consumed by downstream dispatchers
// (command publisher, notification renderers).
const (
	// TopicPrefixHome is the base for all inbound home telemetry topics.
	TopicPrefixHome = "home/id"

	// TopicPrefixEvent is the base for all outbound event topics.
	TopicPrefixEvent = "pulse/event"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "pulse/system"
)

// Topics provides builders for Pulse Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	t := topics.DeviceTelemetry("home-7f", "sensor-front-door")
//	// Returns: "home/id/home-7f/sensor-front-door"
type Topics struct{}

// =============================================================================
// Inbound Topics
// =============================================================================

// DeviceTelemetry returns the topic a device's telemetry arrives on.
//
// Example: home/id/home-7f/sensor-front-door
func (Topics) DeviceTelemetry(homeUID, deviceUID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixHome, homeUID, deviceUID)
}

// BridgeDevices returns the bridge discovery topic for a home.
// Bridges publish their device inventory here after a scan.
//
// Example: home/id/home-7f/bridge/devices
func (Topics) BridgeDevices(homeUID string) string {
	return fmt.Sprintf("%s/%s/bridge/devices", TopicPrefixHome, homeUID)
}

// AllHomeTraffic returns a pattern matching every home topic, telemetry
// and bridge discovery alike. The gateway subscribes once and routes by
// topic shape.
//
// Pattern: home/id/#
func (Topics) AllHomeTraffic() string {
	return TopicPrefixHome + "/#"
}

// =============================================================================
// Outbound Event Topics
// =============================================================================

// EventDeviceCommand returns the topic for device command publish requests.
//
// Example: pulse/event/device-command-publish
func (Topics) EventDeviceCommand() string {
	return fmt.Sprintf("%s/device-command-publish", TopicPrefixEvent)
}

// EventHomeConnected returns the topic for home connectivity events,
// emitted once when the first telemetry for a home arrives.
//
// Example: pulse/event/home-connected
func (Topics) EventHomeConnected() string {
	return fmt.Sprintf("%s/home-connected", TopicPrefixEvent)
}

// EventUserNotification returns the topic for per-user sensor notifications.
//
// Example: pulse/event/user-sensor-notification
func (Topics) EventUserNotification() string {
	return fmt.Sprintf("%s/user-sensor-notification", TopicPrefixEvent)
}

// EventRuleNotification returns the topic for rule notification events.
//
// Example: pulse/event/rule-notification
func (Topics) EventRuleNotification() string {
	return fmt.Sprintf("%s/rule-notification", TopicPrefixEvent)
}

// AllEvents returns a pattern matching all outbound events.
// Used by downstream dispatchers and the test harness.
//
// Pattern: pulse/event/+
func (Topics) AllEvents() string {
	return TopicPrefixEvent + "/+"
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic. Core publishes a retained
// online/offline payload here, including via LWT on unexpected disconnect.
//
// Example: pulse/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
