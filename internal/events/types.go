package events

// Channel names for outbound events. Each doubles as the final segment of
// the MQTT topic and as the WebSocket broadcast channel.
const (
	ChannelDeviceCommand    = "device-command-publish"
	ChannelHomeConnected    = "home-connected"
	ChannelUserNotification = "user-sensor-notification"
	ChannelRuleNotification = "rule-notification"
)

// DeviceCommand instructs the field gateway to publish a command to a device.
type DeviceCommand struct {
	HomeUniqueID   string         `json:"homeUniqueId"`
	DeviceUniqueID string         `json:"deviceUniqueId"`
	Command        map[string]any `json:"command"`
}

// HomeConnected announces a home's connectivity transition. Emitted once,
// on the first telemetry ever received for the home.
type HomeConnected struct {
	HomeID    string `json:"homeId"`
	Connected bool   `json:"connected"`
}

// UserSensorNotification tells the notification dispatcher that a watched
// sensor attribute transitioned and a user opted in to that polarity.
type UserSensorNotification struct {
	UserID       string `json:"userId"`
	HomeID       string `json:"homeId"`
	DeviceID     string `json:"deviceId"`
	AttributeKey string `json:"attributeKey"`
	SensorKey    string `json:"sensorKey"`
	SensorValue  bool   `json:"sensorValue"`
}

// RuleNotification carries a fired NOTIFICATION result for rendering and
// delivery by a downstream dispatcher.
type RuleNotification struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	ResultID string `json:"resultId"`
	Event    string `json:"event"`
	UserID   string `json:"userId"`
	HomeID   string `json:"homeId"`
}
