// Package events defines the outbound event payloads Pulse Core publishes
// and the bus that carries them.
//
// Every event goes out on the MQTT pulse/event hierarchy for downstream
// consumers (the command publisher, notification renderers) and is mirrored
// to connected WebSocket clients subscribed to the matching channel. The
// channel name equals the final topic segment, so a WebSocket subscriber
// and an MQTT consumer see the same event under the same name.
package events
