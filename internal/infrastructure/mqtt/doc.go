// Package mqtt is the Pulse Core message-bus client.
//
// MQTT carries everything in and out of the core: field gateways publish
// device telemetry and bridge inventories on the home/id hierarchy, and
// the core publishes commands and notifications on the pulse/event
// hierarchy for downstream dispatchers. The package wraps
// paho.mqtt.golang with:
//
//   - auto-reconnect and automatic subscription restoration
//   - a retained online/offline status on pulse/system/status, with a
//     Last Will covering unclean exits
//   - panic-safe message handlers
//   - topic builders (Topics) so names stay consistent across packages
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllHomeTraffic(), 1, gw.OnMessage)
//
// # Security
//
// TLS and broker credentials are required in production; anonymous
// plaintext connections are for local development only. Payloads are not
// encrypted beyond the TLS transport.
package mqtt
