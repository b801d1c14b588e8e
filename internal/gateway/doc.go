// Package gateway admits inbound bus messages into the processing
// pipeline.
//
// A fixed-size executor bounds in-flight handler invocations; messages
// beyond capacity wait in an in-memory FIFO queue and drain in arrival
// order as slots free up. Per-device ordering holds in practice because
// admission is FIFO and a device occupies at most one slot at a time,
// though it is not guaranteed across devices.
//
// The gateway parses the inbound topic, sanitises the payload, and routes
// it: device telemetry flows through resolution, persistence, change
// detection and rule evaluation; bridge inventory messages flow through
// device discovery. Handler failures are logged and swallowed per message.
package gateway
