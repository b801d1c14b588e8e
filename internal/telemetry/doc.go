// Package telemetry persists device readings and detects state changes.
//
// The Store appends every accepted reading to the sensor_data log and
// upserts the per-device latest row, returning the previous reading so
// callers can diff. The Detector compares consecutive payloads on a fixed
// watch-list of boolean sensor attributes (contact, vibration, occupancy,
// presence, smoke, water_leak) and reports transitions; these drive
// per-user sensor notifications.
//
// Payload hygiene lives here too: Sanitize strips NUL padding emitted by
// some gateway firmwares before anything touches JSON decoding or SQLite.
package telemetry
