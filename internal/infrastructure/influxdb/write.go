package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelemetry mirrors a device telemetry reading to InfluxDB.
//
// This is the primary method for the history mirror: every accepted gateway
// message is recorded here alongside the SQLite append. Only numeric and
// boolean attributes are written; booleans are stored as 0/1 so they can be
// graphed. The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - orgID: Organisation the home belongs to
//   - homeUID: Home identifier from the inbound topic
//   - deviceUID: Device identifier from the inbound topic
//   - attributes: Decoded telemetry payload
//   - timestamp: When the reading was received
//
// Example:
//
//	client.WriteTelemetry("org-3", "home-7f", "sensor-front-door",
//	    map[string]interface{}{"contact": false, "battery": 87.0}, time.Now())
func (c *Client) WriteTelemetry(orgID, homeUID, deviceUID string, attributes map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(attributes))
	for key, value := range attributes {
		switch v := value.(type) {
		case float64:
			fields[key] = v
		case int:
			fields[key] = float64(v)
		case int64:
			fields[key] = float64(v)
		case bool:
			if v {
				fields[key] = 1.0
			} else {
				fields[key] = 0.0
			}
		}
	}

	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"org_id":     orgID,
			"home_uid":   homeUID,
			"device_uid": deviceUID,
		},
		fields,
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteRuleExecution records a rule firing for audit and dashboards.
//
// Parameters:
//   - orgID: Organisation the rule belongs to
//   - ruleID: The rule that fired
//   - policy: Execution policy (ONCE, RECURRENT, SPECIFIC)
func (c *Client) WriteRuleExecution(orgID, ruleID, policy string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"rule_executions",
		map[string]string{
			"org_id":  orgID,
			"rule_id": ruleID,
			"policy":  policy,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
