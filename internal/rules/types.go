package rules

import "time"

// Rule execution policies.
const (
	// PolicyOnce fires a single time, then marks itself executed and
	// deactivates permanently.
	PolicyOnce = "ONCE"

	// PolicyRecurrent fires repeatedly, rate-limited by IntervalSeconds.
	PolicyRecurrent = "RECURRENT"

	// PolicySpecific fires within a fixed tolerance window around FireAt,
	// then terminates like ONCE.
	PolicySpecific = "SPECIFIC"
)

// Condition operations.
const (
	OpEQ  = "EQ"
	OpGT  = "GT"
	OpGTE = "GTE"
	OpLT  = "LT"
	OpLTE = "LTE"
)

// Result types.
const (
	ResultCommand      = "COMMAND"
	ResultNotification = "NOTIFICATION"
)

// Rule is an automation rule evaluated against incoming telemetry.
// The engine consumes rules read-only except for deactivation after a
// terminal (ONCE/SPECIFIC) execution.
type Rule struct {
	ID              string      `json:"id"`
	HomeID          string      `json:"home_id"`
	UserID          string      `json:"user_id"`
	Name            string      `json:"name"`
	Type            string      `json:"type"`
	Active          bool        `json:"active"`
	AllConditions   bool        `json:"all_conditions"`
	IntervalSeconds int         `json:"interval_seconds"`
	FireAt          *time.Time  `json:"fire_at,omitempty"`
	Conditions      []Condition `json:"conditions"`
	Results         []Result    `json:"results"`
}

// Condition compares one device attribute against a stored target value.
type Condition struct {
	ID        string `json:"id"`
	RuleID    string `json:"rule_id"`
	DeviceID  string `json:"device_id"`
	Attribute string `json:"attribute"`
	Operation string `json:"operation"`
	Value     any    `json:"value"`
}

// Result is one action executed when a rule fires.
type Result struct {
	ID          string         `json:"id"`
	RuleID      string         `json:"rule_id"`
	Type        string         `json:"type"`
	DeviceID    *string        `json:"device_id,omitempty"`
	Attribute   *string        `json:"attribute,omitempty"`
	Value       any            `json:"value,omitempty"`
	Command     map[string]any `json:"command,omitempty"`
	Event       string         `json:"event,omitempty"`
	Channels    []string       `json:"channels,omitempty"`
	ResendAfter int            `json:"resend_after"`
}

// Trigger is the engine's input: one accepted telemetry message plus the
// context precomputed by the gateway (candidate rules, notification users).
type Trigger struct {
	DeviceID  string
	HomeID    string
	HomeUID   string
	UserIDs   []string
	RuleIDs   []string
	Timestamp time.Time
	Data      map[string]any
}
