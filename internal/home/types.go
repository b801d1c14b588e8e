package home

import "time"

// Home represents a physical site whose gateway publishes telemetry.
// UniqueID is the identifier used on the wire (the homeUID segment of
// inbound MQTT topics); ID is the internal key.
type Home struct {
	ID         string     `json:"id"`
	UniqueID   string     `json:"unique_id"`
	OrgID      string     `json:"org_id"`
	Connected  bool       `json:"connected"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// User represents a notification recipient linked to one or more homes.
// Attributes holds per-user preference flags, including the sensor
// notification polarity flags (e.g. "contactTrue", "occupancyFalse").
type User struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// WantsNotification reports whether the user has opted in to be notified
// for the given attribute transitioning to the given boolean state. The
// flag key is the attribute name suffixed with "True" or "False".
func (u *User) WantsNotification(attribute string, state bool) bool {
	key := attribute + "False"
	if state {
		key = attribute + "True"
	}
	enabled, ok := u.Attributes[key].(bool)
	return ok && enabled
}
