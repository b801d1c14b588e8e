package device

import (
	"encoding/json"
	"fmt"
	"time"
)

// Device represents a sensor or actuator reporting through a home gateway.
// UniqueID is the identifier used on the wire (the deviceUID topic segment
// and the member value of the home membership cache set); ID is the
// internal key. Uniqueness is scoped to the organisation: two orgs may
// both have a "sensor-front-door".
type Device struct {
	ID         string     `json:"id"`
	UniqueID   string     `json:"unique_id"`
	OrgID      string     `json:"org_id"`
	HomeID     *string    `json:"home_id,omitempty"`
	Name       string     `json:"name"`
	Model      string     `json:"model"`
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes"`
	Disabled   bool       `json:"disabled"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Attributes holds device metadata reported by the gateway during
// discovery (exposed capabilities, vendor details) as a JSON map.
type Attributes map[string]any

// Discovered is one entry of a bridge discovery payload: the device list
// a gateway publishes on its bridge/devices topic. Telemetry topics carry
// the friendly name, so registration keys unique_id on Name; the radio
// address is preserved in the device's attributes.
type Discovered struct {
	Name       string     `json:"friendly_name"`
	Address    string     `json:"ieee_address"`
	Model      string     `json:"model_id"`
	Type       string     `json:"type"`
	Attributes Attributes `json:"definition,omitempty"`
}

// IsCoordinator reports whether a discovered entry is the gateway's own
// radio rather than a real device. Coordinators are skipped during
// discovery registration.
func (d *Discovered) IsCoordinator() bool {
	return d.Type == "Coordinator"
}

// DecodeInventory parses a bridge discovery payload: a JSON array of
// discovered device entries.
func DecodeInventory(payload []byte) ([]Discovered, error) {
	var inventory []Discovered
	if err := json.Unmarshal(payload, &inventory); err != nil {
		return nil, fmt.Errorf("decoding device inventory: %w", err)
	}
	return inventory, nil
}
