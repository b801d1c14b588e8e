package telemetry

// watchList holds the boolean sensor attributes whose transitions generate
// user notifications. Everything else changes silently. Order is fixed so
// detection output is deterministic.
var watchList = []string{
	"contact",
	"vibration",
	"occupancy",
	"presence",
	"smoke",
	"water_leak",
}

// Change is one watched attribute transition between consecutive payloads.
type Change struct {
	Attribute string
	State     bool
}

// DetectChanges compares two decoded payloads and returns the watched
// boolean attributes whose value flipped. A nil previous payload yields no
// changes: the first reading after startup establishes baseline state
// without notifying anyone.
func DetectChanges(previous, current map[string]any) []Change {
	if previous == nil || current == nil {
		return nil
	}

	var changes []Change
	for _, attr := range watchList {
		currVal, ok := current[attr].(bool)
		if !ok {
			continue
		}
		prevVal, ok := previous[attr].(bool)
		if !ok {
			continue
		}
		if currVal != prevVal {
			changes = append(changes, Change{Attribute: attr, State: currVal})
		}
	}
	return changes
}

// IsWatched reports whether an attribute is on the notification watch-list.
func IsWatched(attribute string) bool {
	for _, attr := range watchList {
		if attr == attribute {
			return true
		}
	}
	return false
}
