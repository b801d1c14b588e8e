package telemetry

import (
	"reflect"
	"testing"
)

func TestDetectChanges(t *testing.T) {
	tests := []struct {
		name     string
		previous map[string]any
		current  map[string]any
		want     []Change
	}{
		{
			name:     "contact opens",
			previous: map[string]any{"contact": true, "battery": 95.0},
			current:  map[string]any{"contact": false, "battery": 94.0},
			want:     []Change{{Attribute: "contact", State: false}},
		},
		{
			name:     "no previous payload",
			previous: nil,
			current:  map[string]any{"contact": false},
			want:     nil,
		},
		{
			name:     "unchanged watched attribute",
			previous: map[string]any{"occupancy": true},
			current:  map[string]any{"occupancy": true},
			want:     nil,
		},
		{
			name:     "unwatched attribute changes",
			previous: map[string]any{"battery": 95.0, "linkquality": 120.0},
			current:  map[string]any{"battery": 50.0, "linkquality": 60.0},
			want:     nil,
		},
		{
			name:     "multiple transitions in one payload",
			previous: map[string]any{"occupancy": false, "vibration": false},
			current:  map[string]any{"occupancy": true, "vibration": true},
			want: []Change{
				{Attribute: "vibration", State: true},
				{Attribute: "occupancy", State: true},
			},
		},
		{
			name:     "attribute appears for the first time",
			previous: map[string]any{"battery": 95.0},
			current:  map[string]any{"smoke": true, "battery": 94.0},
			want:     nil,
		},
		{
			name:     "watched attribute with non-bool value",
			previous: map[string]any{"contact": "closed"},
			current:  map[string]any{"contact": "open"},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectChanges(tt.previous, tt.current)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DetectChanges() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsWatched(t *testing.T) {
	if !IsWatched("water_leak") {
		t.Error("IsWatched(water_leak) = false, want true")
	}
	if IsWatched("battery") {
		t.Error("IsWatched(battery) = true, want false")
	}
}
