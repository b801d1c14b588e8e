package gateway

import (
	"fmt"
	"strings"

	"github.com/casapulse/pulse-core/internal/infrastructure/mqtt"
)

// messageKind classifies a parsed inbound topic.
type messageKind int

const (
	kindTelemetry messageKind = iota
	kindDiscovery
)

// inbound is a parsed inbound topic.
type inbound struct {
	kind      messageKind
	homeUID   string
	deviceUID string // empty for discovery messages
}

// parseTopic extracts the home and device segments from an inbound topic.
//
// Recognised shapes:
//
//	home/id/{homeUID}/{deviceUID}      device telemetry
//	home/id/{homeUID}/bridge/devices   bridge inventory
func parseTopic(topic string) (inbound, error) {
	segments := strings.Split(topic, "/")
	if len(segments) < 2 || segments[0]+"/"+segments[1] != mqtt.TopicPrefixHome {
		return inbound{}, fmt.Errorf("%w: %s", ErrMalformedTopic, topic)
	}

	switch {
	case len(segments) == 5 && segments[3] == "bridge" && segments[4] == "devices":
		if segments[2] == "" {
			return inbound{}, fmt.Errorf("%w: empty home segment in %s", ErrMalformedTopic, topic)
		}
		return inbound{kind: kindDiscovery, homeUID: segments[2]}, nil

	case len(segments) == 4:
		if segments[2] == "" || segments[3] == "" {
			return inbound{}, fmt.Errorf("%w: empty segment in %s", ErrMalformedTopic, topic)
		}
		return inbound{kind: kindTelemetry, homeUID: segments[2], deviceUID: segments[3]}, nil

	default:
		return inbound{}, fmt.Errorf("%w: %s", ErrMalformedTopic, topic)
	}
}
