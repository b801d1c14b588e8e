package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sanitize strips NUL bytes from a raw gateway payload. Some gateway
// firmwares pad messages with trailing NULs, which break JSON decoding
// and SQLite TEXT storage.
func Sanitize(payload []byte) []byte {
	if !bytes.ContainsRune(payload, 0) {
		return payload
	}
	return bytes.ReplaceAll(payload, []byte{0}, nil)
}

// Decode sanitizes and unmarshals a telemetry payload into an attribute map.
func Decode(payload []byte) (map[string]any, error) {
	clean := Sanitize(payload)

	var attrs map[string]any
	if err := json.Unmarshal(clean, &attrs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return attrs, nil
}
