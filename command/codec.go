package command

import (
	"encoding/base64"
	"fmt"
)

// DecodePayload decodes a boundary payload. Binary fields travel as base64
// text in the bridge schema; an empty field decodes to an empty payload.
func DecodePayload(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("command: decode payload: %w", err)
	}
	return string(decoded), nil
}

// EncodePayload is the inverse, used when replaying stored payloads back to
// the bridge.
func EncodePayload(payload string) string {
	if payload == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(payload))
}
