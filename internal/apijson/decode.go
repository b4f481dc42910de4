// Package apijson decodes Posts API response bodies.
package apijson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyBody is returned by Decode when there is nothing to decode.
var ErrEmptyBody = errors.New("apijson: empty response body")

// Decode unmarshals a response body into out. An empty body is an error.
func Decode(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("apijson: decode response: %w", err)
	}
	return nil
}

// ErrorMessage extracts a human readable message from a JSON error body of
// the form {"error": "..."} or {"message": "..."}. When the "error" field is
// itself an object its "message" is used. It returns "" when no message can
// be found.
func ErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		// Body is either not an object or not JSON at all.
		return ""
	}

	if msg := stringField(envelope.Error); msg != "" {
		return msg
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return stringField(envelope.Message)
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
