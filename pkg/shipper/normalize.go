package shipper

import (
	"encoding/json"
	"fmt"
	"strings"
)

type carrierErrorEntry struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// carrierErrorBody covers both the top-level "errors" shape (FedEx) and the
// nested "response.errors" shape (UPS).
type carrierErrorBody struct {
	Errors   []carrierErrorEntry `json:"errors"`
	Response *struct {
		Errors []carrierErrorEntry `json:"errors"`
	} `json:"response"`
}

// NormalizeErrorBody turns a carrier error body into one operator-readable
// line. Structured error lists are joined as "<code>: <message>" separated
// by "; ". Anything else is returned as raw text.
func NormalizeErrorBody(statusCode int, body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}

	var parsed carrierErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return raw
	}

	entries := parsed.Errors
	if len(entries) == 0 && parsed.Response != nil {
		entries = parsed.Response.Errors
	}
	if len(entries) == 0 {
		return raw
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Code != "" && e.Message != "":
			parts = append(parts, e.Code+": "+e.Message)
		case e.Message != "":
			parts = append(parts, e.Message)
		case e.Code != "":
			parts = append(parts, e.Code)
		}
	}
	if len(parts) == 0 {
		return raw
	}
	return strings.Join(parts, "; ")
}

// statusVocabulary is checked in order; the first matching group wins.
var statusVocabulary = []struct {
	status   TrackingStatus
	keywords []string
}{
	{StatusPickedUp, []string{"picked up", "pickup scan", "origin scan"}},
	{StatusInTransit, []string{"transit", "departed", "arrived at"}},
	{StatusOutForDelivery, []string{"out for delivery", "vehicle for delivery"}},
	{StatusDelivered, []string{"delivered"}},
	{StatusException, []string{"exception", "failed", "returned to sender", "damaged"}},
}

// NormalizeTrackingStatus maps a carrier's free-text status description to
// the fixed tracking vocabulary. Empty input is unknown; unrecognized text
// is assumed to be in transit.
func NormalizeTrackingStatus(description string) TrackingStatus {
	low := strings.ToLower(strings.TrimSpace(description))
	if low == "" {
		return StatusUnknown
	}
	for _, group := range statusVocabulary {
		for _, kw := range group.keywords {
			if strings.Contains(low, kw) {
				return group.status
			}
		}
	}
	return StatusInTransit
}
