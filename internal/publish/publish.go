// Package publish republishes readings to MQTT with an abstraction for testing.
package publish

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/janisvco/stepfeed/internal/readings"
)

// Topic suffixes under the configured prefix.
const (
	SuffixReadings = "readings"
	SuffixStatus   = "status"
)

// StatusOffline is the retained last-will payload on the status topic.
const StatusOffline = "offline"

// Publisher publishes readings to a broker.
type Publisher interface {
	// PublishReadings sends a readings snapshot.
	// Returns error if publishing fails (should not crash the process).
	PublishReadings(snap readings.Snapshot) error

	// PublishStatus sends the hub connection state.
	PublishStatus(state readings.ConnectionState) error

	// Close disconnects from the broker.
	Close() error
}

// Topics derives the topic names from a prefix.
type Topics struct {
	Readings string
	Status   string
}

// NewTopics joins prefix and the fixed suffixes.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	return Topics{
		Readings: prefix + "/" + SuffixReadings,
		Status:   prefix + "/" + SuffixStatus,
	}
}

// Payload is the readings message body.
type Payload struct {
	Timestamp       string  `json:"timestamp"`
	Steps           int64   `json:"steps"`
	Distance        float64 `json:"distance"`
	Speed           float64 `json:"speed"`
	HeartRate       float64 `json:"heartRate"`
	BRBEnabled      bool    `json:"brbEnabled"`
	HeartEnabled    bool    `json:"heartEnabled"`
	ConnectionState string  `json:"connectionState"`
}

// FormatPayload creates the JSON payload for a snapshot. A zero UpdatedAt
// is stamped with now.
func FormatPayload(snap readings.Snapshot, now time.Time) ([]byte, error) {
	ts := snap.UpdatedAt
	if ts.IsZero() {
		ts = now
	}
	payload := Payload{
		Timestamp:       ts.UTC().Format(time.RFC3339),
		Steps:           snap.Steps,
		Distance:        snap.Distance,
		Speed:           snap.Speed,
		HeartRate:       snap.HeartRate,
		BRBEnabled:      snap.BRBEnabled,
		HeartEnabled:    snap.HeartEnabled,
		ConnectionState: snap.ConnectionState.String(),
	}
	return json.Marshal(payload)
}

// FormatStatus returns the plain-text status payload.
func FormatStatus(state readings.ConnectionState) []byte {
	return []byte(state.String())
}
