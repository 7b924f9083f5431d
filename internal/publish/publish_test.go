package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/janisvco/stepfeed/internal/readings"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTopics(t *testing.T) {
	tests := []struct {
		prefix string
		want   Topics
	}{
		{"stepfeed", Topics{"stepfeed/readings", "stepfeed/status"}},
		{"home/gym/", Topics{"home/gym/readings", "home/gym/status"}},
	}
	for _, tt := range tests {
		if got := NewTopics(tt.prefix); got != tt.want {
			t.Errorf("NewTopics(%q) = %+v, want %+v", tt.prefix, got, tt.want)
		}
	}
}

func TestFormatPayload(t *testing.T) {
	snap := readings.Snapshot{
		Steps:           4210,
		Distance:        3120.5,
		Speed:           4.2,
		HeartRate:       96,
		BRBEnabled:      true,
		ConnectionState: readings.StateConnected,
		UpdatedAt:       time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
	}

	payload, err := FormatPayload(snap, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Timestamp)
	}
	if parsed.Steps != 4210 || parsed.Distance != 3120.5 || parsed.Speed != 4.2 || parsed.HeartRate != 96 {
		t.Errorf("unexpected readings: %+v", parsed)
	}
	if !parsed.BRBEnabled || parsed.HeartEnabled {
		t.Errorf("unexpected flags: %+v", parsed)
	}
	if parsed.ConnectionState != "connected" {
		t.Errorf("unexpected state: %s", parsed.ConnectionState)
	}
}

func TestFormatPayload_ZeroTimestamp(t *testing.T) {
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	payload, err := FormatPayload(readings.Snapshot{}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Timestamp != "2026-10-14T08:00:00Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Timestamp)
	}
	if parsed.ConnectionState != "disconnected" {
		t.Errorf("unexpected state: %s", parsed.ConnectionState)
	}
}

func TestFormatStatus(t *testing.T) {
	if got := string(FormatStatus(readings.StateAuthenticating)); got != "authenticating" {
		t.Errorf("FormatStatus = %q", got)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if _, ok := f.LastSnapshot(); ok {
		t.Error("LastSnapshot on empty fake returned ok")
	}
	if err := f.PublishReadings(readings.Snapshot{Steps: 1}); err != nil {
		t.Fatalf("PublishReadings failed: %v", err)
	}
	if f.SnapshotCount() != 1 || len(f.Payloads) != 1 {
		t.Errorf("recorded %d snapshots, %d payloads", f.SnapshotCount(), len(f.Payloads))
	}

	f.PublishError = errors.New("broker down")
	if err := f.PublishReadings(readings.Snapshot{}); err == nil {
		t.Error("expected PublishError")
	}
	if f.SnapshotCount() != 1 {
		t.Error("failed publish was recorded")
	}

	f.Close()
	if !f.Closed {
		t.Error("Closed = false after Close")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestBridge_PublishesChanges(t *testing.T) {
	store := readings.NewStore()
	pub := NewFakePublisher()
	b := NewBridge(store, pub, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	waitFor(t, "initial publish", func() bool { return pub.SnapshotCount() == 1 })
	if got := pub.StatusHistory(); len(got) != 1 || got[0] != readings.StateDisconnected {
		t.Errorf("initial status = %v, want [disconnected]", got)
	}

	store.SetSteps(100)
	waitFor(t, "steps", func() bool {
		snap, ok := pub.LastSnapshot()
		return ok && snap.Steps == 100
	})

	store.SetConnectionState(readings.StateConnected)
	waitFor(t, "status", func() bool { return len(pub.StatusHistory()) == 2 })
	if got := pub.StatusHistory()[1]; got != readings.StateConnected {
		t.Errorf("status = %v, want connected", got)
	}

	// Reading changes do not republish an unchanged state.
	store.SetHeartRate(101)
	waitFor(t, "heart rate", func() bool {
		snap, ok := pub.LastSnapshot()
		return ok && snap.HeartRate == 101
	})
	if n := len(pub.StatusHistory()); n != 2 {
		t.Errorf("status publishes = %d, want 2", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBridge_SurvivesPublishErrors(t *testing.T) {
	store := readings.NewStore()
	pub := NewFakePublisher()
	pub.PublishError = errors.New("broker down")
	b := NewBridge(store, pub, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	waitFor(t, "initial status", func() bool { return len(pub.StatusHistory()) == 1 })
	store.SetSteps(5)
	store.SetConnectionState(readings.StateConnected)

	waitFor(t, "status after errors", func() bool { return len(pub.StatusHistory()) >= 2 })
}

func TestBridge_RateLimitCollapsesBursts(t *testing.T) {
	store := readings.NewStore()
	pub := NewFakePublisher()
	b := NewBridge(store, pub, discardLogger(), WithRateLimit(rate.Every(100*time.Millisecond), 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	waitFor(t, "initial publish", func() bool { return pub.SnapshotCount() == 1 })

	for i := int64(1); i <= 50; i++ {
		store.SetSteps(i)
	}

	waitFor(t, "final value", func() bool {
		snap, ok := pub.LastSnapshot()
		return ok && snap.Steps == 50
	})
	if n := pub.SnapshotCount(); n > 10 {
		t.Errorf("published %d snapshots for a 50-write burst", n)
	}
}
