package publish

import (
	"sync"
	"time"

	"github.com/janisvco/stepfeed/internal/readings"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Snapshots contains all readings that were published.
	Snapshots []readings.Snapshot

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// Statuses contains every published connection state.
	Statuses []readings.ConnectionState

	// PublishError, if set, will be returned by PublishReadings.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReadings records the snapshot.
func (f *FakePublisher) PublishReadings(snap readings.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(snap, time.Now())
	if err != nil {
		return err
	}
	f.Snapshots = append(f.Snapshots, snap)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishStatus records the state.
func (f *FakePublisher) PublishStatus(state readings.ConnectionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses = append(f.Statuses, state)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// SnapshotCount returns the number of recorded snapshots.
func (f *FakePublisher) SnapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Snapshots)
}

// LastSnapshot returns the most recent snapshot.
func (f *FakePublisher) LastSnapshot() (readings.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Snapshots) == 0 {
		return readings.Snapshot{}, false
	}
	return f.Snapshots[len(f.Snapshots)-1], true
}

// StatusHistory returns a copy of the recorded states.
func (f *FakePublisher) StatusHistory() []readings.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]readings.ConnectionState(nil), f.Statuses...)
}
