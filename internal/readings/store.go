package readings

import (
	"sync"
	"time"
)

// DefaultHeartRate is the heart rate shown before the first sensor update.
const DefaultHeartRate = 70

// Snapshot is a consistent copy of every reading.
type Snapshot struct {
	Steps           int64           `json:"steps"`
	Distance        float64         `json:"distance"`
	Speed           float64         `json:"speed"`
	HeartRate       float64         `json:"heartRate"`
	BRBEnabled      bool            `json:"brbEnabled"`
	HeartEnabled    bool            `json:"heartEnabled"`
	ConnectionState ConnectionState `json:"connectionState"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// View is the read-only face of the Store handed to consumers.
type View interface {
	Steps() int64
	Distance() float64
	Speed() float64
	HeartRate() float64
	BRBEnabled() bool
	HeartEnabled() bool
	ConnectionState() ConnectionState

	// Snapshot returns all readings taken under one lock.
	Snapshot() Snapshot

	// Subscribe returns a channel that receives the latest snapshot after
	// every change. Slow receivers only ever see the most recent value.
	// The returned func unsubscribes and closes the channel.
	Subscribe() (<-chan Snapshot, func())
}

// Writer is implemented by the Store for the codec and diagnostic tooling.
type Writer interface {
	SetSteps(v int64)
	SetDistance(v float64)
	SetSpeed(v float64)
	SetHeartRate(v float64)
	SetBRBEnabled(v bool)
	SetHeartEnabled(v bool)
	SetConnectionState(v ConnectionState)
}

// Store is the single-writer set of observable readings.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// NewStore creates a Store with start-up defaults.
func NewStore() *Store {
	s := &Store{
		now:  time.Now,
		subs: make(map[int]chan Snapshot),
	}
	s.snap.HeartRate = DefaultHeartRate
	return s
}

var (
	_ View   = (*Store)(nil)
	_ Writer = (*Store)(nil)
)

func (s *Store) Steps() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Steps
}

func (s *Store) Distance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Distance
}

func (s *Store) Speed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Speed
}

func (s *Store) HeartRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.HeartRate
}

func (s *Store) BRBEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.BRBEnabled
}

func (s *Store) HeartEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.HeartEnabled
}

func (s *Store) ConnectionState() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.ConnectionState
}

// Snapshot returns a copy of all readings.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) SetSteps(v int64) {
	s.update(func(snap *Snapshot) bool {
		if snap.Steps == v {
			return false
		}
		snap.Steps = v
		return true
	})
}

func (s *Store) SetDistance(v float64) {
	s.update(func(snap *Snapshot) bool {
		if snap.Distance == v {
			return false
		}
		snap.Distance = v
		return true
	})
}

func (s *Store) SetSpeed(v float64) {
	s.update(func(snap *Snapshot) bool {
		if snap.Speed == v {
			return false
		}
		snap.Speed = v
		return true
	})
}

func (s *Store) SetHeartRate(v float64) {
	s.update(func(snap *Snapshot) bool {
		if snap.HeartRate == v {
			return false
		}
		snap.HeartRate = v
		return true
	})
}

func (s *Store) SetBRBEnabled(v bool) {
	s.update(func(snap *Snapshot) bool {
		if snap.BRBEnabled == v {
			return false
		}
		snap.BRBEnabled = v
		return true
	})
}

func (s *Store) SetHeartEnabled(v bool) {
	s.update(func(snap *Snapshot) bool {
		if snap.HeartEnabled == v {
			return false
		}
		snap.HeartEnabled = v
		return true
	})
}

func (s *Store) SetConnectionState(v ConnectionState) {
	s.update(func(snap *Snapshot) bool {
		if snap.ConnectionState == v {
			return false
		}
		snap.ConnectionState = v
		return true
	})
}

// update applies fn under the write lock and notifies subscribers when fn
// reports a change. Notifying under the lock keeps subscriber order equal to
// write order.
func (s *Store) update(fn func(*Snapshot) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn(&s.snap) {
		return
	}
	s.snap.UpdatedAt = s.now()
	s.notify(s.snap)
}

// Subscribe registers a change listener.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// notify hands snap to every subscriber, replacing any value still queued.
func (s *Store) notify(snap Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale queued value and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
