package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/janisvco/stepfeed/internal/protocol"
	"github.com/janisvco/stepfeed/internal/readings"
)

// fakeTransport records sent frames.
type fakeTransport struct {
	url     string
	handler func(TransportEvent)

	mu      sync.Mutex
	sent    []map[string]any
	closed  int
	sendErr error
}

func (f *fakeTransport) Send(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// framesOfType returns sent frames whose type field equals typ.
func (f *fakeTransport) framesOfType(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, m := range f.sent {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

// emit simulates an asynchronous transport notification.
func (f *fakeTransport) emit(ev TransportEvent) {
	f.handler(ev)
}

func (f *fakeTransport) frame(raw string) {
	f.emit(TransportEvent{Kind: TransportMessage, Data: []byte(raw)})
}

// fakeDialer hands out fakeTransports.
type fakeDialer struct {
	mu    sync.Mutex
	dials []*fakeTransport
}

func (d *fakeDialer) Dial(url string, handler func(TransportEvent)) Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &fakeTransport{url: url, handler: handler}
	d.dials = append(d.dials, t)
	return t
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.dials) == 0 {
		return nil
	}
	return d.dials[len(d.dials)-1]
}

// fakeTimer is controlled by fakeClock.
type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// fakeClock records armed timers; tests fire them explicitly.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// active returns timers that are neither stopped nor fired.
func (c *fakeClock) active() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs t's callback as if it had expired.
func (c *fakeClock) fire(t *fakeTimer) {
	c.mu.Lock()
	t.fired = true
	f := t.f
	c.mu.Unlock()
	f()
}

// harness drives a session synchronously: posted events queue up and pump
// applies them on the test goroutine.
type harness struct {
	t      *testing.T
	s      *session
	store  *readings.Store
	dialer *fakeDialer
	clock  *fakeClock
	queue  []event
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Endpoint.Host = "hub.local"
	cfg.Endpoint.Port = "8123"
	cfg.TokenTimeout = 0
	return cfg
}

func newHarness(t *testing.T, tokens TokenSource) *harness {
	t.Helper()
	return newHarnessWithConfig(t, testConfig(), tokens)
}

func newHarnessWithConfig(t *testing.T, cfg Config, tokens TokenSource) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		store:  readings.NewStore(),
		dialer: &fakeDialer{},
		clock:  &fakeClock{},
	}
	h.s = newSession(cfg, h.store, protocol.DefaultCodec(), h.dialer, tokens, h.clock, discardLogger())
	h.s.post = func(ev event) { h.queue = append(h.queue, ev) }
	h.s.spawn = func(f func()) { f() }
	return h
}

// pump drains the queue, including events posted while draining.
func (h *harness) pump() {
	for len(h.queue) > 0 {
		ev := h.queue[0]
		h.queue = h.queue[1:]
		h.s.handle(ev)
	}
}

func (h *harness) send(ev event) {
	h.queue = append(h.queue, ev)
	h.pump()
}

// frame delivers raw on the current transport and pumps.
func (h *harness) frame(raw string) {
	h.t.Helper()
	tr := h.dialer.last()
	if tr == nil {
		h.t.Fatal("no transport dialed")
	}
	tr.frame(raw)
	h.pump()
}

// connected walks a fresh session through auth to Connected.
func (h *harness) connected() *fakeTransport {
	h.t.Helper()
	h.send(event{kind: evConnect})
	tr := h.dialer.last()
	tr.emit(TransportEvent{Kind: TransportOpened})
	h.pump()
	h.frame(`{"type":"auth_required","ha_version":"2024.6.0"}`)
	h.frame(`{"type":"auth_ok","ha_version":"2024.6.0"}`)
	if h.s.state != readings.StateConnected {
		h.t.Fatalf("state = %v, want connected", h.s.state)
	}
	return tr
}

// reconnectTimers returns every active timer other than the heartbeat.
func (h *harness) reconnectTimers() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range h.clock.active() {
		if h.s.heartbeatTimer != nil && h.s.heartbeatTimer == Timer(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func staticToken(tok string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return tok, nil })
}

var errNoToken = errors.New("no token")
