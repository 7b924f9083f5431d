package connection

import (
	"context"
	"log/slog"
	"sync"

	"github.com/janisvco/stepfeed/internal/protocol"
	"github.com/janisvco/stepfeed/internal/readings"
)

// Option configures a Manager.
type Option func(*options)

type options struct {
	logger *slog.Logger
	dialer Dialer
	clock  Clock
	store  *readings.Store
	codec  *protocol.Codec
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithClock replaces the timer source.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithStore uses an existing readings Store.
func WithStore(s *readings.Store) Option {
	return func(o *options) { o.store = s }
}

// WithCodec replaces the default six-entity codec.
func WithCodec(c *protocol.Codec) Option {
	return func(o *options) { o.codec = c }
}

// Manager runs the hub session on its own event loop.
type Manager struct {
	store  *readings.Store
	logger *slog.Logger
	events chan event
	s      *session

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a Connection Manager. It does not connect until Start.
func NewManager(cfg Config, tokens TokenSource, opts ...Option) *Manager {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.dialer == nil {
		o.dialer = NewWSDialer(DefaultClientConfig(), o.logger)
	}
	if o.clock == nil {
		o.clock = realClock{}
	}
	if o.store == nil {
		o.store = readings.NewStore()
	}
	if o.codec == nil {
		o.codec = protocol.DefaultCodec()
	}

	m := &Manager{
		store:  o.store,
		logger: o.logger,
		events: make(chan event, 256),
		done:   make(chan struct{}),
	}
	m.s = newSession(cfg, o.store, o.codec, o.dialer, tokens, o.clock, o.logger)
	m.s.post = m.post
	return m
}

// Start launches the event loop and makes the initial connect attempt.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrAlreadyClosed
	}
	if m.running {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.s.ctx = runCtx
	m.running = true

	go m.run(runCtx)
	m.post(event{kind: evConnect})

	m.logger.Info("connection manager started")
	return nil
}

// Connect requests a fresh connect. It is a no-op while a handle is open.
func (m *Manager) Connect() {
	m.post(event{kind: evConnect})
}

// Stop tears the session down: both timers are cancelled and the transport
// is detached and closed before Stop returns.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	running := m.running
	m.mu.Unlock()

	if !running {
		return nil
	}

	ack := make(chan struct{})
	m.post(event{kind: evShutdown, done: ack})

	select {
	case <-ack:
	case <-m.done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, forcing close")
	}
	m.cancel()
	<-m.done
	return nil
}

// Readings returns the read-only readings view.
func (m *Manager) Readings() readings.View {
	return m.store
}

// State returns the current connection state.
func (m *Manager) State() readings.ConnectionState {
	return m.store.ConnectionState()
}

// post enqueues ev. Events posted after the loop exits are discarded.
func (m *Manager) post(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// run is the event loop. It owns the session exclusively.
func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.s.shutdown()
			return
		case ev := <-m.events:
			m.s.handle(ev)
			if ev.kind == evShutdown {
				return
			}
		}
	}
}
