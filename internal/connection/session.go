package connection

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/janisvco/stepfeed/internal/protocol"
	"github.com/janisvco/stepfeed/internal/readings"
)

// session is the state machine. Every method runs on the event loop.
type session struct {
	cfg    Config
	store  readings.Writer
	codec  *protocol.Codec
	dialer Dialer
	tokens TokenSource
	clock  Clock
	logger *slog.Logger

	ctx   context.Context // cancelled on shutdown; bounds token lookups
	post  func(event)     // enqueue onto the loop
	spawn func(func())    // run off the loop

	entityIDs []string

	// Session
	conn   Transport
	gen    uint64 // current handle generation; 0 = none
	seq    uint64 // generation/token counter
	state  readings.ConnectionState
	nextID int64
	log    *slog.Logger
	closed bool

	// Reconnect timer
	attempts       int
	reconnectTimer Timer
	reconnectToken uint64

	// Heartbeat tracker
	missed         int
	heartbeatTimer Timer
	heartbeatToken uint64
}

func newSession(cfg Config, store readings.Writer, codec *protocol.Codec, dialer Dialer, tokens TokenSource, clock Clock, logger *slog.Logger) *session {
	ids := cfg.EntityIDs
	if len(ids) == 0 {
		ids = codec.EntityIDs()
	}
	return &session{
		cfg:       cfg,
		store:     store,
		codec:     codec,
		dialer:    dialer,
		tokens:    tokens,
		clock:     clock,
		logger:    logger,
		log:       logger,
		ctx:       context.Background(),
		post:      func(event) {},
		spawn:     func(f func()) { go f() },
		entityIDs: ids,
		nextID:    1,
	}
}

func (s *session) nextToken() uint64 {
	s.seq++
	return s.seq
}

// handle is the transition function.
func (s *session) handle(ev event) {
	switch ev.kind {
	case evConnect:
		s.connect(ev.reconnect)

	case evOpened, evFrame, evTransportError, evTransportClosed:
		if s.conn == nil || ev.gen != s.gen {
			return
		}
		s.handleTransport(ev)

	case evCredential:
		if s.conn == nil || ev.gen != s.gen {
			return
		}
		s.sendAuth(ev.token)

	case evReconnectDue:
		if s.reconnectTimer == nil || ev.gen != s.reconnectToken {
			return
		}
		s.reconnectTimer = nil
		s.reconnectToken = 0
		s.attempts++
		s.connect(true)

	case evHeartbeatTick:
		if s.heartbeatTimer == nil || ev.gen != s.heartbeatToken {
			return
		}
		s.heartbeatTick()

	case evSetState:
		s.setState(ev.state)

	case evShutdown:
		s.shutdown()
	}

	if ev.done != nil {
		close(ev.done)
	}
}

// connect opens a transport unless one is already open.
func (s *session) connect(isReconnect bool) {
	if s.closed || s.conn != nil {
		return
	}

	if !isReconnect {
		s.cancelReconnect()
		s.attempts = 0
	}

	url, err := s.cfg.Endpoint.URL()
	if err != nil {
		s.logger.Error("cannot resolve hub endpoint", "error", err)
		s.setState(readings.StateDisconnected)
		s.scheduleReconnect()
		return
	}

	s.log = s.logger.With("session", uuid.NewString())
	s.log.Info("connecting to hub",
		"url", url,
		"mode", s.cfg.Endpoint.Mode(),
		"attempt", s.attempts,
	)

	gen := s.nextToken()
	s.gen = gen
	s.setState(readings.StateAuthenticating)
	post := s.post
	s.conn = s.dialer.Dial(url, func(ev TransportEvent) {
		post(transportEvent(gen, ev))
	})
}

func (s *session) handleTransport(ev event) {
	switch ev.kind {
	case evOpened:
		s.log.Debug("websocket open, awaiting auth challenge")

	case evFrame:
		s.handleFrame(ev.data)

	case evTransportError:
		s.log.Warn("hub connection error", "error", ev.err)
		s.dropConnection()

	case evTransportClosed:
		s.log.Warn("hub connection closed", "error", ev.err)
		s.dropConnection()
	}
}

func (s *session) handleFrame(data []byte) {
	f, ok := protocol.Decode(data)
	if !ok {
		s.log.Debug("dropping undecodable frame", "bytes", len(data))
		return
	}

	switch f.Type {
	case protocol.TypePong:
		s.missed = 0

	case protocol.TypeAuthRequired:
		s.requestCredential()

	case protocol.TypeAuthOK:
		s.authenticated()

	case protocol.TypeAuthInvalid:
		s.log.Warn("hub rejected credential", "message", f.Message)
		if inv, ok := s.tokens.(TokenInvalidator); ok {
			inv.Invalidate()
		}

	case protocol.TypeResult:
		if f.Success != nil && !*f.Success {
			s.log.Warn("hub rejected request", "id", f.ID, "message", f.Message)
		}

	case protocol.TypeEvent:
		if s.state != readings.StateConnected {
			return
		}
		s.codec.Apply(f, s.store)
	}
}

// requestCredential resolves the token off the loop and posts it back.
func (s *session) requestCredential() {
	gen := s.gen
	ctx := s.ctx
	tokens := s.tokens
	timeout := s.cfg.TokenTimeout
	post := s.post
	log := s.log

	s.spawn(func() {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		token := ""
		if tokens != nil {
			t, err := tokens.Token(ctx)
			if err != nil {
				log.Warn("no access token available, sending empty credential", "error", err)
			} else {
				token = t
			}
		}
		post(event{kind: evCredential, gen: gen, token: token})
	})
}

func (s *session) sendAuth(token string) {
	if err := s.conn.Send(protocol.NewAuth(token)); err != nil {
		s.log.Warn("failed to send auth", "error", err)
		s.dropConnection()
		return
	}
	s.log.Debug("auth sent")
}

// authenticated moves to Connected and subscribes.
func (s *session) authenticated() {
	s.setState(readings.StateConnected)
	s.attempts = 0
	s.cancelReconnect()
	s.startHeartbeat()
	s.log.Info("authenticated with hub")

	id := s.nextID
	s.nextID++
	if err := s.conn.Send(protocol.NewSubscribe(id, s.entityIDs)); err != nil {
		s.log.Warn("failed to subscribe", "error", err)
		s.dropConnection()
		return
	}
	s.log.Debug("subscribed", "id", id, "entities", len(s.entityIDs))
}

// dropConnection is the shared path for transport failure and forced
// reconnects.
func (s *session) dropConnection() {
	s.teardown()
	s.scheduleReconnect()
}

// teardown detaches and closes the handle and stops both timers.
func (s *session) teardown() {
	if s.conn != nil {
		conn := s.conn
		s.conn = nil
		s.gen = 0
		if err := conn.Close(); err != nil {
			s.log.Debug("close transport", "error", err)
		}
	}
	s.stopHeartbeat()
	s.cancelReconnect()
	s.setState(readings.StateDisconnected)
}

func (s *session) setState(st readings.ConnectionState) {
	if s.state != st {
		s.log.Debug("connection state", "from", s.state, "to", st)
	}
	s.state = st
	s.store.SetConnectionState(st)
}

// shutdown tears down without scheduling a retry.
func (s *session) shutdown() {
	if s.closed {
		return
	}
	s.closed = true
	s.teardown()
	s.log.Info("connection manager stopped")
}
