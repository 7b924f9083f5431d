package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TransportEventKind identifies an asynchronous transport notification.
type TransportEventKind int

const (
	TransportOpened TransportEventKind = iota
	TransportMessage
	TransportError
	TransportClosed
)

// String returns the event kind name.
func (k TransportEventKind) String() string {
	switch k {
	case TransportOpened:
		return "opened"
	case TransportMessage:
		return "message"
	case TransportError:
		return "error"
	case TransportClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TransportEvent is delivered to the handler passed to Dialer.Dial.
type TransportEvent struct {
	Kind TransportEventKind
	Data []byte // TransportMessage only
	Err  error  // TransportError / TransportClosed
}

// Transport is one hub connection handle.
type Transport interface {
	// Send marshals v as JSON and writes it as one text frame.
	Send(v any) error

	// Close tears the connection down. No events are delivered afterwards.
	Close() error
}

// Dialer opens transports. Dial must not block: the returned handle exists
// immediately and reports progress through handler, like a browser socket.
type Dialer interface {
	Dial(url string, handler func(TransportEvent)) Transport
}

// WSDialer opens gorilla websocket transports.
type WSDialer struct {
	cfg    ClientConfig
	logger *slog.Logger
}

// NewWSDialer creates a websocket dialer.
func NewWSDialer(cfg ClientConfig, logger *slog.Logger) *WSDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSDialer{cfg: cfg, logger: logger}
}

// Dial starts connecting to url in the background.
func (d *WSDialer) Dial(url string, handler func(TransportEvent)) Transport {
	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		cfg:     d.cfg,
		url:     url,
		logger:  d.logger,
		handler: handler,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

// client is a single websocket connection to the hub.
type client struct {
	cfg     ClientConfig
	url     string
	logger  *slog.Logger
	handler func(TransportEvent)
	cancel  context.CancelFunc
	done    chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	closed    bool
}

// run dials, then reads until the connection fails or Close is called.
func (c *client) run(ctx context.Context) {
	header := http.Header{}
	if c.cfg.UserAgent != "" {
		header.Set("User-Agent", c.cfg.UserAgent)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		c.emit(TransportEvent{Kind: TransportError, Err: fmt.Errorf("dial %s: %w", c.url, err)})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.logger.Debug("websocket connected", "url", c.url)
	c.emit(TransportEvent{Kind: TransportOpened})

	c.readLoop(conn)
}

// readLoop forwards every text frame until the connection ends.
func (c *client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.emit(TransportEvent{Kind: TransportClosed, Err: err})
			} else {
				c.emit(TransportEvent{Kind: TransportError, Err: err})
			}
			return
		}
		c.emit(TransportEvent{Kind: TransportMessage, Data: data})
	}
}

// emit delivers ev unless Close has been called.
func (c *client) emit(ev TransportEvent) {
	select {
	case <-c.done:
		return
	default:
	}
	c.handler(ev)
}

// Send writes v as a JSON text frame.
func (c *client) Send(v any) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close gracefully closes the connection.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	// Detach before closing so the read loop's failure is not reported.
	close(c.done)
	c.cancel()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()
	return conn.Close()
}
