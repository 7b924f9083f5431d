package connection

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected   = errors.New("not connected")
	ErrAlreadyClosed  = errors.New("already closed")
	ErrAlreadyStarted = errors.New("already started")
	ErrEmptyHost      = errors.New("empty hub host")
)

// TokenSource supplies the hub access token. It is consulted once per auth
// challenge and may block; it is never called on the event loop.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenInvalidator is implemented by token sources that cache. The session
// calls Invalidate when the hub rejects a credential.
type TokenInvalidator interface {
	Invalidate()
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Config configures the Connection Manager.
type Config struct {
	Endpoint               Endpoint      // Where the hub lives
	ReconnectBaseDelay     time.Duration // First retry delay, doubled per attempt
	ReconnectMaxDelay      time.Duration // Retry delay ceiling
	HeartbeatInterval      time.Duration // Ping cadence while connected
	HeartbeatMissesAllowed int           // Unanswered pings tolerated before reconnecting
	TokenTimeout           time.Duration // Bound on one TokenSource call (0 = none)
	EntityIDs              []string      // Subscription list; empty means the codec's ids
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint: Endpoint{
			Path: DefaultPath,
		},
		ReconnectBaseDelay:     2 * time.Second,
		ReconnectMaxDelay:      30 * time.Second,
		HeartbeatInterval:      30 * time.Second,
		HeartbeatMissesAllowed: 2,
		TokenTimeout:           10 * time.Second,
	}
}

// ClientConfig configures the websocket transport.
type ClientConfig struct {
	HandshakeTimeout time.Duration // Dial + upgrade bound
	WriteTimeout     time.Duration // Write deadline for sends
	UserAgent        string        // Sent on the upgrade request when set
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}
