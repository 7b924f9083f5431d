package publish

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/janisvco/stepfeed/internal/readings"
)

// Bridge forwards Store change notifications to a Publisher.
type Bridge struct {
	view    readings.View
	pub     Publisher
	logger  *slog.Logger
	limiter *rate.Limiter
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithRateLimit caps readings publishes. Changes that arrive while waiting
// collapse into the latest snapshot.
func WithRateLimit(limit rate.Limit, burst int) BridgeOption {
	return func(b *Bridge) {
		b.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewBridge creates a Bridge.
func NewBridge(view readings.View, pub Publisher, logger *slog.Logger, opts ...BridgeOption) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{view: view, pub: pub, logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run publishes the current readings, then every change, until ctx is done.
// The status topic is only written when the connection state changes.
// Publish failures are logged and never end the loop.
func (b *Bridge) Run(ctx context.Context) error {
	ch, cancel := b.view.Subscribe()
	defer cancel()

	snap := b.view.Snapshot()
	b.publishStatus(snap.ConnectionState)
	b.publishReadings(snap)
	last := snap.ConnectionState

	for {
		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-ch:
			if !ok {
				return nil
			}
			snap = next
		}

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil
			}
			// Pick up anything newer that landed while throttled.
			select {
			case next, ok := <-ch:
				if !ok {
					return nil
				}
				snap = next
			default:
			}
		}

		if snap.ConnectionState != last {
			b.publishStatus(snap.ConnectionState)
			last = snap.ConnectionState
		}
		b.publishReadings(snap)
	}
}

func (b *Bridge) publishReadings(snap readings.Snapshot) {
	if err := b.pub.PublishReadings(snap); err != nil {
		b.logger.Warn("failed to publish readings", "error", err)
	}
}

func (b *Bridge) publishStatus(state readings.ConnectionState) {
	if err := b.pub.PublishStatus(state); err != nil {
		b.logger.Warn("failed to publish status", "state", state, "error", err)
	}
}
