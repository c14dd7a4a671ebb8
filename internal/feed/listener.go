package feed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"oiroc/config"
	"oiroc/internal/chain"
	"oiroc/pkg/gdfl"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// Listener owns the feed connection. Its only side effect is sending Updates
// on out; it blocks when out is full so the latest OI value is never dropped.
type Listener struct {
	cfg      config.FeedConfig
	registry *chain.Registry
	out      chan<- Update
	logger   *zap.Logger
	now      func() time.Time

	state atomic.Int32

	received      atomic.Int64
	forwarded     atomic.Int64
	discarded     atomic.Int64
	decodeErrors  atomic.Int64
	subscriptions atomic.Int64
	reconnects    atomic.Int64
}

func NewListener(cfg config.FeedConfig, registry *chain.Registry, out chan<- Update, logger *zap.Logger) *Listener {
	return &Listener{
		cfg:      cfg,
		registry: registry,
		out:      out,
		logger:   logger,
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (l *Listener) State() State { return State(l.state.Load()) }

func (l *Listener) setState(s State) {
	prev := State(l.state.Swap(int32(s)))
	if prev != s {
		l.logger.Debug("feed state", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// Stats returns a copy of the counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Received:      l.received.Load(),
		Forwarded:     l.forwarded.Load(),
		Discarded:     l.discarded.Load(),
		DecodeErrors:  l.decodeErrors.Load(),
		Subscriptions: l.subscriptions.Load(),
		Reconnects:    l.reconnects.Load(),
	}
}

// Run connects and streams until ctx is cancelled or the connection fails
// for good. Lost connections are retried up to Reconnect.MaxAttempts times
// with exponential backoff; the attempt budget is restored each time a
// connection reaches streaming. ErrAuthFailed is never retried. A cancelled
// ctx returns nil.
func (l *Listener) Run(ctx context.Context) error {
	rc := l.cfg.Reconnect
	b := &backoff.Backoff{
		Min:    rc.MinDelay,
		Max:    rc.MaxDelay,
		Factor: rc.Factor,
		Jitter: true,
	}

	attempts := 0
	for {
		streamed, err := l.runOnce(ctx)
		if ctx.Err() != nil {
			l.setState(StateClosed)
			return nil
		}
		if errors.Is(err, ErrAuthFailed) {
			l.setState(StateClosed)
			l.logger.Error("feed authentication failed, not retrying", zap.Error(err))
			return err
		}

		if streamed {
			attempts = 0
			b.Reset()
		}
		if attempts >= rc.MaxAttempts {
			l.setState(StateClosed)
			l.logger.Error("feed connection lost", zap.Error(err), zap.Int("attempts", attempts))
			return err
		}
		attempts++
		l.reconnects.Add(1)

		delay := b.Duration()
		l.setState(StateDisconnected)
		l.logger.Warn("feed connection lost, reconnecting",
			zap.Error(err), zap.Int("attempt", attempts), zap.Duration("delay", delay))
		if waitForReconnect(ctx, delay) {
			l.setState(StateClosed)
			return nil
		}
	}
}

// runOnce walks one connection through Connecting → Authenticating →
// Subscribing → Streaming. streamed reports whether Streaming was reached.
func (l *Listener) runOnce(ctx context.Context) (streamed bool, err error) {
	l.setState(StateConnecting)
	client := gdfl.NewWSClient(l.cfg.URL, l.cfg.Exchange, l.cfg.HandshakeTimeout, l.cfg.SubscribeRate, l.logger)
	if err := client.Connect(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	// Closing the connection is the only way to unblock a pending read.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = client.Close()
	}()

	l.setState(StateAuthenticating)
	resp, err := client.Authenticate(l.cfg.APIKey)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	if !resp.Complete {
		return false, fmt.Errorf("%w: %s", ErrAuthFailed, resp.Comment)
	}

	l.setState(StateSubscribing)
	symbols := l.registry.Symbols()
	n, err := client.SubscribeAll(ctx, symbols)
	l.subscriptions.Add(int64(n))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	l.logger.Info("subscribed", zap.Int("instruments", n))

	l.setState(StateStreaming)
	for {
		msg, err := client.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			return true, fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		l.received.Add(1)

		upd, ok, err := l.decode(msg)
		if err != nil {
			l.decodeErrors.Add(1)
			l.logger.Debug("skipping frame", zap.Error(err), zap.ByteString("payload", msg))
			continue
		}
		if !ok {
			l.discarded.Add(1)
			continue
		}

		select {
		case l.out <- upd:
			l.forwarded.Add(1)
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

// decode turns a frame into an Update for a registry instrument. Frames of
// other shapes or for foreign instruments return ok=false. Only the future
// carries a price; option updates keep OI alone.
func (l *Listener) decode(msg []byte) (Update, bool, error) {
	rt, ok, err := gdfl.DecodeRealtime(msg)
	if err != nil {
		return Update{}, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !ok || !l.registry.Contains(rt.InstrumentIdentifier) {
		return Update{}, false, nil
	}

	upd := Update{
		ID:           rt.InstrumentIdentifier,
		OpenInterest: rt.OpenInterest,
		ReceivedAt:   l.now(),
	}
	if l.registry.IsFuture(rt.InstrumentIdentifier) {
		upd.LastPrice = rt.LastTradePrice
	}
	if upd.OpenInterest == nil && upd.LastPrice == nil {
		return Update{}, false, nil
	}
	return upd, true, nil
}

// waitForReconnect sleeps for delay and reports whether ctx ended first.
func waitForReconnect(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
