package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"oiroc/internal/aggregator"
	"oiroc/internal/feed"
	"oiroc/internal/history"
	"oiroc/internal/livestate"

	"go.uber.org/zap"
)

// FeedStatus reports the listener's lifecycle state and counters.
type FeedStatus interface {
	State() feed.State
	Stats() feed.Stats
}

// RowHandler is called from the consumer loop after each appended row.
type RowHandler func(row history.Row, view View)

// Options configures a Session.
type Options struct {
	Window       int
	PollInterval time.Duration
	OnRow        RowHandler
}

// Session is the single consumer of the hand-off channel. It is the only
// writer of the live store and the history store, and the only place rows
// are computed, so aggregation cycles never overlap.
type Session struct {
	in      <-chan feed.Update
	live    *livestate.Store
	agg     *aggregator.Aggregator
	history *history.Store
	feed    FeedStatus
	opts    Options
	logger  *zap.Logger

	ticksApplied  int64
	lastTickAt    time.Time
	lastCycleAt   time.Time
	persistErrors int64

	view atomic.Pointer[View]
}

func New(in <-chan feed.Update, live *livestate.Store, agg *aggregator.Aggregator,
	hist *history.Store, status FeedStatus, opts Options, logger *zap.Logger) *Session {
	if opts.Window <= 0 {
		opts.Window = 20
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	s := &Session{
		in:      in,
		live:    live,
		agg:     agg,
		history: hist,
		feed:    status,
		opts:    opts,
		logger:  logger,
	}
	s.publish()
	return s
}

// Start restores today's history and arms the first aggregation deadline.
// A restore failure is logged and the session starts empty.
func (s *Session) Start(now time.Time) {
	if _, err := s.history.Restore(now); err != nil {
		s.logger.Error("history restore failed, starting empty", zap.Error(err))
	}
	s.agg.Start(now)
	s.publish()
}

// Run polls until ctx is cancelled, then persists and archives one last time.
func (s *Session) Run(ctx context.Context) error {
	s.Start(time.Now())

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case now := <-ticker.C:
			s.Pass(ctx, now)
		}
	}
}

func (s *Session) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	s.drain(now)
	if err := s.history.Persist(ctx, now); err != nil {
		s.persistFailed(err)
	}
	if err := s.history.Archive(ctx); err != nil {
		s.persistFailed(err)
	}
	s.publish()
	s.logger.Info("session stopped", zap.Int("rows", s.history.Table().Len()))
}

// Pass drains every queued update, rolls the day over if needed, runs at most
// one aggregation cycle and flushes history when due. It never blocks on the
// hand-off channel and returns the number of updates applied.
func (s *Session) Pass(ctx context.Context, now time.Time) int {
	applied := s.drain(now)

	if rolled, err := s.history.Rollover(ctx, now); err != nil {
		s.persistFailed(err)
	} else if rolled {
		s.logger.Info("started new trading day", zap.String("date", s.history.Table().Date()))
	}

	appended := false
	if s.agg.Due(now) {
		row := s.agg.Cycle(now)
		s.history.Append(row)
		s.lastCycleAt = now
		appended = true
	}

	if s.history.PersistDue(now) {
		if err := s.history.Persist(ctx, now); err != nil {
			s.persistFailed(err)
		}
	}

	view := s.publish()
	if appended && s.opts.OnRow != nil {
		s.opts.OnRow(view.Rows[0], *view)
	}
	return applied
}

func (s *Session) drain(now time.Time) int {
	applied := 0
	for {
		select {
		case upd, ok := <-s.in:
			if !ok {
				s.in = nil
				return applied
			}
			if s.live.Update(upd.ID, upd.OpenInterest, upd.LastPrice) {
				applied++
				s.ticksApplied++
				s.lastTickAt = upd.ReceivedAt
				if s.lastTickAt.IsZero() {
					s.lastTickAt = now
				}
			}
		default:
			return applied
		}
	}
}

func (s *Session) persistFailed(err error) {
	s.persistErrors++
	if errors.Is(err, history.ErrPersist) {
		s.logger.Error("history persist failed, continuing in memory", zap.Error(err))
		return
	}
	s.logger.Error("history error", zap.Error(err))
}

func (s *Session) publish() *View {
	table := s.history.Table()
	v := &View{
		Date:           table.Date(),
		Columns:        table.Columns(),
		Rows:           table.Window(s.opts.Window),
		TotalRows:      table.Len(),
		FuturePrice:    s.live.FuturePrice(),
		FeedState:      feed.StateDisconnected,
		TicksApplied:   s.ticksApplied,
		LastTickAt:     s.lastTickAt,
		LastCycleAt:    s.lastCycleAt,
		NextCycleAt:    s.agg.Deadline(),
		NextRolloverAt: s.history.RolloverAt(),
		PersistErrors:  s.persistErrors,
	}
	v.HasFuturePrice = v.FuturePrice != 0
	if s.feed != nil {
		v.FeedState = s.feed.State()
		v.Reconnects = s.feed.Stats().Reconnects
	}
	s.view.Store(v)
	return v
}

// View returns the latest published copy. It is safe to call from any
// goroutine.
func (s *Session) View() View {
	return *s.view.Load()
}
