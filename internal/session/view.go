package session

import (
	"time"

	"oiroc/internal/feed"
	"oiroc/internal/history"
)

// Status is what a renderer should tell the user about the data it shows.
type Status string

const (
	StatusWaiting      Status = "no data yet"
	StatusDisconnected Status = "feed disconnected"
	StatusLive         Status = "live"
)

// View is an immutable copy of the session published after every pass.
// Renderers only ever see Views; they never touch the live stores.
type View struct {
	Date           string
	Columns        []string
	Rows           []history.Row // newest first, at most the window size
	TotalRows      int
	FuturePrice    float64
	HasFuturePrice bool
	FeedState      feed.State
	Reconnects     int64
	TicksApplied   int64
	LastTickAt     time.Time
	LastCycleAt    time.Time
	NextCycleAt    time.Time
	NextRolloverAt time.Time
	PersistErrors  int64
}

// Status distinguishes a dead feed from one that has not delivered yet.
// A feed counts as dead once it is closed, or once it dropped after a
// connection was attempted. The listener starts out Disconnected before its
// first dial, which is still "no data yet". A live feed whose rows are all
// 0.00% is StatusLive.
func (v View) Status() Status {
	switch {
	case v.FeedState == feed.StateClosed:
		return StatusDisconnected
	case v.FeedState == feed.StateDisconnected && v.Reconnects > 0:
		return StatusDisconnected
	case v.TicksApplied == 0 || v.TotalRows == 0:
		return StatusWaiting
	}
	return StatusLive
}
