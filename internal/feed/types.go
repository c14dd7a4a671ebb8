package feed

import (
	"errors"
	"time"
)

var (
	// ErrAuthFailed means the feed rejected the credential. It is terminal:
	// the listener never retries it.
	ErrAuthFailed = errors.New("feed authentication failed")
	// ErrConnectionLost covers every transport failure after the listener
	// started connecting.
	ErrConnectionLost = errors.New("feed connection lost")
	// ErrDecode marks an inbound frame that could not be parsed. It is only
	// counted and logged; the stream continues.
	ErrDecode = errors.New("feed decode error")
)

// State is the listener's position in its connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateSubscribing
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Update is one decoded tick handed to the consumer. Nil fields were absent
// from the frame and must leave stored values unchanged.
type Update struct {
	ID           string
	OpenInterest *float64
	LastPrice    *float64
	ReceivedAt   time.Time
}

// Stats are cumulative listener counters.
type Stats struct {
	Received      int64
	Forwarded     int64
	Discarded     int64
	DecodeErrors  int64
	Subscriptions int64
	Reconnects    int64
}
