package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIST(t *testing.T) *Clock {
	t.Helper()
	c, err := NewClock("Asia/Kolkata", "09:15", "15:30")
	require.NoError(t, err)
	return c
}

// go test -v --run TestTradingHours
func TestTradingHours(t *testing.T) {
	c := newIST(t)
	ist := c.Location()

	// Friday 16 Oct 2026
	assert.True(t, c.InTradingHours(time.Date(2026, 10, 16, 9, 15, 0, 0, ist)))
	assert.True(t, c.InTradingHours(time.Date(2026, 10, 16, 15, 29, 59, 0, ist)))
	assert.False(t, c.InTradingHours(time.Date(2026, 10, 16, 15, 30, 0, 0, ist)))
	assert.False(t, c.InTradingHours(time.Date(2026, 10, 16, 9, 14, 0, 0, ist)))
	// Saturday
	assert.False(t, c.InTradingHours(time.Date(2026, 10, 17, 11, 0, 0, 0, ist)))

	// 04:00 UTC is 09:30 IST
	assert.True(t, c.InTradingHours(time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC)))
}

func TestDateKeyAndTimestamp(t *testing.T) {
	c := newIST(t)

	// 20:00 UTC on the 15th is already the 16th in IST
	ts := time.Date(2026, 10, 15, 20, 0, 5, 0, time.UTC)
	assert.Equal(t, "2026-10-16", c.DateKey(ts))
	assert.Equal(t, "01:30:05", c.Timestamp(ts))
}

func TestNextMidnight(t *testing.T) {
	c := newIST(t)
	ist := c.Location()

	next := c.NextMidnight(time.Date(2026, 10, 16, 23, 59, 0, 0, ist))
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, ist), next)

	next = c.NextMidnight(time.Date(2026, 10, 16, 0, 0, 0, 0, ist))
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, ist), next)
}

func TestNewClockErrors(t *testing.T) {
	_, err := NewClock("Mars/Olympus", "09:15", "15:30")
	assert.Error(t, err)
	_, err = NewClock("Asia/Kolkata", "9am", "15:30")
	assert.Error(t, err)
	_, err = NewClock("Asia/Kolkata", "15:30", "09:15")
	assert.Error(t, err)
}
