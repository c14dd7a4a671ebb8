package aggregator

import (
	"fmt"
	"time"

	"oiroc/internal/calendar"
	"oiroc/internal/chain"
	"oiroc/internal/history"
	"oiroc/internal/livestate"
)

// ComputeRoC returns the percentage change from past to live. A zero past
// value yields exactly 0.
func ComputeRoC(past, live float64) float64 {
	if past == 0 {
		return 0
	}
	return (live - past) / past * 100
}

// FormatRoC renders a RoC value with two decimals and a percent sign.
func FormatRoC(roc float64) string {
	return fmt.Sprintf("%.2f%%", roc)
}

// Aggregator produces one history row per interval from the live store.
//
// The baseline for a cycle is the store as it was at the previous boundary
// (or at Start for the first cycle). A cycle first computes every option's
// RoC against that baseline and only then captures the next baseline, so
// consecutive measurement windows share their boundary instant.
type Aggregator struct {
	registry *chain.Registry
	store    *livestate.Store
	clock    *calendar.Clock
	interval time.Duration

	past     livestate.Snapshot
	deadline time.Time
	started  bool
}

func New(registry *chain.Registry, store *livestate.Store, clock *calendar.Clock, interval time.Duration) *Aggregator {
	return &Aggregator{
		registry: registry,
		store:    store,
		clock:    clock,
		interval: interval,
	}
}

// Start captures the first baseline and arms the first deadline.
func (a *Aggregator) Start(now time.Time) {
	a.past = a.store.Snapshot()
	a.deadline = now.Add(a.interval)
	a.started = true
}

// Deadline returns the instant the next cycle becomes due.
func (a *Aggregator) Deadline() time.Time { return a.deadline }

// Due reports whether at least one interval has elapsed since the last boundary.
func (a *Aggregator) Due(now time.Time) bool {
	return a.started && !now.Before(a.deadline)
}

// Cycle computes a row against the current baseline, then resets the
// baseline to the live state and advances the deadline from now.
func (a *Aggregator) Cycle(now time.Time) history.Row {
	if !a.started {
		a.Start(now)
	}

	live := a.store.Snapshot()
	row := history.Row{
		Timestamp: a.clock.Timestamp(now),
		Values:    make(map[string]string, len(live)),
	}
	for _, inst := range a.registry.Options() {
		col, ok := a.registry.DisplayColumn(inst.ID)
		if !ok {
			continue
		}
		roc := ComputeRoC(a.past.OpenInterest(inst.ID), live.OpenInterest(inst.ID))
		row.Values[col] = FormatRoC(roc)
	}

	a.past = live
	a.deadline = now.Add(a.interval)
	return row
}
