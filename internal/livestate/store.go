package livestate

import "sync"

// Store holds the latest tick per instrument for a fixed instrument set.
// Unknown ids are ignored, so the set never grows after New.
type Store struct {
	mu          sync.RWMutex
	ticks       map[string]*Tick
	futureID    string
	futurePrice float64
}

// New creates a store with a zero tick for every id. futureID names the
// instrument whose LastPrice is tracked as the future price.
func New(ids []string, futureID string) *Store {
	ticks := make(map[string]*Tick, len(ids))
	for _, id := range ids {
		ticks[id] = &Tick{}
	}
	return &Store{
		ticks:    ticks,
		futureID: futureID,
	}
}

// Update applies a partial tick: nil fields leave the current value unchanged.
// A price is kept only for the future instrument; options track OI alone.
// It reports whether id is part of the instrument set.
func (s *Store) Update(id string, oi, price *float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick, ok := s.ticks[id]
	if !ok {
		return false
	}
	if oi != nil {
		tick.OpenInterest = *oi
	}
	if price != nil && id == s.futureID {
		tick.LastPrice = *price
		tick.HasPrice = true
		s.futurePrice = *price
	}
	return true
}

// Get returns the current tick for id.
func (s *Store) Get(id string) (Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tick, ok := s.ticks[id]
	if !ok {
		return Tick{}, false
	}
	return *tick, true
}

// Snapshot copies every tick by value.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Snapshot, len(s.ticks))
	for id, tick := range s.ticks {
		out[id] = *tick
	}
	return out
}

// FuturePrice returns the last traded price of the future, zero before the
// first future tick.
func (s *Store) FuturePrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.futurePrice
}

// Len returns the size of the instrument set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ticks)
}
