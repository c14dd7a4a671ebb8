package livestate

// Tick is the latest observation for one instrument.
type Tick struct {
	OpenInterest float64 `json:"open_interest"`
	LastPrice    float64 `json:"last_price"`
	HasPrice     bool    `json:"has_price"` // LastPrice has been observed at least once
}

// Snapshot is a point-in-time copy of every tick, keyed by instrument id.
// It shares no memory with the store it was taken from.
type Snapshot map[string]Tick

// OpenInterest returns the snapshot's OI for id, zero when unknown.
func (s Snapshot) OpenInterest(id string) float64 {
	return s[id].OpenInterest
}
