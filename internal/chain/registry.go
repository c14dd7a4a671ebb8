package chain

import (
	"fmt"
	"strconv"
	"strings"
)

// OptionType is the call/put suffix of an option identifier.
type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"

	futureSuffix = "FUT"
)

// Instrument is one tradable identifier of the chain. Strike and Type are
// zero for the future.
type Instrument struct {
	ID     string
	Strike int
	Type   OptionType
	Future bool
}

// Registry is the fixed instrument set for one expiry. It is immutable after
// NewRegistry and safe for concurrent use.
type Registry struct {
	expiry      string
	instruments []Instrument
	byID        map[string]Instrument
	columns     []string
}

// NewRegistry enumerates every strike in [low, high] with the given step as a
// call and a put, followed by the expiry's future. The order is stable and is
// the order subscriptions are sent in.
func NewRegistry(expiry string, low, high, step int) (*Registry, error) {
	expiry = strings.TrimSpace(expiry)
	if expiry == "" {
		return nil, fmt.Errorf("chain: empty expiry")
	}
	if step <= 0 {
		return nil, fmt.Errorf("chain: strike step must be positive, got %d", step)
	}
	if low <= 0 || high < low {
		return nil, fmt.Errorf("chain: invalid strike range [%d, %d]", low, high)
	}

	r := &Registry{
		expiry: expiry,
		byID:   make(map[string]Instrument),
	}
	for strike := low; strike <= high; strike += step {
		for _, typ := range []OptionType{Call, Put} {
			inst := Instrument{
				ID:     fmt.Sprintf("%s%d%s", expiry, strike, typ),
				Strike: strike,
				Type:   typ,
			}
			r.add(inst)
			r.columns = append(r.columns, columnName(strike, typ))
		}
	}
	r.add(Instrument{ID: expiry + futureSuffix, Future: true})

	return r, nil
}

func (r *Registry) add(inst Instrument) {
	r.instruments = append(r.instruments, inst)
	r.byID[inst.ID] = inst
}

func columnName(strike int, typ OptionType) string {
	return strconv.Itoa(strike) + " " + strings.ToLower(string(typ))
}

// Expiry returns the identifier prefix shared by every instrument.
func (r *Registry) Expiry() string { return r.expiry }

// Symbols returns every instrument id in subscription order.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.instruments))
	for i, inst := range r.instruments {
		out[i] = inst.ID
	}
	return out
}

// Instruments returns a copy of the instrument list in subscription order.
func (r *Registry) Instruments() []Instrument {
	out := make([]Instrument, len(r.instruments))
	copy(out, r.instruments)
	return out
}

// Options returns the option instruments only, in subscription order.
func (r *Registry) Options() []Instrument {
	out := make([]Instrument, 0, len(r.instruments)-1)
	for _, inst := range r.instruments {
		if !inst.Future {
			out = append(out, inst)
		}
	}
	return out
}

// Future returns the id of the underlying future.
func (r *Registry) Future() string { return r.expiry + futureSuffix }

// Columns returns the fixed display column set, "<strike> ce" / "<strike> pe".
func (r *Registry) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Contains reports whether id belongs to the chain.
func (r *Registry) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// IsFuture reports whether id is the chain's future.
func (r *Registry) IsFuture(id string) bool {
	inst, ok := r.byID[id]
	return ok && inst.Future
}

// DisplayColumn maps an option id to its column key. The future and unknown
// ids have no column.
func (r *Registry) DisplayColumn(id string) (string, bool) {
	inst, ok := r.byID[id]
	if !ok || inst.Future {
		return "", false
	}
	return columnName(inst.Strike, inst.Type), true
}
