package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySymbol      = errors.New("instrument symbol is empty")
	ErrUnknownCategory  = errors.New("unknown instrument category")
	ErrNoFeeds          = errors.New("instrument has no source feeds")
	ErrDuplicateAssetID = errors.New("duplicate asset id")
)

// Registry is the immutable set of tracked instruments, keyed by asset id.
type Registry struct {
	order []Instrument
	byID  map[string]int
}

// NewRegistry validates the list and fills in derived fields (ID, Decimals).
func NewRegistry(list []Instrument) (*Registry, error) {
	r := &Registry{
		order: make([]Instrument, 0, len(list)),
		byID:  make(map[string]int, len(list)),
	}
	for _, inst := range list {
		inst.Symbol = strings.ToUpper(strings.TrimSpace(inst.Symbol))
		if inst.Symbol == "" {
			return nil, ErrEmptySymbol
		}
		if _, ok := ParseCategory(string(inst.Category)); !ok {
			return nil, fmt.Errorf("%s: %w: %q", inst.Symbol, ErrUnknownCategory, inst.Category)
		}
		if len(inst.Feeds) == 0 {
			return nil, fmt.Errorf("%s: %w", inst.Symbol, ErrNoFeeds)
		}
		if inst.ID == "" {
			inst.ID = InstrumentID(inst.Symbol)
		}
		inst.ID = strings.ToLower(inst.ID)
		if inst.Name == "" {
			inst.Name = inst.Symbol
		}
		inst.Decimals = PriceDecimals
		if _, dup := r.byID[inst.ID]; dup {
			return nil, fmt.Errorf("%s: %w %s", inst.Symbol, ErrDuplicateAssetID, inst.ID)
		}
		r.byID[inst.ID] = len(r.order)
		r.order = append(r.order, inst)
	}
	return r, nil
}

func (r *Registry) Len() int { return len(r.order) }

// All returns the instruments in registration order.
func (r *Registry) All() []Instrument {
	out := make([]Instrument, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Get(id string) (Instrument, bool) {
	idx, ok := r.byID[strings.ToLower(id)]
	if !ok {
		return Instrument{}, false
	}
	return r.order[idx], true
}

// ForSource returns the instruments mapped to src.
func (r *Registry) ForSource(src Source) []Instrument {
	var out []Instrument
	for _, inst := range r.order {
		if _, ok := inst.Feeds[src]; ok {
			out = append(out, inst)
		}
	}
	return out
}
