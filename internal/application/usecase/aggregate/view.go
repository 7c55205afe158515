package aggregate

import (
	"math/big"
	"strings"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/domain/service"
)

// Filter narrows View output. Zero values match everything.
type Filter struct {
	AssetID  string
	Category domain.Category
}

func (f Filter) match(inst domain.Instrument) bool {
	if f.AssetID != "" && !strings.EqualFold(f.AssetID, inst.ID) {
		return false
	}
	if f.Category != "" && f.Category != inst.Category {
		return false
	}
	return true
}

// View builds the read model from the current snapshot. It never triggers a refresh.
func (s *Service) View(f Filter) []domain.LivePriceView {
	snap := s.cache.Load()
	now := s.now()

	status := domain.CacheStale
	if now.Sub(snap.LastFetch) < s.cfg.TTL {
		status = domain.CacheFresh
	}

	views := make([]domain.LivePriceView, 0, s.registry.Len())
	for _, inst := range s.registry.All() {
		if !f.match(inst) {
			continue
		}
		views = append(views, buildView(inst, snap.Quotes[inst.ID], now, s.cfg.DisplayStaleness, status))
	}
	return views
}

func buildView(inst domain.Instrument, quotes []domain.PriceQuote, now time.Time, staleness time.Duration, status domain.CacheStatus) domain.LivePriceView {
	v := domain.LivePriceView{
		AssetID:     inst.ID,
		Symbol:      inst.Symbol,
		Name:        inst.Name,
		Category:    inst.Category,
		Sources:     make(map[domain.Source]domain.SourcePrice, len(quotes)),
		CacheStatus: status,
	}

	var ok []*big.Int
	for _, q := range quotes {
		st := service.Classify(q, now, staleness)
		v.Sources[q.Source] = domain.SourcePrice{Price: q.Price, Timestamp: q.ObservedAt, Status: st}
		if st == domain.QuoteOK {
			ok = append(ok, q.Price)
		}
		if q.ObservedAt > v.LastUpdated {
			v.LastUpdated = q.ObservedAt
		}
	}

	v.Median = service.Median(ok)
	switch {
	case v.Median.Sign() > 0:
		v.DisplayPrice = v.Median
	case len(quotes) > 0:
		v.DisplayPrice = quotes[0].Price
	default:
		v.DisplayPrice = new(big.Int)
	}
	return v
}
