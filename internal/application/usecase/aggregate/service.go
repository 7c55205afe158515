package aggregate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	TTL              time.Duration
	DisplayStaleness time.Duration
	AdapterTimeout   time.Duration
}

type ServiceDeps struct {
	Registry *domain.Registry
	Adapters []port.SourceAdapter
	Config   Config
	Metrics  port.Metrics
	Now      func() time.Time
}

type Service struct {
	registry *domain.Registry
	adapters []port.SourceAdapter
	cfg      Config
	metrics  port.Metrics
	now      func() time.Time
	cache    *Cache

	refreshMu sync.Mutex
	sf        singleflight.Group

	healthMu sync.RWMutex
	health   map[domain.Source]SourceHealth
}

// AdapterResult is the outcome of one adapter call within a refresh.
type AdapterResult struct {
	Source  domain.Source
	Quotes  []domain.PriceQuote
	Err     error
	Elapsed time.Duration
}

// RefreshReport summarizes one refresh.
// Quotes holds only what was fetched in this refresh, never carried-over cache content.
type RefreshReport struct {
	Results  []AdapterResult
	Quotes   []domain.PriceQuote
	Replaced bool
	At       time.Time
}

func NewService(deps ServiceDeps) *Service {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		registry: deps.Registry,
		adapters: deps.Adapters,
		cfg:      deps.Config,
		metrics:  deps.Metrics,
		now:      deps.Now,
		cache:    NewCache(),
		health:   make(map[domain.Source]SourceHealth),
	}
}

func (s *Service) Registry() *domain.Registry { return s.registry }

func (s *Service) Snapshot() *Snapshot { return s.cache.Load() }

// Refresh queries every adapter concurrently and swaps in the new snapshot.
// When every adapter returns nothing the previous quotes are kept; LastFetch is bumped either way.
func (s *Service) Refresh(ctx context.Context) RefreshReport {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	results := s.fetchAll(ctx)
	at := s.now()

	var fresh []domain.PriceQuote
	for _, r := range results {
		fresh = append(fresh, r.Quotes...)
	}

	prev := s.cache.Load()
	next := &Snapshot{Quotes: prev.Quotes, LastFetch: at}
	replaced := false
	if len(fresh) > 0 || prev.Empty() {
		next.Quotes = group(fresh)
		replaced = true
	} else {
		log.Warn().Int("adapters", len(results)).Msg("all providers failed, serving previous quotes")
	}
	s.cache.Store(next)
	s.recordHealth(results, at)

	log.Debug().
		Int("quotes", len(fresh)).
		Bool("replaced", replaced).
		Msg("cache refreshed")

	return RefreshReport{Results: results, Quotes: fresh, Replaced: replaced, At: at}
}

// EnsureFresh refreshes when the cache is empty or older than the TTL.
// Concurrent callers share one refresh.
func (s *Service) EnsureFresh(ctx context.Context) {
	snap := s.cache.Load()
	if !snap.Empty() && s.now().Sub(snap.LastFetch) < s.cfg.TTL {
		return
	}
	_, _, _ = s.sf.Do("refresh", func() (any, error) {
		s.Refresh(context.WithoutCancel(ctx))
		return nil, nil
	})
}

func (s *Service) fetchAll(ctx context.Context) []AdapterResult {
	out := make(chan AdapterResult, len(s.adapters))
	for _, a := range s.adapters {
		go func(a port.SourceAdapter) {
			out <- s.fetchOne(ctx, a)
		}(a)
	}

	results := make([]AdapterResult, 0, len(s.adapters))
	for range s.adapters {
		results = append(results, <-out)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Source.Rank() < results[j].Source.Rank() })
	return results
}

func (s *Service) fetchOne(ctx context.Context, a port.SourceAdapter) AdapterResult {
	src := a.Source()
	res := AdapterResult{Source: src}

	instruments := s.registry.ForSource(src)
	if len(instruments) == 0 {
		return res
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
	defer cancel()

	type fetched struct {
		quotes []domain.PriceQuote
		err    error
	}
	done := make(chan fetched, 1)
	start := time.Now()
	go func() {
		q, err := a.Fetch(cctx, instruments)
		done <- fetched{q, err}
	}()

	var f fetched
	select {
	case f = <-done:
	case <-cctx.Done():
		// a late result lands in the buffered channel and is dropped
	}
	if err := cctx.Err(); err != nil {
		res.Err = fmt.Errorf("%s: %w", src, err)
	} else {
		res.Quotes, res.Err = s.sanitize(src, f.quotes), f.err
	}
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		log.Warn().Err(res.Err).Str("source", string(src)).Dur("elapsed", res.Elapsed).Msg("adapter fetch failed")
	}
	s.metrics.AdapterFetched(src, res.Err, len(res.Quotes), res.Elapsed)
	return res
}

// sanitize drops quotes that are invalid or do not belong to src's instrument subset.
func (s *Service) sanitize(src domain.Source, quotes []domain.PriceQuote) []domain.PriceQuote {
	out := quotes[:0:0]
	for _, q := range quotes {
		inst, ok := s.registry.Get(q.InstrumentID)
		if !ok || q.Source != src || !q.Valid() {
			log.Debug().Str("source", string(src)).Str("asset", q.InstrumentID).Msg("dropping invalid quote")
			continue
		}
		if _, mapped := inst.Feed(src); !mapped {
			continue
		}
		q.InstrumentID = inst.ID
		out = append(out, q)
	}
	return out
}

// group indexes quotes by instrument, keeping the newest quote per source, ordered by source rank.
func group(quotes []domain.PriceQuote) map[string][]domain.PriceQuote {
	type key struct {
		id  string
		src domain.Source
	}
	newest := make(map[key]domain.PriceQuote, len(quotes))
	for _, q := range quotes {
		k := key{q.InstrumentID, q.Source}
		if cur, ok := newest[k]; !ok || q.ObservedAt > cur.ObservedAt {
			newest[k] = q
		}
	}

	out := make(map[string][]domain.PriceQuote)
	for k, q := range newest {
		out[k.id] = append(out[k.id], q)
	}
	for id := range out {
		list := out[id]
		sort.Slice(list, func(i, j int) bool { return list[i].Source.Rank() < list[j].Source.Rank() })
	}
	return out
}
