package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"feedrelay/internal/application/port"
	"feedrelay/internal/application/usecase/aggregate"
	"feedrelay/internal/application/usecase/relay"
	"feedrelay/internal/domain"

	"github.com/rs/zerolog/log"
)

type Aggregator interface {
	Refresh(ctx context.Context) aggregate.RefreshReport
	View(f aggregate.Filter) []domain.LivePriceView
}

type Relayer interface {
	Relay(ctx context.Context, quotes []domain.PriceQuote) relay.Summary
}

type Broadcaster interface {
	Tick(ctx context.Context)
}

type SchedulerDeps struct {
	Aggregator        Aggregator
	Relayer           Relayer // nil: read-only mode, nothing is written on-chain
	Broadcaster       Broadcaster
	Repo              port.QuoteRepository // optional quote history
	Publisher         port.ViewPublisher   // optional view mirror
	Metrics           port.Metrics
	RelayInterval     time.Duration
	BroadcastInterval time.Duration
}

// Scheduler drives the relay cycle and the broadcast cycle on independent timers.
type Scheduler struct {
	deps    SchedulerDeps
	running atomic.Bool
	wg      sync.WaitGroup
}

func New(deps SchedulerDeps) *Scheduler {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	return &Scheduler{deps: deps}
}

// Run blocks until ctx is done, then waits for an in-flight relay cycle. Cancellation is a clean stop and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.deps.RelayInterval <= 0 || s.deps.BroadcastInterval <= 0 {
		return errors.New("scheduler intervals must be positive")
	}
	defer s.wg.Wait()

	relayTicker := time.NewTicker(s.deps.RelayInterval)
	defer relayTicker.Stop()
	broadcastTicker := time.NewTicker(s.deps.BroadcastInterval)
	defer broadcastTicker.Stop()

	log.Info().
		Dur("relay_interval", s.deps.RelayInterval).
		Dur("broadcast_interval", s.deps.BroadcastInterval).
		Bool("relay_enabled", s.deps.Relayer != nil).
		Msg("scheduler started")

	s.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopped")
			return nil
		case <-relayTicker.C:
			s.trigger(ctx)
		case <-broadcastTicker.C:
			if s.deps.Broadcaster != nil {
				s.deps.Broadcaster.Tick(ctx)
			}
		}
	}
}

// trigger starts a relay cycle in the background unless one is already running.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.deps.Metrics.CycleSkipped()
		log.Warn().Msg("previous relay cycle still running, skipping tick")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.cycle(ctx)
	}()
}

// RunCycle runs one relay cycle synchronously. It reports false when a cycle was already running.
func (s *Scheduler) RunCycle(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.deps.Metrics.CycleSkipped()
		return false
	}
	defer s.running.Store(false)
	s.cycle(ctx)
	return true
}

func (s *Scheduler) cycle(ctx context.Context) {
	start := time.Now()
	report := s.deps.Aggregator.Refresh(ctx)

	var sum relay.Summary
	if s.deps.Relayer != nil && len(report.Quotes) > 0 {
		sum = s.deps.Relayer.Relay(ctx, report.Quotes)
	}

	if s.deps.Repo != nil && len(report.Quotes) > 0 {
		if err := s.deps.Repo.SaveQuotes(ctx, report.Quotes); err != nil {
			log.Warn().Err(err).Msg("save quote history failed")
		}
	}

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishViews(ctx, s.deps.Aggregator.View(aggregate.Filter{})); err != nil {
			log.Warn().Err(err).Msg("publish views failed")
		}
	}

	log.Info().
		Int("quotes", len(report.Quotes)).
		Bool("replaced", report.Replaced).
		Int("submitted", sum.Submitted).
		Dur("took", time.Since(start)).
		Msg("relay cycle done")
}
