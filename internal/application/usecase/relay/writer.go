package relay

//go:generate mockgen -destination=mock_oracle_test.go -package=relay feedrelay/internal/application/port OracleClient

import (
	"context"
	"errors"
	"time"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"

	"github.com/rs/zerolog/log"
)

// ErrRelayDisabled is reported when the writer cannot be built from the configuration.
var ErrRelayDisabled = errors.New("relay disabled: missing signing key or rpc url")

type Config struct {
	Staleness      time.Duration
	RPCTimeout     time.Duration
	ConfirmTimeout time.Duration
	// Adapters maps each source to its on-chain adapter contract address.
	Adapters map[domain.Source]string
}

type WriterDeps struct {
	Client  port.OracleClient
	Repo    port.QuoteRepository // optional relay log
	Config  Config
	Metrics port.Metrics
	Now     func() time.Time
}

// Writer pushes fresh quotes to the on-chain adapters, one quote at a time.
type Writer struct {
	client  port.OracleClient
	repo    port.QuoteRepository
	cfg     Config
	metrics port.Metrics
	now     func() time.Time
}

// Summary counts the outcome of every quote handed to Relay.
type Summary struct {
	Stale       int
	Unmapped    int
	UpToDate    int
	Submitted   int
	Confirmed   int
	Unconfirmed int
	Failed      int
}

func NewWriter(deps WriterDeps) *Writer {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Writer{
		client:  deps.Client,
		repo:    deps.Repo,
		cfg:     deps.Config,
		metrics: deps.Metrics,
		now:     deps.Now,
	}
}

// Relay processes quotes sequentially. Per-quote errors are logged and never abort the batch.
func (w *Writer) Relay(ctx context.Context, quotes []domain.PriceQuote) Summary {
	var sum Summary
	for _, q := range quotes {
		if ctx.Err() != nil {
			break
		}
		w.relayOne(ctx, q, &sum)
	}
	log.Info().
		Int("quotes", len(quotes)).
		Int("stale", sum.Stale).
		Int("up_to_date", sum.UpToDate).
		Int("submitted", sum.Submitted).
		Int("confirmed", sum.Confirmed).
		Int("unconfirmed", sum.Unconfirmed).
		Int("failed", sum.Failed).
		Msg("relay cycle finished")
	return sum
}

func (w *Writer) relayOne(ctx context.Context, q domain.PriceQuote, sum *Summary) {
	l := log.With().Str("source", string(q.Source)).Str("asset", q.InstrumentID).Logger()

	if age := q.Age(w.now()); age > w.cfg.Staleness {
		sum.Stale++
		l.Debug().Dur("age", age).Msg("quote too old to relay")
		return
	}

	adapter, ok := w.cfg.Adapters[q.Source]
	if !ok || adapter == "" {
		sum.Unmapped++
		l.Warn().Msg("no adapter configured for source")
		return
	}

	rctx, cancel := context.WithTimeout(ctx, w.cfg.RPCTimeout)
	onchain, err := w.client.GetPrice(rctx, adapter, q.InstrumentID)
	cancel()
	if err != nil {
		sum.Failed++
		l.Error().Err(err).Msg("read on-chain price failed")
		w.metrics.RelayWrite(q.Source, domain.RelayFailed)
		return
	}

	if q.ObservedAt <= onchain.Timestamp {
		sum.UpToDate++
		l.Info().Int64("observed_at", q.ObservedAt).Int64("onchain_ts", onchain.Timestamp).Msg("already up-to-date")
		return
	}

	rec := domain.RelayRecord{
		AssetID:    q.InstrumentID,
		Source:     q.Source,
		Adapter:    adapter,
		Price:      q.Price.String(),
		ObservedAt: q.ObservedAt,
	}

	wctx, cancel := context.WithTimeout(ctx, w.cfg.RPCTimeout)
	txHash, err := w.client.UpdatePrice(wctx, adapter, q.InstrumentID, q.Price, q.ObservedAt)
	cancel()
	if err != nil {
		sum.Failed++
		l.Error().Err(err).Msg("submit updatePrice failed")
		rec.Status, rec.Error = domain.RelayFailed, err.Error()
		w.record(ctx, rec)
		return
	}
	sum.Submitted++
	rec.TxHash = txHash
	l.Info().Str("tx", txHash).Str("price", domain.FormatFixed(q.Price)).Msg("updatePrice submitted")

	cctx, cancel := context.WithTimeout(ctx, w.cfg.ConfirmTimeout)
	err = w.client.WaitMined(cctx, txHash)
	cancel()
	switch {
	case err == nil:
		sum.Confirmed++
		rec.Status = domain.RelayConfirmed
		l.Info().Str("tx", txHash).Msg("updatePrice confirmed")
	case errors.Is(err, context.DeadlineExceeded):
		sum.Unconfirmed++
		rec.Status = domain.RelayUnconfirmed
		l.Info().Str("tx", txHash).Dur("waited", w.cfg.ConfirmTimeout).Msg("confirmation timeout, continuing")
	default:
		sum.Failed++
		rec.Status, rec.Error = domain.RelayFailed, err.Error()
		l.Error().Err(err).Str("tx", txHash).Msg("updatePrice failed on-chain")
	}
	w.record(ctx, rec)
}

func (w *Writer) record(ctx context.Context, rec domain.RelayRecord) {
	w.metrics.RelayWrite(rec.Source, rec.Status)
	if w.repo == nil {
		return
	}
	rec.At = w.now()
	if err := w.repo.RecordRelay(ctx, rec); err != nil {
		log.Warn().Err(err).Str("asset", rec.AssetID).Msg("record relay failed")
	}
}
