package metals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/source"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Adapter reads per-gram spot rates in one batch call and converts them with each feed's unit factor.
type Adapter struct {
	baseURL string
	client  *source.Client
	now     func() time.Time
}

type latestResp struct {
	Success   bool                   `json:"success"`
	Timestamp int64                  `json:"timestamp"`
	Base      string                 `json:"base"`
	Unit      string                 `json:"unit"`
	Rates     map[string]json.Number `json:"rates"`
	Error     *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

func New(s sourcefeed.Settings) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(s.BaseURL, "/"),
		client: source.NewClient(
			source.WithHTTPClient(s.HTTPClient),
			source.WithRate(s.RatePerSec, s.Burst),
			source.WithHeader("X-API-Key", s.APIKey),
		),
		now: time.Now,
	}
}

func (a *Adapter) Source() domain.Source { return domain.SourceMetals }

func (a *Adapter) Fetch(ctx context.Context, instruments []domain.Instrument) ([]domain.PriceQuote, error) {
	type target struct {
		inst   domain.Instrument
		factor decimal.Decimal
	}
	byTicker := make(map[string]target, len(instruments))
	tickers := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		ref, ok := inst.Feed(domain.SourceMetals)
		if !ok || ref.Ticker == "" {
			continue
		}
		factor := decimal.NewFromInt(1)
		if ref.UnitFactor != "" {
			f, err := decimal.NewFromString(ref.UnitFactor)
			if err != nil || !f.IsPositive() {
				log.Warn().Str("source", "metals").Str("asset", inst.Symbol).Str("unit_factor", ref.UnitFactor).Msg("invalid unit factor")
				continue
			}
			factor = f
		}
		t := strings.ToUpper(ref.Ticker)
		byTicker[t] = target{inst, factor}
		tickers = append(tickers, t)
	}
	if len(tickers) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("base", "USD")
	q.Set("currencies", strings.Join(tickers, ","))
	q.Set("unit", "gram")

	var resp latestResp
	if err := a.client.GetJSON(ctx, a.baseURL+"/latest?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("metals latest: %w", err)
	}
	if !resp.Success {
		msg := "unsuccessful response"
		if resp.Error != nil && resp.Error.Info != "" {
			msg = resp.Error.Info
		}
		return nil, fmt.Errorf("metals latest: %w", errors.New(msg))
	}

	observed := resp.Timestamp
	if observed <= 0 {
		observed = a.now().Unix()
	}

	quotes := make([]domain.PriceQuote, 0, len(tickers))
	for _, t := range tickers {
		tg := byTicker[t]
		raw, ok := resp.Rates[t]
		if !ok {
			log.Debug().Str("source", "metals").Str("asset", tg.inst.Symbol).Msg("rate absent from response")
			continue
		}
		perGram, err := decimal.NewFromString(raw.String())
		if err != nil || !perGram.IsPositive() {
			log.Warn().Str("source", "metals").Str("asset", tg.inst.Symbol).Str("rate", raw.String()).Msg("invalid rate")
			continue
		}
		price := domain.FromDecimal(perGram.Mul(tg.factor))
		quotes = append(quotes, domain.NewQuote(tg.inst.ID, domain.SourceMetals, price, observed))
	}
	return quotes, nil
}
