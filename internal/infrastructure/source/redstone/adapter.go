package redstone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/source"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/rs/zerolog/log"
)

const provider = "redstone-primary-prod"

// Adapter reads the RedStone prices API in one batch call.
type Adapter struct {
	baseURL string
	client  *source.Client
	now     func() time.Time
}

type priceEntry struct {
	Symbol    string      `json:"symbol"`
	Value     json.Number `json:"value"`
	Timestamp int64       `json:"timestamp"` // ms
}

func New(s sourcefeed.Settings) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(s.BaseURL, "/"),
		client: source.NewClient(
			source.WithHTTPClient(s.HTTPClient),
			source.WithRate(s.RatePerSec, s.Burst),
		),
		now: time.Now,
	}
}

func (a *Adapter) Source() domain.Source { return domain.SourceRedStone }

func (a *Adapter) Fetch(ctx context.Context, instruments []domain.Instrument) ([]domain.PriceQuote, error) {
	bySymbol := make(map[string]domain.Instrument, len(instruments))
	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		ref, ok := inst.Feed(domain.SourceRedStone)
		if !ok || ref.Ticker == "" {
			continue
		}
		sym := strings.ToUpper(ref.Ticker)
		bySymbol[sym] = inst
		symbols = append(symbols, sym)
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	q.Set("provider", provider)

	var resp map[string]priceEntry
	if err := a.client.GetJSON(ctx, a.baseURL+"/prices?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("redstone prices: %w", err)
	}

	quotes := make([]domain.PriceQuote, 0, len(resp))
	for _, sym := range symbols {
		entry, ok := resp[sym]
		inst := bySymbol[sym]
		if !ok {
			log.Debug().Str("source", "redstone").Str("asset", inst.Symbol).Msg("symbol absent from response")
			continue
		}
		price, err := domain.ParseFixed(entry.Value.String())
		if err != nil || price.Sign() <= 0 {
			log.Warn().Err(err).Str("source", "redstone").Str("asset", inst.Symbol).Str("value", entry.Value.String()).Msg("invalid price")
			continue
		}
		observed := entry.Timestamp / 1000
		if observed <= 0 {
			observed = a.now().Unix()
		}
		quotes = append(quotes, domain.NewQuote(inst.ID, domain.SourceRedStone, price, observed))
	}
	return quotes, nil
}
