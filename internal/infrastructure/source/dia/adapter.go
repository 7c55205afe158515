package dia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/source"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Adapter queries the DIA RWA endpoint once per instrument with bounded concurrency.
type Adapter struct {
	baseURL     string
	concurrency int
	client      *source.Client
	now         func() time.Time
}

type rwaResp struct {
	Ticker    string      `json:"Ticker"`
	Name      string      `json:"Name"`
	Price     json.Number `json:"Price"`
	Timestamp string      `json:"Timestamp"`
}

func New(s sourcefeed.Settings) *Adapter {
	conc := s.Concurrency
	if conc <= 0 {
		conc = 4
	}
	return &Adapter{
		baseURL:     strings.TrimRight(s.BaseURL, "/"),
		concurrency: conc,
		client: source.NewClient(
			source.WithHTTPClient(s.HTTPClient),
			source.WithRate(s.RatePerSec, s.Burst),
		),
		now: time.Now,
	}
}

func (a *Adapter) Source() domain.Source { return domain.SourceDIA }

// segment maps a category to the RWA path segment.
func segment(c domain.Category) string {
	switch c {
	case domain.CategoryCommodity:
		return "Commodities"
	case domain.CategoryFX:
		return "Fiat"
	case domain.CategoryFund:
		return "Funds"
	default:
		return "Equities"
	}
}

func (a *Adapter) Fetch(ctx context.Context, instruments []domain.Instrument) ([]domain.PriceQuote, error) {
	var (
		mu       sync.Mutex
		quotes   []domain.PriceQuote
		failures int
		firstErr error
		attempts int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, inst := range instruments {
		ref, ok := inst.Feed(domain.SourceDIA)
		if !ok || ref.Ticker == "" {
			continue
		}
		attempts++
		g.Go(func() error {
			q, err := a.fetchOne(gctx, inst, ref.Ticker)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				if firstErr == nil {
					firstErr = err
				}
				log.Warn().Err(err).Str("source", "dia").Str("asset", inst.Symbol).Msg("instrument fetch failed")
				return nil
			}
			quotes = append(quotes, q)
			return nil
		})
	}
	_ = g.Wait()

	if attempts > 0 && failures == attempts {
		return nil, fmt.Errorf("dia: all %d requests failed: %w", attempts, firstErr)
	}
	return quotes, nil
}

func (a *Adapter) fetchOne(ctx context.Context, inst domain.Instrument, ticker string) (domain.PriceQuote, error) {
	endpoint := fmt.Sprintf("%s/v1/rwa/%s/%s", a.baseURL, segment(inst.Category), url.PathEscape(ticker))

	var resp rwaResp
	if err := a.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return domain.PriceQuote{}, err
	}
	if resp.Price == "" {
		return domain.PriceQuote{}, errors.New("missing Price")
	}
	price, err := domain.ParseFixed(resp.Price.String())
	if err != nil {
		return domain.PriceQuote{}, err
	}
	if price.Sign() <= 0 {
		return domain.PriceQuote{}, fmt.Errorf("non-positive price %s", resp.Price)
	}

	observed := a.now().Unix()
	if ts, err := time.Parse(time.RFC3339Nano, resp.Timestamp); err == nil {
		observed = ts.Unix()
	} else {
		log.Debug().Str("source", "dia").Str("asset", inst.Symbol).Str("timestamp", resp.Timestamp).Msg("unparsable timestamp, using ingestion time")
	}
	return domain.NewQuote(inst.ID, domain.SourceDIA, price, observed), nil
}
