package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/source"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Adapter reads last-trade prices of exchange-listed equities quoted in minor units.
// Instruments with a history file are served from the file's latest close instead.
type Adapter struct {
	baseURL     string
	concurrency int
	client      *source.Client
	now         func() time.Time
}

type lastResp struct {
	Symbol string      `json:"symbol"`
	Price  json.Number `json:"price"` // minor units
	T      int64       `json:"t"`
}

type historyRow struct {
	Date  string      `json:"date"`
	Close json.Number `json:"close"` // minor units
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
			source.WithHeader("X-API-Key", s.APIKey),
		),
		now: time.Now,
	}
}

func (a *Adapter) Source() domain.Source { return domain.SourceExchange }

func (a *Adapter) Fetch(ctx context.Context, instruments []domain.Instrument) ([]domain.PriceQuote, error) {
	var (
		mu       sync.Mutex
		quotes   []domain.PriceQuote
		failures int
		attempts int
		firstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, inst := range instruments {
		ref, ok := inst.Feed(domain.SourceExchange)
		if !ok || (ref.Ticker == "" && ref.HistoryFile == "") {
			continue
		}
		attempts++
		g.Go(func() error {
			var q domain.PriceQuote
			var err error
			if ref.HistoryFile != "" {
				q, err = a.fromHistory(inst, ref)
			} else {
				q, err = a.fromLive(gctx, inst, ref)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				if firstErr == nil {
					firstErr = err
				}
				log.Warn().Err(err).Str("source", "exchange").Str("asset", inst.Symbol).Msg("instrument fetch failed")
				return nil
			}
			quotes = append(quotes, q)
			return nil
		})
	}
	_ = g.Wait()

	if attempts > 0 && failures == attempts {
		return nil, fmt.Errorf("exchange: all %d requests failed: %w", attempts, firstErr)
	}
	return quotes, nil
}

func (a *Adapter) fromLive(ctx context.Context, inst domain.Instrument, ref domain.FeedRef) (domain.PriceQuote, error) {
	var resp lastResp
	if err := a.client.GetJSON(ctx, a.baseURL+"/v1/last/"+url.PathEscape(ref.Ticker), &resp); err != nil {
		return domain.PriceQuote{}, err
	}
	price, err := minorUnits(resp.Price, ref.Divisor)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	observed := resp.T
	if observed <= 0 {
		observed = a.now().Unix()
	}
	return domain.NewQuote(inst.ID, domain.SourceExchange, price, observed), nil
}

// fromHistory uses the most recent close in the file; the row's date is the observation time.
func (a *Adapter) fromHistory(inst domain.Instrument, ref domain.FeedRef) (domain.PriceQuote, error) {
	raw, err := os.ReadFile(ref.HistoryFile)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	var rows []historyRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decode %s: %w", ref.HistoryFile, err)
	}
	if len(rows) == 0 {
		return domain.PriceQuote{}, errors.New("history file is empty")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	last := rows[len(rows)-1]

	price, err := minorUnits(last.Close, ref.Divisor)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	observed := a.now().Unix()
	if d, err := time.Parse(time.DateOnly, last.Date); err == nil {
		observed = d.Unix()
	}
	return domain.NewQuote(inst.ID, domain.SourceExchange, price, observed), nil
}

func minorUnits(n json.Number, divisor int64) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(n.String(), 10)
	if !ok {
		return nil, fmt.Errorf("price %q is not an integer amount of minor units", n)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("non-positive price %s", n)
	}
	return domain.FromMinorUnits(amount, divisor), nil
}
