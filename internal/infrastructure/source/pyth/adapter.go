package pyth

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/source"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/rs/zerolog/log"
)

// Adapter reads the Hermes latest-price endpoint in one batch call.
type Adapter struct {
	baseURL string
	client  *source.Client
	now     func() time.Time
}

type priceResp struct {
	Parsed []parsedPrice `json:"parsed"`
}

type parsedPrice struct {
	ID    string `json:"id"`
	Price struct {
		Price       string `json:"price"`
		Conf        string `json:"conf"`
		Expo        int32  `json:"expo"`
		PublishTime int64  `json:"publish_time"`
	} `json:"price"`
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

func (a *Adapter) Source() domain.Source { return domain.SourcePyth }

func (a *Adapter) Fetch(ctx context.Context, instruments []domain.Instrument) ([]domain.PriceQuote, error) {
	byFeed := make(map[string]domain.Instrument, len(instruments))
	q := url.Values{}
	for _, inst := range instruments {
		ref, ok := inst.Feed(domain.SourcePyth)
		if !ok || ref.FeedID == "" {
			continue
		}
		id := normalizeID(ref.FeedID)
		byFeed[id] = inst
		q.Add("ids[]", id)
	}
	if len(byFeed) == 0 {
		return nil, nil
	}
	q.Set("parsed", "true")

	var resp priceResp
	if err := a.client.GetJSON(ctx, a.baseURL+"/v2/updates/price/latest?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("pyth latest: %w", err)
	}

	quotes := make([]domain.PriceQuote, 0, len(resp.Parsed))
	for _, p := range resp.Parsed {
		inst, ok := byFeed[normalizeID(p.ID)]
		if !ok {
			continue
		}
		mantissa, ok := new(big.Int).SetString(p.Price.Price, 10)
		if !ok {
			log.Warn().Str("source", "pyth").Str("asset", inst.Symbol).Str("price", p.Price.Price).Msg("unparsable price")
			continue
		}
		price := domain.ScaleExpo(mantissa, p.Price.Expo)
		if price.Sign() <= 0 {
			log.Warn().Str("source", "pyth").Str("asset", inst.Symbol).Msg("non-positive price")
			continue
		}
		observed := p.Price.PublishTime
		if observed <= 0 {
			observed = a.now().Unix()
		}
		quotes = append(quotes, domain.NewQuote(inst.ID, domain.SourcePyth, price, observed))
	}
	if missing := len(byFeed) - len(quotes); missing > 0 {
		log.Debug().Str("source", "pyth").Int("missing", missing).Msg("feeds absent from response")
	}
	return quotes, nil
}

// normalizeID lowercases and strips the 0x prefix; Hermes returns ids without it.
func normalizeID(id string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x")
}
