package dia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/stretchr/testify/require"
)

func inst(symbol, ticker string, cat domain.Category) domain.Instrument {
	return domain.Instrument{
		ID:       domain.InstrumentID(symbol),
		Symbol:   symbol,
		Category: cat,
		Feeds:    map[domain.Source]domain.FeedRef{domain.SourceDIA: {Ticker: ticker}},
	}
}

func TestFetchPerInstrument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/rwa/Commodities/XAU-USD":
			_, _ = w.Write([]byte(`{"Ticker":"XAU-USD","Name":"Gold","Price":2010.5,"Timestamp":"2023-11-14T22:13:20Z"}`))
		case "/v1/rwa/Fiat/EUR-USD":
			_, _ = w.Write([]byte(`{"Ticker":"EUR-USD","Price":1.0812345678,"Timestamp":"not-a-time"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := New(sourcefeed.Settings{BaseURL: srv.URL, Concurrency: 2})
	quotes, err := a.Fetch(context.Background(), []domain.Instrument{
		inst("XAU", "XAU-USD", domain.CategoryCommodity),
		inst("EUR", "EUR-USD", domain.CategoryFX),
		inst("AAPL", "AAPL", domain.CategoryEquity), // 404, dropped
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	byID := map[string]domain.PriceQuote{}
	for _, q := range quotes {
		byID[q.InstrumentID] = q
	}
	gold := byID[domain.InstrumentID("XAU")]
	require.Equal(t, "201050000000", gold.Price.String())
	require.Equal(t, int64(1700000000), gold.ObservedAt)

	eur := byID[domain.InstrumentID("EUR")]
	require.Equal(t, "108123456", eur.Price.String())
	require.Positive(t, eur.ObservedAt)
}

func TestFetchAllFailedIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(sourcefeed.Settings{BaseURL: srv.URL})
	_, err := a.Fetch(context.Background(), []domain.Instrument{inst("XAU", "XAU-USD", domain.CategoryCommodity)})
	require.Error(t, err)
}

func TestSegment(t *testing.T) {
	require.Equal(t, "Funds", segment(domain.CategoryFund))
	require.Equal(t, "Equities", segment(domain.CategoryListedEquity))
}
