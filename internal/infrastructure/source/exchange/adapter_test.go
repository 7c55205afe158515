package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/stretchr/testify/require"
)

func listed(symbol string, ref domain.FeedRef) domain.Instrument {
	return domain.Instrument{
		ID:       domain.InstrumentID(symbol),
		Symbol:   symbol,
		Category: domain.CategoryListedEquity,
		Feeds:    map[domain.Source]domain.FeedRef{domain.SourceExchange: ref},
	}
}

func TestFetchLiveAndHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/last/SCOM":
			_, _ = w.Write([]byte(`{"symbol":"SCOM","price":1725,"currency":"USD","t":1700000000}`))
		case "/v1/last/BAD":
			_, _ = w.Write([]byte(`{"symbol":"BAD","price":17.25,"t":1700000000}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	history := filepath.Join(t.TempDir(), "eqty.json")
	require.NoError(t, os.WriteFile(history, []byte(`[
		{"date":"2024-01-03","close":4150},
		{"date":"2024-01-02","close":4100}
	]`), 0o644))

	a := New(sourcefeed.Settings{BaseURL: srv.URL})
	quotes, err := a.Fetch(context.Background(), []domain.Instrument{
		listed("SCOM", domain.FeedRef{Ticker: "SCOM", Divisor: 100}),
		listed("BAD", domain.FeedRef{Ticker: "BAD", Divisor: 100}),
		listed("EQTY", domain.FeedRef{HistoryFile: history, Divisor: 100}),
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	byID := map[string]domain.PriceQuote{}
	for _, q := range quotes {
		byID[q.InstrumentID] = q
	}
	scom := byID[domain.InstrumentID("SCOM")]
	require.Equal(t, "1725000000", scom.Price.String())
	require.Equal(t, int64(1700000000), scom.ObservedAt)

	eqty := byID[domain.InstrumentID("EQTY")]
	require.Equal(t, "4150000000", eqty.Price.String())
	require.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).Unix(), eqty.ObservedAt)
}

func TestFetchMissingHistoryFile(t *testing.T) {
	a := New(sourcefeed.Settings{BaseURL: "http://unused.invalid"})
	_, err := a.Fetch(context.Background(), []domain.Instrument{
		listed("EQTY", domain.FeedRef{HistoryFile: filepath.Join(t.TempDir(), "nope.json")}),
	})
	require.Error(t, err)
}
