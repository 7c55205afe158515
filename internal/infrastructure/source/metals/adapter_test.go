package metals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/stretchr/testify/require"
)

func inst(symbol, factor string) domain.Instrument {
	return domain.Instrument{
		ID:     domain.InstrumentID(symbol),
		Symbol: symbol,
		Feeds:  map[domain.Source]domain.FeedRef{domain.SourceMetals: {Ticker: symbol, UnitFactor: factor}},
	}
}

func TestFetchConvertsGramsToTroyOunces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/latest", r.URL.Path)
		require.Equal(t, "XAU,XAG", r.URL.Query().Get("currencies"))
		require.Equal(t, "gram", r.URL.Query().Get("unit"))
		require.Equal(t, "k", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"success":true,"timestamp":1700000000,"base":"USD","unit":"gram","rates":{"XAU":64.5,"XAG":0}}`))
	}))
	defer srv.Close()

	a := New(sourcefeed.Settings{BaseURL: srv.URL, APIKey: "k"})
	quotes, err := a.Fetch(context.Background(), []domain.Instrument{
		inst("XAU", domain.TroyOunceGrams),
		inst("XAG", domain.TroyOunceGrams),
	})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	// 64.5 * 31.1034768 = 2006.1742536
	require.Equal(t, "200617425360", quotes[0].Price.String())
	require.Equal(t, int64(1700000000), quotes[0].ObservedAt)
}

func TestFetchUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":101,"info":"invalid api key"}}`))
	}))
	defer srv.Close()

	_, err := New(sourcefeed.Settings{BaseURL: srv.URL}).Fetch(context.Background(), []domain.Instrument{inst("XAU", "")})
	require.ErrorContains(t, err, "invalid api key")
}
