package pyth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/sourcefeed"

	"github.com/stretchr/testify/require"
)

func gold() domain.Instrument {
	return domain.Instrument{
		ID:     domain.InstrumentID("XAU"),
		Symbol: "XAU",
		Feeds:  map[domain.Source]domain.FeedRef{domain.SourcePyth: {FeedID: "0xAA11"}},
	}
}

func silver() domain.Instrument {
	return domain.Instrument{
		ID:     domain.InstrumentID("XAG"),
		Symbol: "XAG",
		Feeds:  map[domain.Source]domain.FeedRef{domain.SourcePyth: {FeedID: "bb22"}},
	}
}

func TestFetchScalesMantissa(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/updates/price/latest", r.URL.Path)
		require.Equal(t, []string{"aa11", "bb22"}, r.URL.Query()["ids[]"])
		require.Equal(t, "true", r.URL.Query().Get("parsed"))
		_, _ = w.Write([]byte(`{"binary":{},"parsed":[
			{"id":"aa11","price":{"price":"200512345678","conf":"1","expo":-8,"publish_time":1700000000}},
			{"id":"bb22","price":{"price":"garbage","conf":"1","expo":-8,"publish_time":1700000000}},
			{"id":"cc33","price":{"price":"1","conf":"1","expo":-8,"publish_time":1700000000}}
		]}`))
	}))
	defer srv.Close()

	a := New(sourcefeed.Settings{BaseURL: srv.URL})
	quotes, err := a.Fetch(context.Background(), []domain.Instrument{gold(), silver()})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	require.Equal(t, gold().ID, q.InstrumentID)
	require.Equal(t, domain.SourcePyth, q.Source)
	require.Equal(t, "200512345678", q.Price.String())
	require.Equal(t, int64(1700000000), q.ObservedAt)
	require.Equal(t, domain.PriceDecimals, q.Decimals)
}

func TestFetchBatchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(sourcefeed.Settings{BaseURL: srv.URL}).Fetch(context.Background(), []domain.Instrument{gold()})
	require.Error(t, err)
}

func TestFetchNothingMapped(t *testing.T) {
	a := New(sourcefeed.Settings{BaseURL: "http://unused.invalid"})
	quotes, err := a.Fetch(context.Background(), []domain.Instrument{{Symbol: "X"}})
	require.NoError(t, err)
	require.Empty(t, quotes)
}

func TestFetchMissingPublishTimeUsesFetchTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"parsed":[{"id":"aa11","price":{"price":"200512345678","conf":"1","expo":-8}}]}`))
	}))
	defer srv.Close()

	a := New(sourcefeed.Settings{BaseURL: srv.URL})
	a.now = func() time.Time { return time.Unix(1700000500, 0) }

	quotes, err := a.Fetch(context.Background(), []domain.Instrument{gold()})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, int64(1700000500), quotes[0].ObservedAt)
	require.True(t, quotes[0].Valid())
}
