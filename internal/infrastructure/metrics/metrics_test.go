package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"feedrelay/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	c := New()
	c.AdapterFetched(domain.SourcePyth, nil, 3, 120*time.Millisecond)
	c.AdapterFetched(domain.SourcePyth, errors.New("x"), 0, time.Second)
	c.RelayWrite(domain.SourceDIA, domain.RelayConfirmed)
	c.Subscribers(4)
	c.CycleSkipped()

	require.Equal(t, 1.0, testutil.ToFloat64(c.adapterFetch.WithLabelValues("pyth", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.adapterFetch.WithLabelValues("pyth", "error")))
	require.Equal(t, 0.0, testutil.ToFloat64(c.adapterQuotes.WithLabelValues("pyth")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.relayWrites.WithLabelValues("dia", "confirmed")))
	require.Equal(t, 4.0, testutil.ToFloat64(c.subscribers))
	require.Equal(t, 1.0, testutil.ToFloat64(c.cycleSkipped))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	require.Contains(t, string(body), "feedrelay_relay_writes_total")
}
