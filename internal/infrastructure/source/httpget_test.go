package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("X-API-Key"))
		require.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"price": 2005.123456789}`))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("X-API-Key", "secret"), WithRate(100, 1))
	var out struct {
		Price json.Number `json:"price"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	require.Equal(t, "2005.123456789", out.Price.String())
}

func TestGetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 2000), http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient().GetJSON(context.Background(), srv.URL, &struct{}{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadGateway, se.Code)
	require.Len(t, se.Body, maxErrorBody)
}
