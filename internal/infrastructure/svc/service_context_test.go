package svc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"feedrelay/internal/infrastructure/config"
)

func TestNewReadOnlyWithSQLite(t *testing.T) {
	t.Setenv("RELAY_DISABLED", "true")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.SQLite.Enabled = true
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "feedrelay.db")

	sc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer sc.Close()

	require.Nil(t, sc.Writer)
	require.NotNil(t, sc.Scheduler)
	require.Len(t, sc.repos, 1)

	rec := httptest.NewRecorder()
	sc.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"relayEnabled":false`)
}

func TestNewWithoutSources(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	for name, sc := range cfg.Sources {
		sc.Enabled = false
		cfg.Sources[name] = sc
	}

	_, err = New(context.Background(), cfg)
	require.ErrorIs(t, err, ErrNoSourcesEnabled)
}
