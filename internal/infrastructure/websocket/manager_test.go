package websocket

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"feedrelay/internal/application/usecase/aggregate"
	"feedrelay/internal/application/usecase/broadcast"
	"feedrelay/internal/domain"
)

type staticViewer struct{ views []domain.LivePriceView }

func (s staticViewer) View(aggregate.Filter) []domain.LivePriceView { return s.views }

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestManagerRoundTrip(t *testing.T) {
	reg, err := domain.NewRegistry(domain.DefaultInstruments())
	require.NoError(t, err)
	gold := domain.InstrumentID("XAU")

	hub := broadcast.NewHub(broadcast.HubDeps{
		Viewer:   staticViewer{views: []domain.LivePriceView{{AssetID: gold, Symbol: "XAU", DisplayPrice: big.NewInt(1)}}},
		Registry: reg,
	})
	m := NewManager(hub)
	srv := httptest.NewServer(m)
	defer srv.Close()
	defer m.Shutdown()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	require.Equal(t, "pong", readFrame(t, conn)["type"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","assetId":"`+gold+`"}`)))
	require.Equal(t, "subscribed", readFrame(t, conn)["type"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope"}`)))
	require.Equal(t, "error", readFrame(t, conn)["type"])

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	hub.Tick(context.Background())
	update := readFrame(t, conn)
	require.Equal(t, "priceUpdate", update["type"])
	require.Len(t, update["data"], 1)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownSendsNormalClosure(t *testing.T) {
	reg, err := domain.NewRegistry(domain.DefaultInstruments())
	require.NoError(t, err)
	hub := broadcast.NewHub(broadcast.HubDeps{Viewer: staticViewer{}, Registry: reg})
	m := NewManager(hub)
	srv := httptest.NewServer(m)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	m.Shutdown()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
