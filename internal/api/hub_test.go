package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/tycoon-clicker/internal/game"
)

// wsMessage mirrors Message with a generic payload for decoding.
type wsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Sender  string      `json:"sender"`
	Intent  string      `json:"intent"`
}

func startHub(t *testing.T, st game.GameState, msgsPerSecond int) (*websocket.Conn, *API) {
	t.Helper()
	a := newTestAPI(t, st)
	hub := NewHub(a, msgsPerSecond)
	a.session.Subscribe(hub.PublishView)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(a.Routes(hub))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, a
}

// readUntil reads frames until match accepts one or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m wsMessage
		require.NoError(t, conn.ReadJSON(&m))
		if match(m) {
			return m
		}
	}
}

func coinsOf(m wsMessage) float64 {
	view, ok := m.Payload.(map[string]interface{})
	if !ok {
		return -1
	}
	coins, _ := view["coins"].(float64)
	return coins
}

func TestHub_InitialStateAndClick(t *testing.T) {
	conn, _ := startHub(t, game.DefaultState(time.Now()), 30)

	first := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "state" })
	assert.Equal(t, "SYSTEM", first.Sender)
	assert.Equal(t, 0.0, coinsOf(first))

	require.NoError(t, conn.WriteJSON(Intent{Type: "click"}))
	readUntil(t, conn, func(m wsMessage) bool { return m.Type == "state" && coinsOf(m) == 1 })
}

func TestHub_RejectedIntentRepliesWithError(t *testing.T) {
	conn, _ := startHub(t, game.DefaultState(time.Now()), 30)

	require.NoError(t, conn.WriteJSON(Intent{Type: "buy", UpgradeID: "mine"}))
	m := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	assert.Equal(t, "Not enough coins", m.Payload)
	assert.Equal(t, "buy", m.Intent)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	m = readUntil(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	assert.Equal(t, "Malformed message", m.Payload)
}

func TestHub_NoticeAndExport(t *testing.T) {
	st := game.DefaultState(time.Now())
	st.Coins = 100
	conn, _ := startHub(t, st, 30)

	require.NoError(t, conn.WriteJSON(Intent{Type: "buy", UpgradeID: "taptech"}))
	m := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "notice" })
	assert.Equal(t, "Bought Tap Tech", m.Payload)

	require.NoError(t, conn.WriteJSON(Intent{Type: "export"}))
	m = readUntil(t, conn, func(m wsMessage) bool { return m.Type == "result" })
	save, ok := m.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 50.0, save["coins"])
}

func TestHub_RateLimit(t *testing.T) {
	conn, a := startHub(t, game.DefaultState(time.Now()), 1)

	// Burst is 2; the rest of a rapid volley is throttled.
	for i := 0; i < 6; i++ {
		require.NoError(t, conn.WriteJSON(Intent{Type: "sync"}))
	}
	m := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	assert.Equal(t, "Slow down", m.Payload)
	assert.Greater(t, atomic.LoadInt64(&a.metrics.WSThrottled), int64(0))
}
