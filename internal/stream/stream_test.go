package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// wsServer starts a test websocket endpoint that runs handler per connection.
func wsServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialAndReceiveMetrics(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		err := conn.WriteJSON(map[string]interface{}{
			"type":          "metrics",
			"cpu":           42.0,
			"rxBytesPerSec": 1024.0,
		})
		require.NoError(t, err)
		time.Sleep(100 * time.Millisecond)
	})

	ch, err := NewWebSocketDialer(url, "").Dial(context.Background())
	require.NoError(t, err)
	defer ch.Close()

	msg, err := ch.Receive()
	require.NoError(t, err)

	assert.Equal(t, TypeMetrics, msg.Type)
	require.NotNil(t, msg.CPU)
	assert.InDelta(t, 42.0, *msg.CPU, 0.001)
	require.NotNil(t, msg.RxBytesPerSec)
	assert.InDelta(t, 1024.0, *msg.RxBytesPerSec, 0.001)
	assert.Nil(t, msg.Mem)
}

func TestReceiveSystemUpdate(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		err := conn.WriteJSON(map[string]interface{}{
			"type": "system_update",
			"data": map[string]interface{}{
				"initialized": true,
				"counts":      map[string]int{"backends": 3},
			},
			"deprecations": []map[string]interface{}{
				{"endpoint": "pin_add_v1", "hitCount": 2},
			},
		})
		require.NoError(t, err)
		time.Sleep(100 * time.Millisecond)
	})

	ch, err := NewWebSocketDialer(url, "").Dial(context.Background())
	require.NoError(t, err)
	defer ch.Close()

	msg, err := ch.Receive()
	require.NoError(t, err)

	assert.Equal(t, TypeSystemUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.True(t, msg.Data.Initialized)
	assert.Equal(t, 3, msg.Data.Counts["backends"])
	require.Len(t, msg.Deprecations, 1)
	assert.Equal(t, "pin_add_v1", msg.Deprecations[0].Endpoint)
}

func TestReceiveAfterServerClose(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		// Close straight away.
	})

	ch, err := NewWebSocketDialer(url, "").Dial(context.Background())
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.Receive()
	assert.Error(t, err)
}

func TestDialSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	ch, err := NewWebSocketDialer(url, "sekrit").Dial(context.Background())
	require.NoError(t, err)
	ch.Close()

	assert.Equal(t, "sekrit", gotKey)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := NewWebSocketDialer("ws://127.0.0.1:1/api/ws", "").Dial(ctx)
	assert.Error(t, err)
}
