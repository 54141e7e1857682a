package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "errors"

	"github.com/pinctl/pinctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke(t *testing.T) {
	var gotBody callRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/call", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "sekrit", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"result":{"ok":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit", time.Second)
	result, err := c.Invoke(context.Background(), "create_backend", map[string]interface{}{
		"name": "s3-main",
		"type": "s3",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(result))
	assert.Equal(t, "create_backend", gotBody.Name)
	assert.Equal(t, "s3-main", gotBody.Args["name"])
	assert.Equal(t, "s3", gotBody.Args["type"])
}

func TestInvokeRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"BACKEND_EXISTS","message":"already there"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Invoke(context.Background(), "create_backend", nil)
	require.Error(t, err)

	var invErr *InvokeError
	require.True(t, pkgerrors.As(err, &invErr))
	assert.Equal(t, "create_backend", invErr.Operation)
	// The remote error payload is passed through verbatim.
	assert.JSONEq(t, `{"code":"BACKEND_EXISTS","message":"already there"}`, string(invErr.Payload))
}

func TestInvokeTransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 100*time.Millisecond)
	_, err := c.Invoke(context.Background(), "noop", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransport))
}

func TestFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/status", r.URL.Path)
		w.Write([]byte(`{
			"initialized": true,
			"tools": [{"name":"create_backend","description":"Create a storage backend"}],
			"counts": {"backends": 2, "buckets": 5, "pins": 31}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	snap, err := c.FetchStatus(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Initialized)
	require.Len(t, snap.Tools, 1)
	assert.Equal(t, "create_backend", snap.Tools[0].Name)
	assert.Equal(t, 2, snap.Counts["backends"])
	assert.Equal(t, 31, snap.Counts["pins"])
}

func TestFetchSystemMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/metrics/system", r.URL.Path)
		w.Write([]byte(`{
			"cpuPercent": 42.5,
			"memory": {"percent": 61.2, "used": 4900000000, "total": 8000000000},
			"disk": {"percent": 88.1, "used": 881, "total": 1000}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	m, err := c.FetchSystemMetrics(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 42.5, m.CPUPercent, 0.001)
	assert.InDelta(t, 61.2, m.Memory.Percent, 0.001)
	assert.Equal(t, int64(8000000000), m.Memory.Total)
	assert.InDelta(t, 88.1, m.Disk.Percent, 0.001)
}

func TestFetchNetworkMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/metrics/network", r.URL.Path)
		require.Equal(t, "120", r.URL.Query().Get("window"))
		w.Write([]byte(`{"points":[{"ts":1700000000,"rxBytesPerSec":1024,"txBytesPerSec":512}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	points, err := c.FetchNetworkMetrics(context.Background(), 120)
	require.NoError(t, err)

	require.Len(t, points, 1)
	assert.Equal(t, int64(1700000000), points[0].TS)
	assert.InDelta(t, 1024, points[0].RxBytesPerSec, 0.001)
	assert.InDelta(t, 512, points[0].TxBytesPerSec, 0.001)
}

func TestFetchDeprecations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/deprecations", r.URL.Path)
		w.Write([]byte(`{"deprecated":[
			{"endpoint":"pin_add_v1","removeInVersion":"2.0","hitCount":7,
			 "migrationHints":{"use":"pin_add"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	notices, err := c.FetchDeprecations(context.Background())
	require.NoError(t, err)

	require.Len(t, notices, 1)
	assert.Equal(t, "pin_add_v1", notices[0].Endpoint)
	assert.Equal(t, 7, notices[0].HitCount)
	assert.Equal(t, "pin_add", notices[0].MigrationHints["use"])
}

func TestFetchStatusHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.FetchStatus(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransport))
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		expected string
	}{
		{"http", "http://localhost:8763", "ws://localhost:8763/api/ws"},
		{"https", "https://pins.example.com", "wss://pins.example.com/api/ws"},
		{"trailing slash", "http://localhost:8763/", "ws://localhost:8763/api/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.base, "", time.Second)
			got, err := c.WebSocketURL()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
