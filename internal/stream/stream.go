// Package stream implements the push channel over which the service sends
// live metric and status updates, as an alternative to polling.
package stream

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/errors"
)

// Message kinds the service pushes.
const (
	TypeMetrics      = "metrics"
	TypeSystemUpdate = "system_update"
)

// Message is one inbound push-channel message. Metric fields are pointers
// so a message can carry any subset of them.
type Message struct {
	Type string `json:"type"`

	// metrics message fields
	CPU           *float64 `json:"cpu,omitempty"`
	Mem           *float64 `json:"mem,omitempty"`
	Disk          *float64 `json:"disk,omitempty"`
	RxBytesPerSec *float64 `json:"rxBytesPerSec,omitempty"`
	TxBytesPerSec *float64 `json:"txBytesPerSec,omitempty"`
	AvgCPU        *float64 `json:"avgCpu,omitempty"`
	AvgMem        *float64 `json:"avgMem,omitempty"`
	AvgDisk       *float64 `json:"avgDisk,omitempty"`

	// system_update message fields
	Data         *api.Snapshot           `json:"data,omitempty"`
	Deprecations []api.DeprecationNotice `json:"deprecations,omitempty"`
}

// Channel is an open push connection. Receive blocks until the next
// message or a channel failure; Close tears the connection down
// immediately without draining.
type Channel interface {
	Receive() (*Message, error)
	Close() error
}

// Dialer opens push channels. The sync scheduler redials through this
// interface, and tests substitute fakes for it.
type Dialer interface {
	Dial(ctx context.Context) (Channel, error)
}

// WebSocketDialer opens channels against the service's websocket endpoint.
type WebSocketDialer struct {
	url    string
	apiKey string
}

// NewWebSocketDialer creates a dialer for the given ws:// or wss:// URL.
// apiKey may be empty.
func NewWebSocketDialer(url, apiKey string) *WebSocketDialer {
	return &WebSocketDialer{url: url, apiKey: apiKey}
}

// Dial opens the websocket connection.
func (d *WebSocketDialer) Dial(ctx context.Context) (Channel, error) {
	header := http.Header{}
	if d.apiKey != "" {
		header.Set("X-API-Key", d.apiKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, d.url, header)
	if err != nil {
		suggestion := "Check the service is running and supports the push channel"
		if resp != nil {
			suggestion = "Server answered " + resp.Status + "; check the configured API key"
		}
		return nil, errors.WrapWithCode(err, errors.ErrChannel,
			"Cannot open push channel to "+d.url, suggestion)
	}
	return &wsChannel{conn: conn}, nil
}

// wsChannel wraps a live websocket connection.
type wsChannel struct {
	conn *websocket.Conn
}

func (c *wsChannel) Receive() (*Message, error) {
	var msg Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			return nil, errors.WrapWithCode(err, errors.ErrChannel,
				"Push channel closed unexpectedly", "")
		}
		return nil, errors.WrapWithCode(err, errors.ErrChannel,
			"Push channel closed", "")
	}
	return &msg, nil
}

func (c *wsChannel) Close() error {
	// No draining: the connection drops immediately.
	return c.conn.Close()
}
