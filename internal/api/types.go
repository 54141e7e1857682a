package api

import "encoding/json"

// Operation is one named remote capability declared by the service.
// The parameter schema is kept opaque here; internal/schema normalizes it.
type Operation struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Snapshot is the last-known aggregate state of the remote service.
// It is replaced wholesale on every successful status fetch or push
// system_update message, never partially merged.
type Snapshot struct {
	Initialized bool           `json:"initialized"`
	Tools       []Operation    `json:"tools"`
	Counts      map[string]int `json:"counts"`
}

// SystemMetrics is the instantaneous utilization reading of the service host.
type SystemMetrics struct {
	CPUPercent float64      `json:"cpuPercent"`
	Memory     UsageMetrics `json:"memory"`
	Disk       UsageMetrics `json:"disk"`
}

// UsageMetrics is a percent plus used/total byte counts.
type UsageMetrics struct {
	Percent float64 `json:"percent"`
	Used    int64   `json:"used"`
	Total   int64   `json:"total"`
}

// NetworkPoint is one sample of network throughput rates.
type NetworkPoint struct {
	TS            int64   `json:"ts"`
	RxBytesPerSec float64 `json:"rxBytesPerSec"`
	TxBytesPerSec float64 `json:"txBytesPerSec"`
}

// DeprecationNotice is a server-declared warning that an operation is going away.
type DeprecationNotice struct {
	Endpoint        string            `json:"endpoint"`
	RemoveInVersion string            `json:"removeInVersion"`
	HitCount        int               `json:"hitCount"`
	MigrationHints  map[string]string `json:"migrationHints"`
}

// callRequest is the wire form of an invocation.
type callRequest struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// callResponse is the result-or-error envelope returned by /api/call.
type callResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// deprecationsResponse is the one-shot deprecation fetch payload.
type deprecationsResponse struct {
	Deprecated []DeprecationNotice `json:"deprecated"`
}

// networkResponse wraps the windowed network rate samples.
type networkResponse struct {
	Points []NetworkPoint `json:"points"`
}
