package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrConfig, "Config file not found", "Run 'pinctl init' first")

	assert.Equal(t, ErrConfig, err.Code)
	assert.Contains(t, err.Error(), "✗ Config file not found")
	assert.Contains(t, err.Error(), "Run 'pinctl init' first")
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, "Failed to reach server")

	assert.Equal(t, ErrTransport, err.Code)
	assert.Contains(t, err.Error(), "Failed to reach server")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, err.Unwrap())
}

func TestWrapWithCode(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := WrapWithCode(cause, ErrChannel, "Push channel closed", "Reconnecting shortly")

	assert.Equal(t, ErrChannel, err.Code)
	assert.Contains(t, err.Error(), "Push channel closed")
	assert.Contains(t, err.Error(), "unexpected EOF")
	assert.Contains(t, err.Error(), "Reconnecting shortly")
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		expected bool
	}{
		{"nil error", nil, ErrConfig, false},
		{"matching code", New(ErrValidate, "missing field", ""), ErrValidate, true},
		{"different code", New(ErrValidate, "missing field", ""), ErrInvoke, false},
		{"plain error", fmt.Errorf("boom"), ErrConfig, false},
		{"wrapped structured error", fmt.Errorf("outer: %w", New(ErrInvoke, "remote failed", "")), ErrInvoke, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCode(tt.err, tt.code))
		})
	}
}
