package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesActionAndError(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOptions(Options{Level: "DEBUG", Format: "json", Output: &buf})
	require.NoError(t, err)

	l.With("service", "settlement-service").Action("payment_rejected").Error("Payment rejected", errors.New("overpay"), "session_id", "s1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "payment_rejected", entry["action"])
	assert.Equal(t, "settlement-service", entry["service"])
	assert.Equal(t, "overpay", entry["error"])
	assert.Equal(t, "s1", entry["session_id"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOptions(Options{Level: "WARN", Output: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestNewRejectsUnknownLevelAndFormat(t *testing.T) {
	_, err := NewWithOptions(Options{Level: "LOUD"})
	assert.Error(t, err)

	_, err = NewWithOptions(Options{Level: "INFO", Format: "xml"})
	assert.Error(t, err)
}
