package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_InfoFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("restaurant-pos", &buf, slog.LevelDebug)

	log.Info("order_created", "Order created", "req-1", map[string]interface{}{"order_id": 7})

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Order created", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "restaurant-pos", rec["service"])
	assert.Equal(t, "order_created", rec["action"])
	assert.Equal(t, "req-1", rec["request_id"])

	details, ok := rec["details"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 7, details["order_id"])
}

func TestLogger_ErrorGroup(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("restaurant-pos", &buf, slog.LevelDebug)

	log.Error("db_query_failed", "Query failed", "req-2", errors.New("boom"), nil)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	group, ok := rec["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boom", group["msg"])
	assert.NotEmpty(t, group["stack"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("restaurant-pos", &buf, slog.LevelInfo)

	log.Debug("noise", "hidden", "", nil)
	assert.Zero(t, buf.Len())
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
