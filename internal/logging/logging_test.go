package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line, "expected a log line")
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &out))
	return out
}

func TestWithContext_AddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("gateway", "debug", "json", &buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithRole(ctx, "admin")

	logger.WithContext(ctx).Info("hello")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "gateway", entry["service"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "admin", entry["role"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestRedactHook(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("gateway", "info", "json", &buf)

	logger.WithContext(context.Background()).WithFields(map[string]interface{}{
		"authorization": "Bearer secret-token",
		"apikey":        "service-role-key",
		"path":          "/functions/v1/delete-user",
	}).Warn("request")

	entry := decodeLine(t, &buf)
	assert.Equal(t, redacted, entry["authorization"])
	assert.Equal(t, redacted, entry["apikey"])
	assert.Equal(t, "/functions/v1/delete-user", entry["path"])
	assert.NotContains(t, buf.String(), "secret-token")
}

func TestLogRequest_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusBadRequest, "warning"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := NewWithOutput("gateway", "info", "json", &buf)
		logger.LogRequest(context.Background(), http.MethodPost, "/x", tt.status, 15*time.Millisecond)

		entry := decodeLine(t, &buf)
		assert.Equal(t, tt.level, entry["level"], "status %d", tt.status)
		assert.EqualValues(t, tt.status, entry["status"])
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger := New("gateway", "verbose", "json")
	assert.Equal(t, "info", logger.GetLevel().String())
}

func TestContextGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetRole(ctx))
	assert.NotEmpty(t, NewTraceID())
}
