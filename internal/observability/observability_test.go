package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teamboard/teamboard/internal/config"
)

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty", Encoding: "xml", Service: "teamboard"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/teams", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/teams", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/teams", "GET", "FORBIDDEN")
	m.RecordPredictions(map[string]int{"local-heuristic": 3})
	m.RecordPredictions(map[string]int{"local-heuristic": 1, "sentiment:sst2": 1})

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/teams|GET|200"])
	assert.Equal(t, int64(20), snap.AvgMillis["/api/teams|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/teams|GET|FORBIDDEN"])
	assert.Equal(t, map[string]int64{"local-heuristic": 4, "sentiment:sst2": 1}, snap.Predictions)

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Second)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLoggerTagsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ping/:id", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(fiber.MethodGet, "/ping/7", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-1", resp.Header.Get(RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	assert.Equal(t, int64(1), metrics.Snapshot().Requests["/ping/:id|GET|200"])

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/ping/8", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}
