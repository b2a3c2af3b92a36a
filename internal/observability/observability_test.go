package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/sla-tracker/internal/config"
	"github.com/spec-kit/sla-tracker/internal/domain"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestMetrics_OutcomeSeriesSeeded(t *testing.T) {
	snap := NewMetrics().Snapshot()
	assert.Len(t, snap.Outcomes, 2*len(domain.Statuses()))
	for _, status := range domain.Statuses() {
		for _, pathway := range []domain.Pathway{domain.PathwayOnCall, domain.PathwayAssignee} {
			count, ok := snap.Outcomes[string(pathway)+"|"+status.String()]
			assert.True(t, ok, "%s|%s", pathway, status)
			assert.Zero(t, count)
		}
	}
}

func TestMetrics_RecordRun(t *testing.T) {
	m := NewMetrics()
	m.RecordRun("scheduled", []domain.SLAOutcome{
		{Pathway: domain.PathwayOnCall, Status: domain.StatusResponded},
		{Pathway: domain.PathwayOnCall, Status: domain.StatusResponded},
		{Pathway: domain.PathwayAssignee, Status: domain.StatusNoResponse},
	}, map[string]int{"missing_goal": 3}, 1500*time.Millisecond)
	m.RecordRunFailure("manual")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Runs["scheduled"])
	assert.Equal(t, int64(1), snap.Runs["manual|failed"])
	assert.Equal(t, int64(2), snap.Outcomes["on-call|responded"])
	assert.Equal(t, int64(1), snap.Outcomes["assignee|no-response"])
	assert.Zero(t, snap.Outcomes["assignee|pending"])
	assert.Equal(t, int64(3), snap.Skips["missing_goal"])
	assert.Equal(t, int64(1500), snap.LastRunLatencyMS)

	snap.Runs["scheduled"] = 99
	assert.Equal(t, int64(1), m.Snapshot().Runs["scheduled"], "snapshots are copies")

	var nilMetrics *Metrics
	nilMetrics.RecordRun("manual", nil, nil, 0)
	nilMetrics.RecordError("/", "GET", "X")
	assert.Empty(t, nilMetrics.Snapshot().Runs)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	require.Equal(t, 1, logs.FilterMessage("request handled").Len())
	rejected := logs.FilterMessage("request rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, int64(http.StatusTeapot), rejected[0].ContextMap()["status"])

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["/ok|GET|200"])
	assert.Equal(t, int64(1), snap.Requests["/teapot|GET|418"])
}
