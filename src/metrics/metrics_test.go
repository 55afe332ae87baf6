package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("start_engine", "ok", 10*time.Millisecond)
	m.Observe("start_engine", "ok", 20*time.Millisecond)
	m.Observe("start_engine", "ENGINE_ALREADY_RUNNING", time.Millisecond)

	body := scrape(t, reg)
	assert.Contains(t, body, `tradecontrol_control_operations_total{op="start_engine",result="ok"} 2`)
	assert.Contains(t, body, `tradecontrol_control_operations_total{op="start_engine",result="ENGINE_ALREADY_RUNNING"} 1`)
	assert.Contains(t, body, `tradecontrol_control_operation_duration_seconds_count{op="start_engine"} 3`)
}

func TestStreamGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	assert.Contains(t, scrape(t, reg), "tradecontrol_stream_connections 1")
}
