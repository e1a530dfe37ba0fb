package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordTransition(t *testing.T) {
	m := NewMetrics()
	m.RecordTransition("open_auxiliary", nil, time.Millisecond)
	m.RecordTransition("open_auxiliary", errors.New("boom"), time.Millisecond)
	m.RecordTransition("open_auxiliary", nil, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `queuelip_transitions_total{operation="open_auxiliary",status="ok"} 2`)
	assert.Contains(t, body, `queuelip_transitions_total{operation="open_auxiliary",status="error"} 1`)
	assert.Contains(t, body, `queuelip_transition_duration_seconds_count{operation="open_auxiliary"} 3`)
}

func TestSetWindows_ZeroesMissingRoles(t *testing.T) {
	m := NewMetrics()
	m.SetWindows(map[string]int{"primary": 1, "transient": 2})
	m.SetWindows(map[string]int{"auxiliary": 1})

	body := scrape(t, m)
	assert.Contains(t, body, `queuelip_windows{role="primary"} 0`)
	assert.Contains(t, body, `queuelip_windows{role="auxiliary"} 1`)
	assert.Contains(t, body, `queuelip_windows{role="transient"} 0`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordTransition("x", nil, 0)
	m.RecordOptionalFailure("focus")
	m.RecordCommand("ipc", "x")
	m.SetWindows(nil)
	m.SetExitArmed()
	m.SetBridgeClients(1)
	m.RecordHTTPRequest("GET", "/healthz", "200", 0)
}

func TestHandler_ServesExposition(t *testing.T) {
	m := NewMetrics()
	m.RecordOptionalFailure("focus")
	m.RecordCommand("bridge", "force_quit")
	m.SetExitArmed()

	body := scrape(t, m)
	assert.Contains(t, body, `queuelip_optional_step_failures_total{step="focus"} 1`)
	assert.Contains(t, body, `queuelip_commands_total{command="force_quit",transport="bridge"} 1`)
	assert.Contains(t, body, "queuelip_exit_armed 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMiddleware_RecordsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `queuelip_bridge_http_requests_total{method="GET",route="/items/:id",status="204"} 2`)
	assert.Contains(t, body, `queuelip_bridge_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}
