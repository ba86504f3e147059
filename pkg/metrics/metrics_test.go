package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAlert("SEVERE")
		m.RecordAssessment("HIGH", "llm", time.Second)
		m.RecordResponse("AMBULANCE_DISPATCH", true, true)
		m.RecordDispatch("nearest", "claimed")
		m.RecordTaskTransition("COMPLETED")
		m.SetAmbulancesAvailable(2)
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
}

func TestBusinessCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordAlert("SEVERE")
	m.RecordAlert("SEVERE")
	m.RecordDispatch("nearest", "exhausted")
	m.RecordResponse("DOCTOR_CONSULT", true, false)
	m.SetAmbulancesAvailable(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertsTotal.WithLabelValues("SEVERE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("nearest", "exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.responsesTotal.WithLabelValues("DOCTOR_CONSULT", "true", "false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ambulancesAvailable))
}

func TestMonitorMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(MonitorMiddleware(m))
	r.GET("/alerts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/alerts/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/alerts/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `http_requests_total{method="GET",path="/alerts/:id",status="200"} 2`))
}
