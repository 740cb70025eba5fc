package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *PrometheusMiddleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	pm := NewPrometheusMiddleware("test_api", prometheus.NewRegistry())
	r.Use(NewRequestLogger(0).Handler(), pm.Handler())
	pm.RegisterMetricsEndpoint(r)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/fail", func(c *gin.Context) { c.String(http.StatusTeapot, "no") })
	return r, pm
}

func TestPrometheusMiddlewareCounts(t *testing.T) {
	r, pm := newRouter(t)

	for _, path := range []string{"/ok", "/fail", "/fail", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(pm.requests.WithLabelValues("GET", "/ok", "200")))
	assert.Equal(t, float64(2), testutil.ToFloat64(pm.requests.WithLabelValues("GET", "/fail", "418")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Zero(t, testutil.ToFloat64(pm.inflight))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "test_api_http_request_duration_seconds"))
}
