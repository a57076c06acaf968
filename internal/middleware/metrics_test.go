package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/softstore/pkg/metrics"
)

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/metrics-test/:id", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics-test/"+id, nil))
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	routed, err := metrics.APILatency.GetMetricWithLabelValues(http.MethodGet, "/metrics-test/:id", "202")
	require.NoError(t, err)
	var sample dto.Metric
	require.NoError(t, routed.(prometheus.Metric).Write(&sample))
	require.EqualValues(t, 2, sample.GetHistogram().GetSampleCount())

	unmatched, err := metrics.APILatency.GetMetricWithLabelValues(http.MethodDelete, unmatchedPath, "404")
	require.NoError(t, err)
	sample.Reset()
	require.NoError(t, unmatched.(prometheus.Metric).Write(&sample))
	require.EqualValues(t, 1, sample.GetHistogram().GetSampleCount())
}
