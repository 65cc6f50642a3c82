package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/telemetry/metrics"
)

func TestRequestMetrics(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()

	r := mux.NewRouter()
	r.HandleFunc("/members/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "member not found", http.StatusNotFound)
	}).Methods("GET").Name("member-get")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {}).Methods("GET")
	r.Use(RequestMetrics(m))

	for _, path := range []string{"/members/a", "/members/b", "/version"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.GaugeRequests))

	families, err := reg.Gather()
	require.NoError(t, err)
	routes := map[string]uint64{}
	for _, f := range families {
		if f.GetName() != "gymflow_test_server_request_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					routes[label.GetValue()] += metric.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	assert.Equal(t, map[string]uint64{"member-get": 2, "/version": 1}, routes)
}
