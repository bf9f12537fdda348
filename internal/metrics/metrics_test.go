package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "GET /api/bugs", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "GET /api/bugs", 200, 7*time.Millisecond)
	m.ObserveRequest("POST", "POST /api/bugs", 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "GET /api/bugs", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "POST /api/bugs", "400")))
}

func TestObserveRequest_UnknownMethodsCollapse(t *testing.T) {
	m := New()
	m.ObserveRequest("BREW", "unmatched", 404, time.Millisecond)
	m.ObserveRequest("get", "unmatched", 404, time.Millisecond)
	m.ObserveRequest("DELETE", "DELETE /api/bugs/{id}", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("OTHER", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("DELETE", "DELETE /api/bugs/{id}", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestsTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Second)
		m.StoreFault()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.StoreFault()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bugtrack_store_faults_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
