package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveSliceOutcomes(t *testing.T) {
	r := New(false)
	r.ObserveSlice("coding_rule", 10, true, 2*time.Millisecond, nil)
	r.ObserveSlice("coding_rule", 3, false, time.Millisecond, nil)
	r.ObserveSlice("coding_rule", 0, false, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.sliceQueries.WithLabelValues("coding_rule", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sliceQueries.WithLabelValues("coding_rule", "last")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sliceQueries.WithLabelValues("coding_rule", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.sliceRows))
}

func TestRecorder_ObserveHTTP(t *testing.T) {
	r := New(false)
	r.ObserveHTTP(http.MethodGet, "/api/v1/coding-rules", 200, time.Millisecond)
	r.ObserveHTTP(http.MethodGet, "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/v1/coding-rules", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New(true)
	r.ObserveSlice("layer", 1, false, time.Millisecond, nil)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `catalog_slice_queries_total{entity="layer",outcome="last"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
