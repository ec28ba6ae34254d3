package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/media-collect/internal/application/dispatcher"
	"github.com/garyjia/media-collect/internal/domain/event"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("test")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/tasks/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/tasks/task-1", "/api/tasks/task-2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/tasks/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInFlight))
}

func TestHandleEvent(t *testing.T) {
	m := New("test")
	d := dispatcher.NewDispatcher()
	m.Subscribe(d)

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeSubmissionReviewed, "sub-1", "user-1", map[string]interface{}{
		event.KeyStatus:   "APPROVED",
		event.KeyReReview: false,
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeSubmissionReviewed, "sub-2", "user-1", map[string]interface{}{
		event.KeyStatus:   "REJECTED",
		event.KeyReReview: true,
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeTaskAssigned, "task-1", "user-1", map[string]interface{}{
		event.KeyAdded: 3,
	})))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewsTotal.WithLabelValues("APPROVED", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewsTotal.WithLabelValues("REJECTED", "true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.assignmentsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues("submission.reviewed")))
	require.NoError(t, d.Close())
}

func TestCacheRecorderAndHandler(t *testing.T) {
	m := New("test")
	m.CacheHit("tasks")
	m.CacheHit("tasks")
	m.CacheMiss("collectors")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("tasks", "hit")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_query_cache_lookups_total{namespace="collectors",result="miss"} 1`)
}
