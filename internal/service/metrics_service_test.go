package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/repository"
)

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/circulars", http.StatusOK, 20*time.Millisecond)
	m.CircularPublished()
	m.CircularEdited()
	m.CircularAcknowledged()
	m.ValidationFailed()
	m.BoardSessionOpened()
	m.ObserveStoreCall("list", errors.New("boom"), time.Millisecond)
	m.ObserveJob("activity.record", nil)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.RequestsTotal)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.01)
	assert.EqualValues(t, 1, snap.Published)
	assert.EqualValues(t, 1, snap.BoardSessions)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	for _, name := range []string{
		"circulars_published_total 1",
		"circulars_edited_total 1",
		"circulars_acknowledged_total 1",
		"circulars_validation_failures_total 1",
		"board_sessions_active 1",
		`circular_store_duration_seconds_count{operation="list",outcome="error"} 1`,
		`background_jobs_total{outcome="ok",type="activity.record"} 1`,
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	m.CircularPublished()
	m.BoardSessionClosed()
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCacheServiceTracksHitRatio(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	metrics := NewMetricsService()
	cache := NewCacheService(repository.NewCacheRepository(client, zap.NewNop()), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var got map[string]int
	assert.False(t, cache.Get(ctx, "stats:u2", &got))
	cache.Set(ctx, "stats:u2", map[string]int{"unread": 2}, 0)
	require.True(t, cache.Get(ctx, "stats:u2", &got))
	assert.Equal(t, 2, got["unread"])

	cache.Invalidate(ctx, "stats:*")
	assert.False(t, cache.Get(ctx, "stats:u2", &got))

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 2, snap.CacheMisses)
	assert.InDelta(t, 1.0/3.0, snap.CacheHitRatio, 0.001)

	disabled := NewCacheService(repository.NewCacheRepository(client, zap.NewNop()), metrics, 0, nil, false)
	assert.False(t, disabled.Enabled())
	assert.False(t, disabled.Get(ctx, "stats:u2", &got))
}
