package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courierhub/internal/dto"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, zap.NewNop())
	handler := rl.Handler(okHandler())

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:5001").Code)

	rec := send("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMITED", resp.Code)

	// buckets are per client IP
	assert.Equal(t, http.StatusOK, send("10.0.0.2:5000").Code)
}

func TestRateLimiter_CleanupRemovesIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	now = now.Add(20 * time.Minute)
	rl.allow("10.0.0.2")

	removed := rl.Cleanup(10 * time.Minute)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, rl.Len())
}

func TestScheduleCleanup(t *testing.T) {
	c := cron.New()
	rl := NewRateLimiter(1, 1, zap.NewNop())

	id, err := ScheduleCleanup(c, "@every 10m", rl, 10*time.Minute)

	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, c.Entries(), 1)
}

func TestScheduleCleanup_InvalidSchedule(t *testing.T) {
	_, err := ScheduleCleanup(cron.New(), "not a schedule", NewRateLimiter(1, 1, zap.NewNop()), time.Minute)

	assert.Error(t, err)
}
