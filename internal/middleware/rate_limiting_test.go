package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/athletedash/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type testRequestRateLimiter struct {
	// key to remaining requests
	Limits map[string]int
	Err    error
	keys   []string
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.keys = append(l.keys, key)
	if l.Err != nil {
		return nil, l.Err
	}

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: 1500 * time.Millisecond,
	}

	if l.Limits[key] <= 0 {
		return res, nil
	}

	res.Allowed = 1
	res.RetryAfter = -1
	l.Limits[key]--
	res.Remaining = l.Limits[key]

	return res, nil
}

func TestRateLimit(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	limiter := &testRequestRateLimiter{Limits: map[string]int{"chat::91.1.2.3": 1}}

	called := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called++ })
	handler := RateLimit(limiter, "chat", 10, metricsManager)(next)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "91.1.2.3:5555"
		return req
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 1, called)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"retry after 2 seconds"}`, rr.Body.String())
	assert.Equal(t, 1, called)

	assert.Equal(t, []string{"chat::91.1.2.3", "chat::91.1.2.3"}, limiter.keys)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests.WithLabelValues("chat")))
}

func TestRateLimit_SeparateBucketsPerClient(t *testing.T) {
	limiter := &testRequestRateLimiter{Limits: map[string]int{
		"chat::91.1.2.3": 1,
		"chat::91.1.2.4": 1,
	}}
	handler := RateLimit(limiter, "chat", 10, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, addr := range []string{"91.1.2.3:1", "91.1.2.4:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, addr)
	}
}

func TestRateLimit_LimiterError(t *testing.T) {
	limiter := &testRequestRateLimiter{Err: errors.New("redis down")}
	called := false
	handler := RateLimit(limiter, "chat", 10, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"rate limit internal error"}`, rr.Body.String())
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := &testRequestRateLimiter{Err: errors.New("must not be called")}
	called := false
	handler := RateLimit(limiter, "chat", 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	assert.True(t, called)
	assert.Empty(t, limiter.keys)
}
