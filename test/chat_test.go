package test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestHealthAndVersion() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	resp, body := s.do(ctx, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","redis":"PONG"}`, body)

	resp, body = s.do(ctx, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-version-info", body)
}

// TestChat goes through the redis backed rate limiter, so it is the only
// test posting to the chat endpoint.
func (s *IntegrationTestSuite) TestChat() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	resp, body := s.do(ctx, http.MethodGet, "/api/chat", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"message":`)
	assert.Contains(t, body, `"model":"gpt-4o-mini"`)

	resp, body = s.do(ctx, http.MethodPost, "/api/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"message is required"}`, body)

	callsBefore := s.chatUpstreamCalls.Load()
	for i := 0; i < chatRateLimit-1; i++ {
		resp, body = s.do(ctx, http.MethodPost, "/api/chat", `{"message":"How should I recover after a marathon?"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		assert.JSONEq(t, `{"response":"Sleep more, lift heavy."}`, body)
	}
	assert.Equal(t, int32(chatRateLimit-1), s.chatUpstreamCalls.Load()-callsBefore)

	// the blank message above used one request of the budget too
	resp, body = s.do(ctx, http.MethodPost, "/api/chat", `{"message":"one more?"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Contains(t, body, "retry after")
}
