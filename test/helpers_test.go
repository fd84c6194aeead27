package test

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/stretchr/testify/require"
)

// do sends a request the way the dashboard does, and returns the status and body.
func (s *IntegrationTestSuite) do(ctx context.Context, method, path, body string) (*http.Response, string) {
	t := s.T()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(respBytes)
}
