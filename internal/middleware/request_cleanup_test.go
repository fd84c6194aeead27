package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainAndCloseRequest(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(`{"message":"unread"}`)}
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Body = body

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	DrainAndCloseRequest()(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, body.closed)
	rest, err := io.ReadAll(body.Reader)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestLimitRequestBody(t *testing.T) {
	var readErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})
	handler := LimitRequestBody(8)(next)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.NoError(t, readErr)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way past the limit")))
	var maxBytesErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxBytesErr)
}
