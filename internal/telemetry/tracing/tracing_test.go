package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
	return recorder, provider
}

func TestEndSpanWithErrCheck(t *testing.T) {
	recorder, provider := newRecordingTracer(t)
	tracer := provider.Tracer("test")

	_, okSpan := tracer.Start(context.Background(), "ok-span")
	EndSpanWithErrCheck(okSpan, nil)

	_, errSpan := tracer.Start(context.Background(), "err-span")
	EndSpanWithErrCheck(errSpan, errors.New("upstream down"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "ok-span", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	assert.Equal(t, "err-span", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "upstream down", ended[1].Status().Description)
	require.Len(t, ended[1].Events(), 1)
	assert.Equal(t, "exception", ended[1].Events()[0].Name)
}

func TestHoneycombSetup_Disabled(t *testing.T) {
	shutdown, err := HoneycombSetup(false, "athletedash-test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NotPanics(t, shutdown)
}
