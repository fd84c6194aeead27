package logging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/athletedash/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestGetLevel(t *testing.T) {
	for level, want := range map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"DEBUG":   logrus.DebugLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"info":    logrus.InfoLevel,
		"trace":   logrus.TraceLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"unknown": logrus.TraceLevel,
		"":        logrus.TraceLevel,
	} {
		assert.Equal(t, want, GetLevel(level), level)
	}
}

func TestOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, Output("", false))

	dir := t.TempDir()
	fileOnly := Output(filepath.Join(dir, "service"), false)
	lj, ok := fileOnly.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "service.log"), lj.Filename)
	defer func() { _ = lj.Close() }()

	combined := Output(filepath.Join(dir, "both.log"), true)
	cw, ok := combined.(*pkg.CombinedWriter)
	require.True(t, ok)
	assert.Len(t, cw.Writers, 2)
	defer func() { _ = cw.Writers[1].(*lumberjack.Logger).Close() }()

	n, err := cw.Writers[1].Write([]byte("line\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.FileExists(t, filepath.Join(dir, "both.log"))
}

type recordingTransport struct {
	events []*sentry.Event
}

func (r *recordingTransport) Configure(sentry.ClientOptions) {}

func (r *recordingTransport) SendEvent(event *sentry.Event) {
	r.events = append(r.events, event)
}

func (r *recordingTransport) Flush(time.Duration) bool { return true }

func (r *recordingTransport) FlushWithContext(context.Context) bool { return true }

func (r *recordingTransport) Close() {}

func TestSentryHook_Fire(t *testing.T) {
	transport := &recordingTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	hook := NewSentryHookWithHub(hub, []logrus.Level{logrus.ErrorLevel})
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	logger := logrus.New()
	logger.SetOutput(&discard{})
	logger.AddHook(hook)

	logger.WithField("route", "chat").WithError(errors.New("upstream down")).Error("chat failed")
	logger.Info("not forwarded")

	require.Len(t, transport.events, 1)
	event := transport.events[0]
	assert.Equal(t, "chat failed", event.Message)
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "chat", event.Extra["route"])
	require.Len(t, event.Exception, 1)
	assert.Equal(t, "upstream down", event.Exception[0].Type)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
