package http

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/commentclient/packages/export/metrics"
	"github.com/abdul-hamid-achik/commentclient/packages/logger"
)

func TestTimer_EmitsOnce(t *testing.T) {
	rec := metrics.NewRecorder()
	timer := StartTimer("id-1", "GET", "http://comments", rec, logger.Discard())

	first := timer.Stop()
	second := timer.Stop()

	assert.Equal(t, first, second)
	assert.Equal(t, "id-1", first.RequestID)
	assert.GreaterOrEqual(t, first.Duration, 0.0)
	assert.Equal(t, int64(1), rec.Count(RequestTimeMetric))

	points := rec.Points()
	require.Len(t, points, 1)
	assert.True(t, points[0].Timestamp.Equal(first.End))
}

func TestTimer_EmitsWhenWrappedCallFails(t *testing.T) {
	rec := metrics.NewRecorder()
	boom := errors.New("boom")

	call := func() (err error) {
		timer := StartTimer("id-2", "POST", "http://comments", rec, logger.Discard())
		defer timer.Stop()
		return boom
	}

	assert.ErrorIs(t, call(), boom)
	assert.Equal(t, int64(1), rec.Count(RequestTimeMetric))
}

func TestTimer_EmitsWhenWrappedCallPanics(t *testing.T) {
	rec := metrics.NewRecorder()

	assert.PanicsWithValue(t, "kaboom", func() {
		timer := StartTimer("id-3", "GET", "http://comments", rec, logger.Discard())
		defer timer.Stop()
		panic("kaboom")
	})
	assert.Equal(t, int64(1), rec.Count(RequestTimeMetric))
}

func TestTimer_LogLine(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "json", slog.LevelInfo)

	StartTimer("id-4", "DELETE", "http://comments/x", nil, log).Stop()

	out := buf.String()
	assert.Contains(t, out, `"msg":"comment_client_request_log"`)
	assert.Contains(t, out, `"request_id":"id-4"`)
	assert.Contains(t, out, `"method":"DELETE"`)
	assert.Contains(t, out, `"url":"http://comments/x"`)
	assert.Contains(t, out, `"duration":`)
}
