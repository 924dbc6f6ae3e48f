package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/commentclient/packages/export/metrics"
)

// RequestTimeMetric is the histogram every request duration is emitted to.
const RequestTimeMetric = "comment_client.request.time"

// Timing describes one finished request.
type Timing struct {
	RequestID string
	Method    string
	URL       string
	Duration  float64 // seconds
	End       time.Time
}

// Elapsed returns Duration as a time.Duration.
func (t Timing) Elapsed() time.Duration {
	return time.Duration(t.Duration * float64(time.Second))
}

// Timer measures a single request. Start it right before the network call
// and defer Stop so the sample is emitted on every exit path.
type Timer struct {
	requestID string
	method    string
	url       string
	start     time.Time
	emitter   metrics.Emitter
	logger    *slog.Logger

	once   sync.Once
	timing Timing
}

// StartTimer captures the start time. A nil emitter or logger is replaced
// by a no-op.
func StartTimer(requestID, method, url string, emitter metrics.Emitter, logger *slog.Logger) *Timer {
	if emitter == nil {
		emitter = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timer{
		requestID: requestID,
		method:    method,
		url:       url,
		start:     time.Now(),
		emitter:   emitter,
		logger:    logger,
	}
}

// Stop emits the metric and the log line. Only the first call emits;
// later calls return the same Timing.
func (t *Timer) Stop() Timing {
	t.once.Do(func() {
		end := time.Now()
		elapsed := end.Sub(t.start)
		if elapsed < 0 {
			elapsed = 0
		}
		t.timing = Timing{
			RequestID: t.requestID,
			Method:    t.method,
			URL:       t.url,
			Duration:  elapsed.Seconds(),
			End:       end,
		}

		t.emitter.Histogram(RequestTimeMetric, t.timing.Duration, end, "method:"+t.method)
		t.logger.Info("comment_client_request_log",
			slog.String("request_id", t.requestID),
			slog.String("method", t.method),
			slog.String("url", t.url),
			slog.Float64("duration", t.timing.Duration),
		)
	})
	return t.timing
}
