package stress

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Outcome is how a single probe request ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeClientRequest Outcome = "client_request"
	OutcomeMaintenance   Outcome = "service_maintenance"
	OutcomeInternal      Outcome = "service_internal"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeTransport     Outcome = "transport"
)

// Metrics collects probe results. Latencies are kept in microseconds.
type Metrics struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	outcomes  map[Outcome]int64
	statuses  map[int]int64
	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		// Histogram: 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(1, 60_000_000, 3),
		outcomes:  make(map[Outcome]int64),
		statuses:  make(map[int]int64),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.mu.Lock()
	m.endTime = time.Now()
	m.mu.Unlock()
}

// Record records one request. status is 0 when no response was classified.
func (m *Metrics) Record(outcome Outcome, status int, duration time.Duration) {
	latencyUs := duration.Microseconds()
	if latencyUs < 1 {
		latencyUs = 1
	}
	if latencyUs > 60_000_000 {
		latencyUs = 60_000_000
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(latencyUs)
	m.outcomes[outcome]++
	if status > 0 {
		m.statuses[status]++
	}
}

// Summary is the final result of a probe run
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	ErrorRate     float64
	RPS           float64
	Outcomes      map[Outcome]int64
	StatusCodes   map[int]int64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	s := &Summary{
		Duration:      duration,
		TotalRequests: m.histogram.TotalCount(),
		SuccessCount:  m.outcomes[OutcomeSuccess],
		Outcomes:      make(map[Outcome]int64, len(m.outcomes)),
		StatusCodes:   make(map[int]int64, len(m.statuses)),
		P50:           micros(m.histogram.ValueAtQuantile(50)),
		P95:           micros(m.histogram.ValueAtQuantile(95)),
		P99:           micros(m.histogram.ValueAtQuantile(99)),
		Min:           micros(m.histogram.Min()),
		Max:           micros(m.histogram.Max()),
		Mean:          micros(int64(m.histogram.Mean())),
		StdDev:        micros(int64(m.histogram.StdDev())),
	}
	for k, v := range m.outcomes {
		s.Outcomes[k] = v
	}
	for k, v := range m.statuses {
		s.StatusCodes[k] = v
	}

	s.ErrorCount = s.TotalRequests - s.SuccessCount
	if s.TotalRequests > 0 {
		s.ErrorRate = float64(s.ErrorCount) / float64(s.TotalRequests)
	}
	if duration.Seconds() > 0 {
		s.RPS = float64(s.TotalRequests) / duration.Seconds()
	}
	return s
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// ThresholdResult holds the evaluation of one threshold
type ThresholdResult struct {
	Name     string
	Passed   bool
	Expected string
	Actual   string
}

// Evaluate checks the summary against t
func (s *Summary) Evaluate(t Thresholds) []ThresholdResult {
	var results []ThresholdResult

	if t.P95 > 0 {
		results = append(results, ThresholdResult{
			Name:     "p95",
			Passed:   s.P95 <= t.P95,
			Expected: "< " + t.P95.String(),
			Actual:   s.P95.String(),
		})
	}
	if t.P99 > 0 {
		results = append(results, ThresholdResult{
			Name:     "p99",
			Passed:   s.P99 <= t.P99,
			Expected: "< " + t.P99.String(),
			Actual:   s.P99.String(),
		})
	}
	if t.ErrorRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "error rate",
			Passed:   s.ErrorRate <= t.ErrorRate,
			Expected: formatPercent(t.ErrorRate),
			Actual:   formatPercent(s.ErrorRate),
		})
	}

	return results
}
