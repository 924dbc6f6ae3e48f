// Package metrics provides the sinks that request timings are emitted to.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Emitter receives histogram samples. Implementations must be safe for
// concurrent use and must not block the caller on network I/O.
type Emitter interface {
	Histogram(name string, value float64, ts time.Time, tags ...string)
}

// Point is a single emitted sample.
type Point struct {
	Name      string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags,omitempty"`
}

// Nop discards every sample.
type Nop struct{}

func (Nop) Histogram(string, float64, time.Time, ...string) {}

// Multi fans samples out to several emitters.
type Multi []Emitter

func (m Multi) Histogram(name string, value float64, ts time.Time, tags ...string) {
	for _, e := range m {
		e.Histogram(name, value, ts, tags...)
	}
}

// Combine returns a single emitter for emitters, skipping nil entries.
func Combine(emitters ...Emitter) Emitter {
	var out Multi
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}

const (
	// recorder values are stored in microseconds, 1us to 60s
	minTrackable = 1
	maxTrackable = 60_000_000
	sigFigs      = 3
)

// Recorder keeps emitted samples in memory with an HDR histogram per
// metric name. Values are interpreted as seconds.
type Recorder struct {
	mu         sync.Mutex
	points     []Point
	histograms map[string]*hdrhistogram.Histogram
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		histograms: make(map[string]*hdrhistogram.Histogram),
	}
}

func (r *Recorder) Histogram(name string, value float64, ts time.Time, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.points = append(r.points, Point{
		Name:      name,
		Value:     value,
		Timestamp: ts,
		Tags:      append([]string(nil), tags...),
	})

	h, ok := r.histograms[name]
	if !ok {
		h = hdrhistogram.New(minTrackable, maxTrackable, sigFigs)
		r.histograms[name] = h
	}
	_ = h.RecordValue(clampMicros(value))
}

// Points returns a copy of every recorded sample.
func (r *Recorder) Points() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Point(nil), r.points...)
}

// Count returns how many samples were recorded for name.
func (r *Recorder) Count(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h.TotalCount()
	}
	return 0
}

// Quantile returns the q-th percentile (0-100) recorded for name.
func (r *Recorder) Quantile(name string, q float64) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
	}
	return 0
}

// Reset drops all recorded samples.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = nil
	r.histograms = make(map[string]*hdrhistogram.Histogram)
}

func clampMicros(seconds float64) int64 {
	us := int64(seconds * 1e6)
	if us < minTrackable {
		return minTrackable
	}
	if us > maxTrackable {
		return maxTrackable
	}
	return us
}
