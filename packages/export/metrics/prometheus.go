package metrics

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusEmitter records samples into prometheus histograms, one
// HistogramVec per metric name. Tags of the form "key:value" become label
// values for the configured label names; unknown tags are ignored.
type PrometheusEmitter struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	labels     []string
	buckets    []float64

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
}

// PrometheusOption is a functional option for PrometheusEmitter
type PrometheusOption func(*PrometheusEmitter)

// WithPrometheusRegistry registers histograms on reg instead of the default registry.
func WithPrometheusRegistry(reg *prometheus.Registry) PrometheusOption {
	return func(p *PrometheusEmitter) {
		p.registerer = reg
		p.gatherer = reg
	}
}

// WithPrometheusLabels sets the label names extracted from tags.
func WithPrometheusLabels(labels ...string) PrometheusOption {
	return func(p *PrometheusEmitter) {
		p.labels = labels
	}
}

// WithPrometheusBuckets overrides the histogram buckets.
func WithPrometheusBuckets(buckets []float64) PrometheusOption {
	return func(p *PrometheusEmitter) {
		p.buckets = buckets
	}
}

// NewPrometheusEmitter creates a new Prometheus emitter.
func NewPrometheusEmitter(opts ...PrometheusOption) *PrometheusEmitter {
	p := &PrometheusEmitter{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		labels:     []string{"method"},
		buckets:    prometheus.DefBuckets,
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *PrometheusEmitter) Histogram(name string, value float64, _ time.Time, tags ...string) {
	h, err := p.histogram(name)
	if err != nil {
		return
	}
	h.WithLabelValues(p.labelValues(tags)...).Observe(value)
}

// Handler serves the registered metrics in the Prometheus text format.
func (p *PrometheusEmitter) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func (p *PrometheusEmitter) histogram(name string) (*prometheus.HistogramVec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.histograms[name]; ok {
		return h, nil
	}

	h := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    SanitizeName(name),
			Help:    "Histogram of " + name,
			Buckets: p.buckets,
		},
		p.labels,
	)
	if err := p.registerer.Register(h); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		h = existing
	}
	p.histograms[name] = h
	return h, nil
}

func (p *PrometheusEmitter) labelValues(tags []string) []string {
	values := make([]string, len(p.labels))
	for _, tag := range tags {
		key, value, ok := strings.Cut(tag, ":")
		if !ok {
			continue
		}
		for i, label := range p.labels {
			if label == key {
				values[i] = value
			}
		}
	}
	return values
}

// SanitizeName maps a dotted metric name onto the Prometheus charset.
func SanitizeName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
