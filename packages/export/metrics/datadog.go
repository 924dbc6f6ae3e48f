package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// DefaultDataDogBatchSize is how many points are buffered before a flush.
const DefaultDataDogBatchSize = 500

// DataDogEmitter buffers samples and ships them to the DataDog series API.
type DataDogEmitter struct {
	apiKey    string
	site      string // e.g., "datadoghq.com", "datadoghq.eu"
	endpoint  string
	tags      []string
	batchSize int
	client    *http.Client

	mu      sync.Mutex
	pending []datadogMetric
	closed  bool
	flushes sync.WaitGroup
	onError func(error)
}

// DataDogOption is a functional option for DataDogEmitter
type DataDogOption func(*DataDogEmitter)

// WithDataDogAPIKey sets the DataDog API key
func WithDataDogAPIKey(apiKey string) DataDogOption {
	return func(d *DataDogEmitter) {
		d.apiKey = apiKey
	}
}

// WithDataDogSite sets the DataDog site (e.g., "datadoghq.com", "datadoghq.eu")
func WithDataDogSite(site string) DataDogOption {
	return func(d *DataDogEmitter) {
		d.site = site
	}
}

// WithDataDogEndpoint overrides the full series URL. Used by tests.
func WithDataDogEndpoint(url string) DataDogOption {
	return func(d *DataDogEmitter) {
		d.endpoint = url
	}
}

// WithDataDogTags sets additional tags for all metrics
func WithDataDogTags(tags []string) DataDogOption {
	return func(d *DataDogEmitter) {
		d.tags = tags
	}
}

// WithDataDogBatchSize sets how many points trigger a background flush.
func WithDataDogBatchSize(n int) DataDogOption {
	return func(d *DataDogEmitter) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithDataDogErrorHandler receives errors from background flushes.
func WithDataDogErrorHandler(fn func(error)) DataDogOption {
	return func(d *DataDogEmitter) {
		d.onError = fn
	}
}

// NewDataDogEmitter creates a new DataDog emitter
func NewDataDogEmitter(opts ...DataDogOption) *DataDogEmitter {
	d := &DataDogEmitter{
		site:      "datadoghq.com",
		batchSize: DefaultDataDogBatchSize,
		client:    &http.Client{Timeout: 10 * time.Second},
		tags:      make([]string, 0),
		onError:   func(error) {},
	}

	for _, opt := range opts {
		opt(d)
	}

	// Try to get API key from environment if not set
	if d.apiKey == "" {
		d.apiKey = os.Getenv("DD_API_KEY")
	}
	if d.endpoint == "" {
		d.endpoint = fmt.Sprintf("https://api.%s/api/v1/series", d.site)
	}

	return d
}

type datadogMetric struct {
	Metric string   `json:"metric"`
	Type   string   `json:"type"`
	Points [][]any  `json:"points"`
	Tags   []string `json:"tags,omitempty"`
}

type datadogPayload struct {
	Series []datadogMetric `json:"series"`
}

func (d *DataDogEmitter) Histogram(name string, value float64, ts time.Time, tags ...string) {
	m := datadogMetric{
		Metric: name,
		Type:   "gauge",
		Points: [][]any{{float64(ts.Unix()), value}},
		Tags:   append(append([]string(nil), tags...), d.tags...),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, m)
	if d.closed || len(d.pending) < d.batchSize {
		return
	}
	batch := d.pending
	d.pending = nil

	// Add under mu so Close cannot be waiting on a zero counter.
	d.flushes.Add(1)
	go func() {
		defer d.flushes.Done()
		if err := d.send(batch); err != nil {
			d.onError(err)
		}
	}()
}

// Flush sends all buffered points synchronously.
func (d *DataDogEmitter) Flush() error {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return d.send(batch)
}

// Close waits for background flushes and sends what is left. Points
// emitted after Close are buffered until the next Flush.
func (d *DataDogEmitter) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.flushes.Wait()
	return d.Flush()
}

func (d *DataDogEmitter) send(series []datadogMetric) error {
	if d.apiKey == "" {
		return fmt.Errorf("DataDog API key not configured")
	}

	jsonData, err := json.Marshal(datadogPayload{Series: series})
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("DataDog API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
