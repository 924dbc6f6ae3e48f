package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/commentclient/packages/export/metrics"
)

const (
	// DefaultTimeout bounds connect plus response for every call
	DefaultTimeout = 5 * time.Second
	// DefaultMaintenanceStatus is the status the hosting platform returns in maintenance mode
	DefaultMaintenanceStatus = http.StatusServiceUnavailable
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// KeySource supplies the pre-shared API key. It is read on every call.
type KeySource interface {
	APIKey() string
}

// StaticKey is a KeySource returning a fixed key.
type StaticKey string

func (k StaticKey) APIKey() string { return string(k) }

type Client struct {
	httpClient        *http.Client
	transport         http.RoundTripper
	timeout           time.Duration
	maintenanceStatus int
	keys              KeySource
	emitter           metrics.Emitter
	logger            *slog.Logger
	defaultHeaders    map[string]string
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:           DefaultTimeout,
		maintenanceStatus: DefaultMaintenanceStatus,
		keys:              StaticKey(""),
		emitter:           metrics.Nop{},
		logger:            slog.Default(),
		defaultHeaders:    make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
		}
	}

	c.httpClient = &http.Client{
		Transport: c.transport,
		Timeout:   c.timeout,
	}

	return c
}

// WithTimeout shortens the per-call bound. Values above DefaultTimeout
// are capped.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = min(d, DefaultTimeout)
		}
	}
}

// WithAPIKey uses a fixed API key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.keys = StaticKey(key)
	}
}

// WithKeySource reads the API key from src on every call.
func WithKeySource(src KeySource) ClientOption {
	return func(c *Client) {
		if src != nil {
			c.keys = src
		}
	}
}

// WithMaintenanceStatus overrides the status treated as maintenance mode.
func WithMaintenanceStatus(status int) ClientOption {
	return func(c *Client) {
		if status > 0 {
			c.maintenanceStatus = status
		}
	}
}

func WithEmitter(e metrics.Emitter) ClientOption {
	return func(c *Client) {
		if e != nil {
			c.emitter = e
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithDefaultHeader sets a header on every request. The API key header
// cannot be overridden this way.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

type requestOptions struct {
	raw bool
}

type RequestOption func(*requestOptions)

// WithRaw returns the body text instead of decoding it.
func WithRaw() RequestOption {
	return func(o *requestOptions) {
		o.raw = true
	}
}

// PerformRequest sends one request and classifies the response. On success
// it returns the decoded JSON body, or the body string with WithRaw.
// Classified failures are *Error; transport failures are returned as-is.
func (c *Client) PerformRequest(ctx context.Context, method, url string, payload map[string]any, opts ...RequestOption) (any, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	req, err := NewRequest(method, url, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := resp.Classify(c.maintenanceStatus); err != nil {
		return nil, err
	}

	if o.raw {
		return resp.BodyString(), nil
	}
	return resp.BodyJSON()
}

// PerformRaw is PerformRequest with WithRaw.
func (c *Client) PerformRaw(ctx context.Context, method, url string, payload map[string]any) (string, error) {
	result, err := c.PerformRequest(ctx, method, url, payload, WithRaw())
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Do executes req under the timeout and a request timer without
// classifying the response.
func (c *Client) Do(ctx context.Context, req *Request) (resp *Response, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	timer := StartTimer(req.RequestID, req.Method, req.URL, c.emitter, c.logger)
	defer func() {
		timing := timer.Stop()
		if resp != nil {
			resp.Duration = timing.Elapsed()
		}
	}()

	httpReq, err := req.Build(ctx, c.keys.APIKey())
	if err != nil {
		return nil, err
	}
	for k, v := range c.defaultHeaders {
		if k == APIKeyHeader {
			continue
		}
		httpReq.Header.Set(k, v)
	}

	return c.send(httpReq, req.RequestID)
}

func (c *Client) send(httpReq *http.Request, requestID string) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	return &Response{
		RequestID:  requestID,
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       respBody,
	}, nil
}

func (c *Client) Get(ctx context.Context, url string, params map[string]any) (any, error) {
	return c.PerformRequest(ctx, http.MethodGet, url, params)
}

func (c *Client) Post(ctx context.Context, url string, data map[string]any) (any, error) {
	return c.PerformRequest(ctx, http.MethodPost, url, data)
}

func (c *Client) Put(ctx context.Context, url string, data map[string]any) (any, error) {
	return c.PerformRequest(ctx, http.MethodPut, url, data)
}

func (c *Client) Patch(ctx context.Context, url string, data map[string]any) (any, error) {
	return c.PerformRequest(ctx, http.MethodPatch, url, data)
}

func (c *Client) Delete(ctx context.Context, url string, params map[string]any) (any, error) {
	return c.PerformRequest(ctx, http.MethodDelete, url, params)
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

func (c *Client) MaintenanceStatus() int {
	return c.maintenanceStatus
}
