package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/commentclient/packages/export/metrics"
	"github.com/abdul-hamid-achik/commentclient/packages/logger"
)

type capturedRequest struct {
	method string
	query  url.Values
	body   string
	header http.Header
}

func newCapturingServer(t *testing.T, status int, body string) (*httptest.Server, func() capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		last capturedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		last = capturedRequest{method: r.Method, query: r.URL.Query(), body: string(data), header: r.Header.Clone()}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, func() capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func newTestClient(rec *metrics.Recorder, opts ...ClientOption) *Client {
	base := []ClientOption{WithAPIKey("test-key"), WithEmitter(rec), WithLogger(logger.Discard())}
	return NewClient(append(base, opts...)...)
}

func TestPerformRequest_GetCarriesPayloadAndRequestIDInQuery(t *testing.T) {
	server, last := newCapturingServer(t, http.StatusOK, `{"ok": true}`)
	client := newTestClient(metrics.NewRecorder())

	result, err := client.PerformRequest(context.Background(), "get", server.URL+"/threads", map[string]any{
		"course_id": "demo",
		"page":      2,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result)

	got := last()
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "demo", got.query.Get("course_id"))
	assert.Equal(t, "2", got.query.Get("page"))
	assert.NotEmpty(t, got.query.Get(RequestIDParam))
	assert.Empty(t, got.body)
	assert.Equal(t, "test-key", got.header.Get(APIKeyHeader))
}

func TestPerformRequest_PostKeepsPayloadInBodyOnly(t *testing.T) {
	server, last := newCapturingServer(t, http.StatusOK, `{"id": "1"}`)
	client := newTestClient(metrics.NewRecorder())

	_, err := client.PerformRequest(context.Background(), http.MethodPost, server.URL+"/comments", map[string]any{
		"body":      "hello",
		"anonymous": false,
	})
	require.NoError(t, err)

	got := last()
	assert.Equal(t, []string{RequestIDParam}, keys(got.query))

	form, err := url.ParseQuery(got.body)
	require.NoError(t, err)
	assert.Equal(t, "hello", form.Get("body"))
	assert.Equal(t, "False", form.Get("anonymous"))
	assert.False(t, form.Has(RequestIDParam))
	assert.Equal(t, "application/x-www-form-urlencoded", got.header.Get("Content-Type"))
}

func TestPerformRequest_WriteVerbs(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			server, last := newCapturingServer(t, http.StatusOK, `{}`)
			client := newTestClient(metrics.NewRecorder())

			_, err := client.PerformRequest(context.Background(), method, server.URL, map[string]any{"title": "x"})
			require.NoError(t, err)

			got := last()
			assert.Equal(t, method, got.method)
			assert.Equal(t, "title=x", got.body)
			assert.Equal(t, []string{RequestIDParam}, keys(got.query))
		})
	}
}

func TestPerformRequest_DeleteUsesQuery(t *testing.T) {
	server, last := newCapturingServer(t, http.StatusOK, `{}`)
	client := newTestClient(metrics.NewRecorder())

	_, err := client.Delete(context.Background(), server.URL, map[string]any{"user_id": "7"})
	require.NoError(t, err)

	got := last()
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "7", got.query.Get("user_id"))
	assert.Empty(t, got.body)
}

func TestPerformRequest_EmptyAPIKeyStillSendsHeader(t *testing.T) {
	server, last := newCapturingServer(t, http.StatusOK, `{}`)
	client := NewClient(WithLogger(logger.Discard()))

	_, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)

	values, ok := last().header[APIKeyHeader]
	assert.True(t, ok)
	assert.Equal(t, []string{""}, values)
}

func TestPerformRequest_ReadsKeySourceEveryCall(t *testing.T) {
	server, last := newCapturingServer(t, http.StatusOK, `{}`)
	src := &mutableKey{key: "first"}
	client := NewClient(WithKeySource(src), WithLogger(logger.Discard()))

	_, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", last().header.Get(APIKeyHeader))

	src.set("second")
	_, err = client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", last().header.Get(APIKeyHeader))
}

func TestPerformRequest_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   Kind
		code   int
	}{
		{"internal", http.StatusInternalServerError, KindServiceInternal, 0},
		{"maintenance", http.StatusServiceUnavailable, KindServiceMaintenance, 0},
		{"not found", http.StatusNotFound, KindClientRequest, 404},
		{"created", http.StatusCreated, KindClientRequest, 201},
		{"conflict", http.StatusConflict, KindClientRequest, 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newCapturingServer(t, tt.status, "nope")
			client := newTestClient(metrics.NewRecorder())

			_, err := client.Get(context.Background(), server.URL, nil)
			require.Error(t, err)

			var classified *Error
			require.True(t, errors.As(err, &classified))
			assert.Equal(t, tt.kind, classified.Kind)
			assert.Equal(t, tt.code, classified.StatusCode)
			assert.Equal(t, "nope", classified.Message)
		})
	}
}

func TestPerformRequest_OtherServerErrorsAreSuccess(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusBadGateway, `{"gateway": "down"}`)
	client := newTestClient(metrics.NewRecorder())

	result, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"gateway": "down"}, result)
}

func TestPerformRequest_ConfigurableMaintenanceStatus(t *testing.T) {
	server, _ := newCapturingServer(t, 520, "maintenance")
	client := newTestClient(metrics.NewRecorder(), WithMaintenanceStatus(520))

	_, err := client.Get(context.Background(), server.URL, nil)
	assert.True(t, IsKind(err, KindServiceMaintenance))

	server503, _ := newCapturingServer(t, http.StatusServiceUnavailable, `{}`)
	_, err = client.Get(context.Background(), server503.URL, nil)
	assert.NoError(t, err)
}

func TestPerformRequest_RawAndDecodedAgree(t *testing.T) {
	body := `{"thread": {"id": "abc", "votes": 3}}`
	server, _ := newCapturingServer(t, http.StatusOK, body)
	client := newTestClient(metrics.NewRecorder())

	raw, err := client.PerformRaw(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, body, raw)

	decoded, err := client.PerformRequest(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	reparsed, err := (&Response{Body: []byte(raw)}).BodyJSON()
	require.NoError(t, err)
	assert.Equal(t, reparsed, decoded)
}

func TestPerformRequest_InvalidJSONIsNotClassified(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusOK, `not json`)
	client := newTestClient(metrics.NewRecorder())

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	_, classified := KindOf(err)
	assert.False(t, classified)
}

func TestPerformRequest_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rec := metrics.NewRecorder()
	client := newTestClient(rec, WithTimeout(50*time.Millisecond))

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	_, classified := KindOf(err)
	assert.False(t, classified)
	assert.Equal(t, int64(1), rec.Count(RequestTimeMetric))
}

func TestPerformRequest_TransportErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	rec := metrics.NewRecorder()
	client := newTestClient(rec, WithTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})))

	_, err := client.Get(context.Background(), "http://comments.invalid/threads", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), rec.Count(RequestTimeMetric))
}

func TestPerformRequest_MalformedURLStillTimed(t *testing.T) {
	rec := metrics.NewRecorder()
	client := newTestClient(rec)

	_, err := client.Get(context.Background(), "http://[::1", nil)
	require.Error(t, err)
	_, classified := KindOf(err)
	assert.False(t, classified)
	assert.Equal(t, int64(1), rec.Count(RequestTimeMetric))
}

func TestPerformRequest_OneTimingPerCall(t *testing.T) {
	ok, _ := newCapturingServer(t, http.StatusOK, `{}`)
	failing, _ := newCapturingServer(t, http.StatusInternalServerError, `oops`)
	rec := metrics.NewRecorder()
	client := newTestClient(rec)

	_, err := client.Get(context.Background(), ok.URL, nil)
	require.NoError(t, err)
	_, err = client.Get(context.Background(), failing.URL, nil)
	require.Error(t, err)

	points := rec.Points()
	require.Len(t, points, 2)
	for _, p := range points {
		assert.Equal(t, RequestTimeMetric, p.Name)
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.False(t, p.Timestamp.IsZero())
	}
	assert.Equal(t, []string{"method:GET"}, points[0].Tags)
}

func TestPerformRequest_Preconditions(t *testing.T) {
	rec := metrics.NewRecorder()
	client := newTestClient(rec)

	_, err := client.PerformRequest(context.Background(), "HEAD", "http://example.com", nil)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = client.PerformRequest(context.Background(), "GET", "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyURL)

	assert.Empty(t, rec.Points(), "no timing is emitted before the network call")
}

func TestPerformRequest_LogsOneLinePerCall(t *testing.T) {
	server, last := newCapturingServer(t, http.StatusOK, `{}`)
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "text", logger.ParseLevel("info"))
	client := NewClient(WithLogger(log))

	_, err := client.Get(context.Background(), server.URL+"/users/1", nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("comment_client_request_log")))
	assert.Contains(t, out, "request_id="+last().query.Get(RequestIDParam))
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "url="+server.URL+"/users/1")
	assert.Contains(t, out, "duration=")
}

func TestDo_SetsDurationAndRequestID(t *testing.T) {
	server, last := newCapturingServer(t, http.StatusOK, `{}`)
	client := newTestClient(metrics.NewRecorder(), WithDefaultHeader("User-Agent", "commentclient-test"), WithDefaultHeader(APIKeyHeader, "ignored"))

	req, err := NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, resp.RequestID)
	assert.GreaterOrEqual(t, resp.Duration, time.Duration(0))
	assert.Equal(t, "commentclient-test", last().header.Get("User-Agent"))
	assert.Equal(t, "test-key", last().header.Get(APIKeyHeader))
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient()
	assert.Equal(t, DefaultTimeout, client.Timeout())
	assert.Equal(t, 5*time.Second, client.Timeout())
}

func TestWithTimeout_CannotExceedDefault(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewClient(WithTimeout(time.Minute)).Timeout())
	assert.Equal(t, 2*time.Second, NewClient(WithTimeout(2*time.Second)).Timeout())
	assert.Equal(t, DefaultTimeout, NewClient(WithTimeout(0)).Timeout())
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type mutableKey struct {
	mu  sync.Mutex
	key string
}

func (m *mutableKey) APIKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key
}

func (m *mutableKey) set(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
}

func keys(v url.Values) []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	return out
}
