package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/commentclient/packages/shaping"
)

const (
	// APIKeyHeader carries the pre-shared key.
	APIKeyHeader = "X-Edx-Api-Key"
	// RequestIDParam is the query parameter carrying the correlation id.
	RequestIDParam = "request_id"
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Request describes one outbound call. It is built per call and never reused.
type Request struct {
	Method    string
	URL       string
	Payload   shaping.Params
	RequestID string
}

// NewRequest validates method and url and assigns a fresh correlation id.
// The method is matched case-insensitively; a nil payload becomes empty.
func NewRequest(method, requestURL string, payload map[string]any) (*Request, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if !supportedMethods[m] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	if strings.TrimSpace(requestURL) == "" {
		return nil, ErrEmptyURL
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return &Request{
		Method:    m,
		URL:       requestURL,
		Payload:   shaping.Params(payload),
		RequestID: uuid.NewString(),
	}, nil
}

// HasBody reports whether the payload travels in the body (POST, PUT, PATCH).
func (r *Request) HasBody() bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// QueryParams returns the query parameters for the call. Body-bearing verbs
// only carry the correlation id; the rest carry the payload plus the id.
func (r *Request) QueryParams() url.Values {
	id := shaping.Params{RequestIDParam: r.RequestID}
	if r.HasBody() {
		return shaping.ToValues(id)
	}
	return shaping.ToValues(shaping.MergeDict(r.Payload, id))
}

// FormBody returns the form-encoded body, empty for verbs without a body.
func (r *Request) FormBody() string {
	if !r.HasBody() {
		return ""
	}
	return shaping.ToValues(r.Payload).Encode()
}

// BuildURL merges QueryParams into any query already present on URL.
func (r *Request) BuildURL() (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for k, vs := range r.QueryParams() {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Build creates the net/http request carrying apiKey.
func (r *Request) Build(ctx context.Context, apiKey string) (*http.Request, error) {
	target, err := r.BuildURL()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	form := r.FormBody()
	if form != "" {
		body = strings.NewReader(form)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(APIKeyHeader, apiKey)
	if form != "" {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return httpReq, nil
}
