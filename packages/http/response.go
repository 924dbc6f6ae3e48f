package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type Response struct {
	RequestID  string
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// BodyJSON decodes the body. Decode errors are returned unwrapped.
func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal(r.Body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

// Classify maps the status code onto an error kind, or nil for success.
func (r *Response) Classify(maintenanceStatus int) error {
	return Classify(r.StatusCode, r.BodyString(), maintenanceStatus)
}

// Classify maps status onto an error kind. 500 is checked before the
// maintenance status, and both before the 201-499 client band. Every other
// status, 200 included, is a success.
func Classify(status int, body string, maintenanceStatus int) error {
	switch {
	case status == http.StatusInternalServerError:
		return NewInternalError(body)
	case status == maintenanceStatus:
		return NewMaintenanceError(body)
	case status > http.StatusOK && status < http.StatusInternalServerError:
		return NewClientRequestError(body, status)
	default:
		return nil
	}
}
