package http

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind is the closed set of classified failures.
type Kind int

const (
	// KindClientRequest means the service rejected the request (201-499).
	KindClientRequest Kind = iota + 1
	// KindServiceMaintenance means the service is deliberately unavailable.
	KindServiceMaintenance
	// KindServiceInternal means the service failed with a 500.
	KindServiceInternal
)

func (k Kind) String() string {
	switch k {
	case KindClientRequest:
		return "client_request"
	case KindServiceMaintenance:
		return "service_maintenance"
	case KindServiceInternal:
		return "service_internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DefaultClientErrorStatus is used when a client request error is built without a status.
const DefaultClientErrorStatus = 400

// Precondition errors, returned before any network I/O.
var (
	ErrUnsupportedMethod = errors.New("commentclient: unsupported method")
	ErrEmptyURL          = errors.New("commentclient: empty url")
)

// Sentinels for errors.Is matching by kind.
var (
	ErrClientRequest      = &Error{Kind: KindClientRequest}
	ErrServiceMaintenance = &Error{Kind: KindServiceMaintenance}
	ErrServiceInternal    = &Error{Kind: KindServiceInternal}
)

// Error is a failure derived from the response status code. StatusCode is
// only set for KindClientRequest.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
}

// NewClientRequestError builds a KindClientRequest error. A zero status
// becomes DefaultClientErrorStatus.
func NewClientRequestError(msg string, status int) *Error {
	if status == 0 {
		status = DefaultClientErrorStatus
	}
	return &Error{Kind: KindClientRequest, Message: msg, StatusCode: status}
}

func NewMaintenanceError(msg string) *Error {
	return &Error{Kind: KindServiceMaintenance, Message: msg}
}

func NewInternalError(msg string) *Error {
	return &Error{Kind: KindServiceInternal, Message: msg}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %q", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %q", e.Kind, e.Message)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of a classified error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a classified error of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
