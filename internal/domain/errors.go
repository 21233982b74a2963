package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates resource not found
var ErrNotFound = errors.New("resource not found")

// FailureKind classifies how a call to the inference service went wrong
type FailureKind string

const (
	// KindUnreachable - upstream answered 404, the endpoint is misrouted or down
	KindUnreachable FailureKind = "server connection error"
	// KindUpstreamFault - upstream answered with a 5xx
	KindUpstreamFault FailureKind = "server error"
	// KindBadRequest - upstream rejected the request with another 4xx
	KindBadRequest FailureKind = "request error"
	// KindTimeout - the local deadline elapsed before any response
	KindTimeout FailureKind = "response timeout"
	// KindTransport - the connection was never established
	KindTransport FailureKind = "network connection error"
	// KindSystem - anything else, including an undecodable upstream body
	KindSystem FailureKind = "system error"
)

// Status returns the HTTP status the widget receives for this failure kind
func (k FailureKind) Status() int {
	switch k {
	case KindUnreachable, KindUpstreamFault, KindTransport:
		return http.StatusServiceUnavailable
	case KindBadRequest:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// UpstreamError is a classified failure of one inference call
type UpstreamError struct {
	Kind           FailureKind
	UpstreamStatus int // 0 when no response was received
	Err            error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("upstream %s (status %d)", e.Kind, e.UpstreamStatus)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrorPayload is the structured error body returned to the widget in place
// of an answer. Message and Contact are deployment-fixed strings, not derived
// from the failure.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Contact string `json:"contact"`
}
