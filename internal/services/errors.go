package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/desertthunder/hitnote/internal/shared"
)

// HTTPError is a non-2xx response. Message is the backend's detail field when one was sent.
type HTTPError struct {
	Status  int
	Message string

	detail bool
}

func newHTTPError(status int, body []byte) *HTTPError {
	if msg, ok := detailMessage(body); ok {
		return &HTTPError{Status: status, Message: msg, detail: true}
	}
	return &HTTPError{Status: status, Message: fmt.Sprintf("request failed: %d", status)}
}

// detailMessage reads the backend's detail field, which is either a string or a list of
// validation errors with a msg field.
func detailMessage(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String && detail.String() != "":
		return detail.String(), true
	case detail.IsArray():
		if msg := detail.Get("0.msg"); msg.Exists() {
			return msg.String(), true
		}
	}
	return "", false
}

// HasDetail reports whether Message came from the backend rather than the generic fallback.
func (e *HTTPError) HasDetail() bool { return e.detail }

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches the shared sentinels for the statuses callers branch on, and [shared.ErrAPIRequest] for any status.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	case shared.ErrNotAuthorized:
		return e.Status == http.StatusForbidden
	case shared.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// TransportError is a request that produced no response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", shared.ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == shared.ErrTransport
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an [HTTPError].
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
