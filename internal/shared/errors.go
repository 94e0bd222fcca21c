package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication and authorization errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrLoginRequired    = fmt.Errorf("login required")
	ErrNotAuthorized    = fmt.Errorf("not authorized")

	// API and transport errors
	ErrTransport  = fmt.Errorf("transport error")
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrNotFound   = fmt.Errorf("not found")

	// Client-side preconditions
	ErrValidation      = fmt.Errorf("validation failed")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrBusy            = fmt.Errorf("operation already in progress")
	ErrCancelled       = fmt.Errorf("cancelled")
)

// UserMessage converts an error into the text a view shows in place of data.
//
// Authorization failures render as "not authorized" regardless of the backend's wording.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthorized):
		return "not authorized"
	case errors.Is(err, ErrLoginRequired):
		return "login required"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	}

	msg := err.Error()
	for _, prefix := range []string{ErrValidation.Error() + ": ", ErrAPIRequest.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
