package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassBadRequest represents 400: the caller sent incorrect parameters.
	ErrorClassBadRequest ErrorClass = "bad_request"

	// ErrorClassAccessDenied represents 403: missing, invalid or unauthorized credential.
	ErrorClassAccessDenied ErrorClass = "access_denied"

	// ErrorClassNotFound represents 404: the resource does not exist.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassRateLimited represents 429: the upstream throttled the request.
	ErrorClassRateLimited ErrorClass = "rate_limited"

	// ErrorClassInternal represents 500: unknown upstream failure.
	ErrorClassInternal ErrorClass = "internal_error"

	// ErrorClassUnavailable represents 503: upstream temporarily unavailable.
	ErrorClassUnavailable ErrorClass = "unavailable"

	// ErrorClassHTTP represents any other non-2xx status.
	ErrorClassHTTP ErrorClass = "http"

	// ErrorClassNetwork represents transport failures, timeouts and cancellation.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a successful status whose body is not valid JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// Sentinel errors matched by errors.Is against an *APIError's class.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrAccessDenied   = errors.New("access denied")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrInternalServer = errors.New("internal server error")
	ErrUnavailable    = errors.New("service unavailable")
	ErrNetwork        = errors.New("network failure")
	ErrDecode         = errors.New("invalid response body")
)

// Local failures that never reach the network.
var (
	// ErrClientClosed is returned by Execute after Close.
	ErrClientClosed = errors.New("client closed")

	// ErrUnsupportedMethod is returned for any method other than GET.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrNoAttempts is returned if the attempt loop never ran.
	ErrNoAttempts = errors.New("request failed without any attempt")
)

var classSentinels = map[ErrorClass]error{
	ErrorClassBadRequest:   ErrBadRequest,
	ErrorClassAccessDenied: ErrAccessDenied,
	ErrorClassNotFound:     ErrNotFound,
	ErrorClassRateLimited:  ErrRateLimited,
	ErrorClassInternal:     ErrInternalServer,
	ErrorClassUnavailable:  ErrUnavailable,
	ErrorClassNetwork:      ErrNetwork,
	ErrorClassDecode:       ErrDecode,
}

// APIError is a classified request failure.
type APIError struct {
	// StatusCode is the upstream HTTP status, 0 when no response arrived.
	StatusCode int

	// Class is the failure classification.
	Class ErrorClass

	// Reason is a short machine-readable reason from the upstream body.
	Reason string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause for network and decode failures.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("brawl %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Reason, e.Err)
	}
	return fmt.Sprintf("brawl %s error (status %d): %s: %s",
		e.Class, e.StatusCode, e.Reason, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of e's class.
func (e *APIError) Is(target error) bool {
	sentinel, ok := classSentinels[e.Class]
	return ok && sentinel == target
}

// NewBadRequest builds a bad_request error raised locally, before any
// request is sent.
func NewBadRequest(reason, message string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Class:      ErrorClassBadRequest,
		Reason:     reason,
		Message:    message,
	}
}

// classForStatus maps an HTTP status to its class. Statuses below 400 have
// no class.
func classForStatus(status int) ErrorClass {
	switch {
	case status < 400:
		return ""
	case status == http.StatusBadRequest:
		return ErrorClassBadRequest
	case status == http.StatusForbidden:
		return ErrorClassAccessDenied
	case status == http.StatusNotFound:
		return ErrorClassNotFound
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimited
	case status == http.StatusInternalServerError:
		return ErrorClassInternal
	case status == http.StatusServiceUnavailable:
		return ErrorClassUnavailable
	default:
		return ErrorClassHTTP
	}
}

// errorBody is the upstream error payload.
type errorBody struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// classifyResponse turns a >= 400 response into an APIError. It returns nil
// for successful statuses. body must be the fully read response body.
func classifyResponse(resp *http.Response, body []byte) *APIError {
	class := classForStatus(resp.StatusCode)
	if class == "" {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Class:      class,
		Reason:     statusReason(resp),
	}

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = "Could not parse error response body."
		}
		return apiErr
	}

	if payload.Reason != "" {
		apiErr.Reason = payload.Reason
	}
	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

// statusReason returns the reason phrase of resp's status line.
func statusReason(resp *http.Response) string {
	if _, phrase, ok := strings.Cut(resp.Status, " "); ok && phrase != "" {
		return phrase
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "Unknown Error"
}

// networkError wraps a transport failure.
func networkError(err error) *APIError {
	return &APIError{
		Class:   ErrorClassNetwork,
		Reason:  "Network Error",
		Message: err.Error(),
		Err:     err,
	}
}
