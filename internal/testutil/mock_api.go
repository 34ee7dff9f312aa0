// Package testutil provides testing utilities for the Brawl Stars client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock Brawl Stars API server for testing.
//
// Paths are matched on their escaped form, so a player tag is registered
// as "/players/%23ABC".
type MockAPI struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	scripts  map[string][]MockResponse

	// Tracking
	requestCount int
	pathCounts   map[string]int
	tokens       []string
	lastHeader   http.Header
	lastQuery    url.Values
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]http.HandlerFunc),
		scripts:    make(map[string][]MockResponse),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()

		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[path]++
		mock.tokens = append(mock.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		mock.lastHeader = r.Header.Clone()
		mock.lastQuery = r.URL.Query()

		if script, ok := mock.scripts[path]; ok && len(script) > 0 {
			resp := script[0]
			if len(script) > 1 {
				mock.scripts[path] = script[1:]
			}
			mock.mu.Unlock()
			writeResponse(w, resp)
			return
		}

		handler, exists := mock.handlers[path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		writeResponse(w, NewErrorResponse(http.StatusNotFound, "notFound", "Not found with tag "+path))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.tokens = nil
	m.lastHeader = nil
	m.lastQuery = nil
}

// SetHandler sets a custom handler for a path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetJSON serves v as a 200 JSON response for a path.
func (m *MockAPI) SetJSON(path string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal %T: %v", v, err))
	}
	m.SetResponse(path, NewJSONResponse(string(body)))
}

// Script queues responses for a path. They are served in order and the
// last one repeats once the queue is drained.
func (m *MockAPI) Script(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[path] = append([]MockResponse(nil), responses...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockAPI) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// PathCount returns the number of requests made to an escaped path.
func (m *MockAPI) PathCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pathCounts[path]
}

// Tokens returns the bearer token of every request in arrival order.
func (m *MockAPI) Tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

// LastHeader returns the headers of the most recent request.
func (m *MockAPI) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader
}

// LastQuery returns the query of the most recent request.
func (m *MockAPI) LastQuery() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewErrorResponse creates an error response with the API's
// {"reason", "message"} body.
func NewErrorResponse(status int, reason, message string) MockResponse {
	body, _ := json.Marshal(map[string]string{"reason": reason, "message": message})
	return MockResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewAccessDeniedResponse creates a 403 for an invalid token.
func NewAccessDeniedResponse() MockResponse {
	return NewErrorResponse(http.StatusForbidden, "accessDenied", "Invalid authorization")
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return NewErrorResponse(http.StatusTooManyRequests, "requestThrottled", "Request was throttled, because amount of requests was above the threshold defined for the used API token.")
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return NewErrorResponse(http.StatusInternalServerError, "unknownException", "An unknown exception occurred")
}

// NewMaintenanceResponse creates a 503 returned during maintenance breaks.
func NewMaintenanceResponse() MockResponse {
	return NewErrorResponse(http.StatusServiceUnavailable, "inMaintenance", "Service is temporarily unavailable because of maintenance.")
}
