package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/brawl-client/internal/testutil"
	"github.com/Sternrassler/brawl-client/pkg/client"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		redisC.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newProxyClient(t *testing.T, baseURL string, mutate func(*client.Config)) *client.Client {
	t.Helper()

	logger := zerolog.Nop()
	cfg := client.DefaultConfig("test-token")
	cfg.BaseURL = baseURL
	cfg.BackoffBase = time.Millisecond
	cfg.Logger = &logger
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// stubChecker is an apiClient with fixed readiness.
type stubChecker struct {
	pingErr error
	closed  bool
}

func (s stubChecker) Execute(ctx context.Context, r client.Request) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (s stubChecker) Ping(ctx context.Context) error { return s.pingErr }

func (s stubChecker) Closed() bool { return s.closed }

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name       string
		checker    stubChecker
		wantStatus int
	}{
		{"ready", stubChecker{}, http.StatusOK},
		{"redis down", stubChecker{pingErr: errors.New("connection refused")}, http.StatusServiceUnavailable},
		{"client closed", stubChecker{closed: true}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			readyHandler(tt.checker)(w, httptest.NewRequest("GET", "/ready", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestReadyEndpoint_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis container test in short mode")
	}

	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	brawlClient := newProxyClient(t, client.DefaultBaseURL, func(cfg *client.Config) {
		cfg.Redis = redisClient
	})
	handler := readyHandler(brawlClient)

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "OK" {
			t.Errorf("Expected body 'OK', got %s", w.Body.String())
		}
	})

	t.Run("not_ready_redis_down", func(t *testing.T) {
		redisClient.Close()

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestAPIProxyHandler(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetJSON("/players/%23ABC", map[string]any{"tag": "#ABC", "name": "Shelly"})
	mock.SetJSON("/rankings/global/players", map[string]any{"items": []any{}})
	mock.SetResponse("/events/rotation", testutil.NewMaintenanceResponse())

	handler := apiProxyHandler(newProxyClient(t, mock.URL(), nil), 5*time.Second)

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/api/players/%23ABC", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if !strings.Contains(w.Body.String(), `"Shelly"`) {
			t.Errorf("Body = %s, want player JSON", w.Body.String())
		}
	})

	t.Run("query forwarded", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/api/rankings/global/players?limit=5", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if got := mock.LastQuery().Get("limit"); got != "5" {
			t.Errorf("upstream limit = %q, want 5", got)
		}
	})

	t.Run("not found keeps status", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/api/players/%23MISSING", nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", w.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("error body is not JSON: %v", err)
		}
		if body["reason"] != "notFound" {
			t.Errorf("reason = %q, want notFound", body["reason"])
		}
	})

	t.Run("maintenance", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/api/events/rotation", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("POST", "/api/players/%23ABC", nil))

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Code)
		}
		if allow := w.Header().Get("Allow"); allow != http.MethodGet {
			t.Errorf("Allow = %q, want GET", allow)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/api/", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestAPIProxyHandler_UpstreamDown(t *testing.T) {
	mock := testutil.NewMockAPI()
	baseURL := mock.URL()
	mock.Close()

	handler := apiProxyHandler(newProxyClient(t, baseURL, nil), 5*time.Second)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/api/players/%23ABC", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
}

func TestAPIProxyHandler_ClosedClient(t *testing.T) {
	c := newProxyClient(t, client.DefaultBaseURL, nil)
	c.Close()

	w := httptest.NewRecorder()
	apiProxyHandler(c, time.Second)(w, httptest.NewRequest("GET", "/api/brawlers", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestRouter(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetJSON("/brawlers", map[string]any{"items": []any{}})

	srv := httptest.NewServer(newRouter(newProxyClient(t, mock.URL(), nil), 5*time.Second))
	defer srv.Close()

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/health", http.StatusOK, "OK"},
		{"/ready", http.StatusOK, "OK"},
		{"/metrics", http.StatusOK, "brawl_credential_rotations_total"},
		{"/api/brawlers", http.StatusOK, `"items"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s failed: %v", tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("Body of %s does not contain %q", tt.path, tt.wantBody)
			}
		})
	}
}

func TestWriteClientError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{
			name:       "upstream not found",
			err:        &client.APIError{StatusCode: http.StatusNotFound, Class: client.ErrorClassNotFound, Reason: "notFound", Message: "no such player"},
			wantStatus: http.StatusNotFound,
			wantReason: "notFound",
		},
		{
			name:       "local bad request",
			err:        &client.APIError{Class: client.ErrorClassBadRequest, Reason: "Invalid URL", Message: "parse error"},
			wantStatus: http.StatusBadRequest,
			wantReason: "Invalid URL",
		},
		{
			name:       "network failure",
			err:        &client.APIError{Class: client.ErrorClassNetwork, Reason: "Network Error", Err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantReason: "Network Error",
		},
		{
			name:       "invalid upstream json",
			err:        &client.APIError{StatusCode: http.StatusOK, Class: client.ErrorClassDecode, Reason: "Invalid JSON"},
			wantStatus: http.StatusBadGateway,
			wantReason: "Invalid JSON",
		},
		{
			name:       "client closed",
			err:        client.ErrClientClosed,
			wantStatus: http.StatusServiceUnavailable,
			wantReason: "clientClosed",
		},
		{
			name:       "unclassified",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantReason: "internalError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeClientError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body["reason"] != tt.wantReason {
				t.Errorf("reason = %q, want %q", body["reason"], tt.wantReason)
			}
		})
	}
}
