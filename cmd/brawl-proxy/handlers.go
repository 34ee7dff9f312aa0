package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/brawl-client/pkg/client"
	"github.com/Sternrassler/brawl-client/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const apiPrefix = "/api"

// apiClient is the part of *client.Client the handlers use.
type apiClient interface {
	Execute(ctx context.Context, r client.Request) (json.RawMessage, error)
	Ping(ctx context.Context) error
	Closed() bool
}

// newRouter wires the proxy endpoints.
func newRouter(api apiClient, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(api))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc(apiPrefix+"/", apiProxyHandler(api, requestTimeout))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler reports 503 once the client is closed or the shared cache
// tier is unreachable.
func readyHandler(api apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.Closed() {
			http.Error(w, "client closed", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := api.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// apiProxyHandler forwards GET /api/<path>?<query> to the upstream API
// through the client and relays the JSON body.
func apiProxyHandler(api apiClient, requestTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "only GET is supported")
			return
		}

		// Keep the escaped form so "%23" in tags survives.
		path := strings.TrimPrefix(r.URL.EscapedPath(), apiPrefix)
		if path == "" || path == "/" {
			writeJSONError(w, http.StatusNotFound, "notFound", "missing API path")
			return
		}

		query := client.Params{}
		for name, values := range r.URL.Query() {
			if len(values) > 0 {
				query[name] = values[0]
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		body, err := api.Execute(ctx, client.Request{
			Name:  "proxy",
			Path:  path,
			Query: query,
		})
		if err != nil {
			writeClientError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to write response")
		}
	}
}

// writeClientError maps a client error onto an HTTP response.
func writeClientError(w http.ResponseWriter, err error) {
	if errors.Is(err, client.ErrClientClosed) {
		writeJSONError(w, http.StatusServiceUnavailable, "clientClosed", err.Error())
		return
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		writeJSONError(w, http.StatusInternalServerError, "internalError", err.Error())
		return
	}

	status := proxyStatus(apiErr)
	message := apiErr.Message
	if message == "" && apiErr.Err != nil {
		message = apiErr.Err.Error()
	}

	log.Debug().
		Int("status", status).
		Str("error_class", string(apiErr.Class)).
		Msg("Proxy request failed")

	writeJSONError(w, status, apiErr.Reason, message)
}

// proxyStatus keeps an upstream error status. Local failures are mapped by
// class: a request the client refused to build is 400, anything the upstream
// did not answer properly is 502.
func proxyStatus(apiErr *client.APIError) int {
	switch apiErr.Class {
	case client.ErrorClassNetwork, client.ErrorClassDecode:
		return http.StatusBadGateway
	}
	if apiErr.StatusCode != 0 {
		return apiErr.StatusCode
	}
	if apiErr.Class == client.ErrorClassBadRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSONError(w http.ResponseWriter, status int, reason, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"reason":  reason,
		"message": message,
	})
}
