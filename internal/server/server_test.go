package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/markbates/goth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"taskflex/internal/config"
	"taskflex/internal/database"
)

type healthDB struct {
	database.Service
	status string
}

func (h healthDB) Health(context.Context) map[string]string {
	return map[string]string{"status": h.status}
}

func newTestServer(t *testing.T, status string) http.Handler {
	t.Helper()
	return newTestServerWithRegistry(t, status, prometheus.NewRegistry())
}

func newTestServerWithRegistry(t *testing.T, status string, reg *prometheus.Registry) http.Handler {
	t.Helper()
	t.Cleanup(goth.ClearProviders)

	cfg, err := config.LoadFrom(map[string]string{
		"DB_STRING":      "postgres://unused",
		"SESSION_SECRET": "secret",
	})
	require.NoError(t, err)

	srv := NewServer(Deps{
		Config:   cfg,
		DB:       healthDB{status: status},
		Registry: reg,
		Log:      zerolog.Nop(),
	})
	return srv.Handler
}

func TestHealthHandler(t *testing.T) {
	for status, code := range map[string]int{"up": http.StatusOK, "down": http.StatusServiceUnavailable} {
		h := newTestServer(t, status)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, code, w.Code, status)
		require.Contains(t, w.Body.String(), status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, "up")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNilRegistryGetsDefault(t *testing.T) {
	var h http.Handler
	require.NotPanics(t, func() { h = newTestServerWithRegistry(t, "up", nil) })

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newTestServer(t, "up")
	for _, path := range []string{"/user", "/organizations", "/teams", "/projects", "/notifications", "/tags"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}
