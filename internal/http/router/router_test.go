package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/employee-api/internal/metrics"
	"github.com/aanand-mishra/employee-api/internal/storage"
	"github.com/aanand-mishra/employee-api/internal/storage/sqlite"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *storage.Storage {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "router.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func serve(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, body))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	r := New(newStore(t), Options{AppName: "employeeApp", Logger: quietLogger()})

	rec := serve(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())

	rec = serve(r, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_StorageDown(t *testing.T) {
	store := newStore(t)
	store.Ping = func(context.Context) error { return errors.New("gone") }

	rec := serve(New(store, Options{Logger: quietLogger()}), http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestNotFound(t *testing.T) {
	r := New(newStore(t), Options{Logger: quietLogger()})

	rec := serve(r, http.MethodGet, "/api/employees", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRoutes_EveryEntityMounted(t *testing.T) {
	r := New(newStore(t), Options{Logger: quietLogger()})

	for _, path := range []string{
		"/api/regions", "/api/countries", "/api/locations", "/api/departments",
		"/api/tasks", "/api/jobs", "/api/job-histories",
	} {
		rec := serve(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, "[]", rec.Body.String(), path)

		rec = serve(r, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m, handler, err := metrics.Setup("employee-api-test")
	require.NoError(t, err)
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	r := New(newStore(t), Options{Logger: quietLogger(), Metrics: m, MetricsHandler: handler})

	serve(r, http.MethodPost, "/api/regions", strings.NewReader(`{"regionName":"north"}`))

	rec := serve(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/regions`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	r := New(newStore(t), Options{Logger: quietLogger()})

	rec := serve(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
