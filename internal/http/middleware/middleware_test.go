package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeRecorder) RecordHTTPRequest(_ context.Context, method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recorded{method: method, route: route, status: status})
}

func newTestMiddleware(rec *fakeRecorder) *Middleware {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if rec == nil {
		return New(logger, nil)
	}
	return New(logger, rec)
}

func TestRequestID(t *testing.T) {
	m := newTestMiddleware(nil)

	var seen string
	handler := m.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(chimw.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimw.RequestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", seen)
	assert.Equal(t, "caller-id", rec.Header().Get(chimw.RequestIDHeader))
}

func TestRequestLogger_RecordsRoutePattern(t *testing.T) {
	metrics := &fakeRecorder{}
	m := newTestMiddleware(metrics)

	r := chi.NewRouter()
	r.Use(m.RequestLogger)
	r.Get("/api/regions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/regions/42", nil))

	require.Len(t, metrics.calls, 1)
	assert.Equal(t, recorded{method: http.MethodGet, route: "/api/regions/{id}", status: http.StatusTeapot}, metrics.calls[0])
}

func TestRecoverer(t *testing.T) {
	m := newTestMiddleware(nil)

	handler := m.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/regions", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRateLimit(t *testing.T) {
	m := newTestMiddleware(nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	limited := m.RateLimit(6)(ok)

	first := httptest.NewRecorder()
	limited.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/regions", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	limited.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/regions", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	unlimited := m.RateLimit(0)(ok)
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		unlimited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/regions", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORS(t *testing.T) {
	m := newTestMiddleware(nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
	req.Header.Set("Origin", "http://localhost:9000")

	rec := httptest.NewRecorder()
	m.CORS([]string{"http://localhost:9000"})(ok).ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:9000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	m.CORS(nil)(ok).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
