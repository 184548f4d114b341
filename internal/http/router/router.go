// Package router mounts one CRUD resource per entity plus the health and
// metrics endpoints.
//
// Route table, repeated for every entity:
//
//	POST   /api/{entities}        → create
//	GET    /api/{entities}        → list (JSON array or NDJSON stream)
//	GET    /api/{entities}/{id}   → get one
//	PUT    /api/{entities}/{id}   → full update
//	PATCH  /api/{entities}/{id}   → merge-patch update
//	DELETE /api/{entities}/{id}   → delete
//
// where {entities} is regions, countries, locations, departments, tasks,
// jobs or job-histories.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/employee-api/internal/http/handlers/resource"
	"github.com/aanand-mishra/employee-api/internal/http/middleware"
	"github.com/aanand-mishra/employee-api/internal/metrics"
	"github.com/aanand-mishra/employee-api/internal/storage"
	"github.com/aanand-mishra/employee-api/internal/types"
	"github.com/aanand-mishra/employee-api/internal/utils/response"
)

// Options configures New.
type Options struct {
	AppName      string
	CORSOrigins  []string
	RateLimitRPM int

	// Metrics receives one measurement per request; MetricsHandler, when
	// set, is served at /metrics.
	Metrics        metrics.Recorder
	MetricsHandler http.Handler

	Logger *slog.Logger
}

// crud is implemented by every *resource.Resource[T].
type crud interface {
	Create() http.HandlerFunc
	GetByID() http.HandlerFunc
	GetList() http.HandlerFunc
	Update() http.HandlerFunc
	PartialUpdate() http.HandlerFunc
	Delete() http.HandlerFunc
	MethodNotAllowed() http.HandlerFunc
}

// New builds the application router over store.
func New(store *storage.Storage, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := middleware.New(logger, opts.Metrics)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.CORS(opts.CORSOrigins))
	r.Use(chimw.Heartbeat("/ping"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteProblem(w, response.Problem{Status: http.StatusNotFound, Instance: r.URL.Path})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})
	r.Get("/readyz", readyz(store))

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	alerts := response.Alerts{App: opts.AppName}

	r.Route("/api", func(r chi.Router) {
		r.Use(m.RateLimit(opts.RateLimitRPM))

		mount(r, "/regions", resource.New("region", store.Regions,
			func(e *types.Region) *int64 { return &e.ID }, alerts))
		mount(r, "/countries", resource.New("country", store.Countries,
			func(e *types.Country) *int64 { return &e.ID }, alerts))
		mount(r, "/locations", resource.New("location", store.Locations,
			func(e *types.Location) *int64 { return &e.ID }, alerts))
		mount(r, "/departments", resource.New("department", store.Departments,
			func(e *types.Department) *int64 { return &e.ID }, alerts))
		mount(r, "/tasks", resource.New("task", store.Tasks,
			func(e *types.Task) *int64 { return &e.ID }, alerts))
		mount(r, "/jobs", resource.New("job", store.Jobs,
			func(e *types.Job) *int64 { return &e.ID }, alerts))
		mount(r, "/job-histories", resource.New("jobHistory", store.JobHistories,
			func(e *types.JobHistory) *int64 { return &e.ID }, alerts))
	})

	return r
}

func mount(r chi.Router, path string, res crud) {
	r.Route(path, func(r chi.Router) {
		r.MethodNotAllowed(res.MethodNotAllowed())

		r.Post("/", res.Create())
		r.Get("/", res.GetList())
		r.Get("/{id}", res.GetByID())
		r.Put("/{id}", res.Update())
		r.Patch("/{id}", res.PartialUpdate())
		r.Delete("/{id}", res.Delete())
	})
}

func readyz(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := store.Ping(ctx); err != nil {
				slog.Warn("readiness check failed", slog.String("error", err.Error()))
				response.WriteProblem(w, response.Problem{
					Status:   http.StatusServiceUnavailable,
					Detail:   "storage unreachable",
					Instance: r.URL.Path,
				})
				return
			}
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	}
}
