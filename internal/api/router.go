package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/duo/internal/api/handlers"
	mw "github.com/Harshitk-cp/duo/internal/api/middleware"
	"github.com/Harshitk-cp/duo/internal/buildconfig"
	"github.com/Harshitk-cp/duo/internal/config"
	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/Harshitk-cp/duo/internal/scenario"
	"github.com/Harshitk-cp/duo/internal/service"
	"github.com/Harshitk-cp/duo/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Study     *service.StudyService
	Expirer   *service.ExpirerService
	startTime time.Time
	counters  mw.Counters
}

func NewApp(db *pgxpool.Pool, scenarios *scenario.Registry, logger *zap.Logger) *App {
	projects := store.NewProjectStore(db, scenarios)
	return newApp(db, projects, scenarios, logger)
}

func newApp(db Pinger, projects domain.ProjectStore, scenarios *scenario.Registry, logger *zap.Logger) *App {
	cfg := service.StudyConfig{
		Smoothing:   config.BayesianSmoothing(),
		Variance:    config.PriorVariance(),
		HPMemory:    config.HPMemory(),
		HPThreshold: config.HPDecisionThreshold(),
	}
	sampler := service.NewSampler(config.SamplerSeed())

	studySvc := service.NewStudyService(projects, scenarios, sampler, cfg, logger)
	expirerSvc := service.NewExpirerService(projects, config.ProjectRetention(), logger)

	studyHandler := handlers.NewStudyHandler(studySvc, scenarios, logger)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Study:     studySvc,
		Expirer:   expirerSvc,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.counters)

	// Order matters: request ids first, rate limiting last.
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)

	r.Route("/duo/api", func(r chi.Router) {
		r.Get("/scenarios", studyHandler.Scenarios)
		r.Post("/import", studyHandler.Import)
		r.Post("/sample", studyHandler.Sample)
		r.Post("/feedback", studyHandler.Feedback)
		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/metrics", studyHandler.Metrics)
			r.Get("/beliefs", studyHandler.Beliefs)
		})
	})

	return app
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}
		for k, v := range app.counters.Snapshot() {
			response[k] = v
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

var (
	_ domain.ProjectStore   = (*store.ProjectStore)(nil)
	_ domain.ScenarioSource = (*scenario.Registry)(nil)
)
