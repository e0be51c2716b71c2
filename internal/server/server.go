// Package server exposes the export pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/config"
	"MarketWorkbook/internal/pipeline"
	"MarketWorkbook/internal/recorder"
)

// Exporter runs export jobs. Implemented by pipeline.Service.
type Exporter interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Report, error)
	Components(ctx context.Context) (*pipeline.Report, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	exporter  Exporter
	recorder  recorder.Recorder
	metrics   http.Handler
	observer  RequestObserver
	validate  *validator.Validate
	logger    arbor.ILogger
	maxUpload int64
	version   string
	now       func() time.Time
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Metrics  http.Handler
	Observer RequestObserver
	Version  string
}

// New creates a Server.
func New(cfg config.ServerConfig, exporter Exporter, rec recorder.Recorder, logger arbor.ILogger, opts Options) *Server {
	return &Server{
		exporter:  exporter,
		recorder:  rec,
		metrics:   opts.Metrics,
		observer:  opts.Observer,
		validate:  validator.New(),
		logger:    logger,
		maxUpload: int64(cfg.MaxUploadMB) << 20,
		version:   opts.Version,
		now:       time.Now,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(StructuredLogger(s.logger, s.observer))
	r.Use(Recoverer(s.logger))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Get("/runs", s.handleRuns)
	r.Get("/components", s.handleComponents)

	r.Get("/download_all_data", s.handleAllComponents)
	r.Post("/download_all_data", s.handleAllComponents)
	r.Get("/download_realtime_data", s.handleRealtime)
	r.Post("/download_realtime_data", s.handleRealtime)
	r.Post("/download", s.handleHistoric)
	r.Get("/download_specific_date", s.handleSpecificDate)
	r.Post("/download_specific_date", s.handleSpecificDate)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, newProblem(http.StatusNotFound, TypeNotFound, "Not Found",
			fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path), r))
	})
	return r
}

// HTTPServer wraps the router in an http.Server using cfg timeouts.
func (s *Server) HTTPServer(cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}
}

func fmtPanic(v interface{}) string { return fmt.Sprint(v) }
