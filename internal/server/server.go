// Package server exposes scoring, reports and the per-session bumper state
// over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/bumper"
	"github.com/sells-group/ppm-finder/internal/catalog"
	"github.com/sells-group/ppm-finder/internal/report"
	"github.com/sells-group/ppm-finder/internal/scorer"
	"github.com/sells-group/ppm-finder/internal/store"
)

const maxBodyBytes = 1 << 20

// Deps are the collaborators the API serves from.
type Deps struct {
	Catalog        catalog.Provider
	Engine         *scorer.Engine
	Builder        *report.Builder
	Dispatcher     report.Dispatcher
	Sessions       *Sessions
	FromEmail      string
	AllowedOrigins []string
}

// Server holds the API handlers.
type Server struct {
	catalog    catalog.Provider
	engine     *scorer.Engine
	builder    *report.Builder
	dispatcher report.Dispatcher
	sessions   *Sessions
	fromEmail  string
	origins    []string
}

// New creates a Server. Nil collaborators get working defaults: the
// embedded catalog, the canonical engine, a default report builder, a
// logging dispatcher and an in-memory session registry.
func New(d Deps) *Server {
	s := &Server{
		catalog:    d.Catalog,
		engine:     d.Engine,
		builder:    d.Builder,
		dispatcher: d.Dispatcher,
		sessions:   d.Sessions,
		fromEmail:  d.FromEmail,
		origins:    d.AllowedOrigins,
	}
	if s.catalog == nil {
		s.catalog = catalog.DefaultProvider()
	}
	if s.engine == nil {
		s.engine = scorer.NewEngine(scorer.DefaultVariant, nil)
	}
	if s.builder == nil {
		s.builder = report.NewBuilder(s.engine, nil, report.DefaultTopN, report.DefaultHonorableMax)
	}
	if s.dispatcher == nil {
		s.dispatcher = report.LogDispatcher{}
	}
	if s.sessions == nil {
		s.sessions = NewSessions(store.NewMemory(), nil, bumper.DefaultThresholds(), 0)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tools", s.handleTools)
		r.Get("/criteria", s.handleCriteria)
		r.Post("/score", s.handleScore)
		r.Post("/report", s.handleReport)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", s.handleResetSession)
			r.Post("/events", s.handleEvent)
			r.Get("/bumpers", s.handleBumpers)
			r.Get("/guided", s.handleGetGuided)
			r.Put("/guided", s.handlePutGuided)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst
// unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return eris.Wrap(errBadRequest, err.Error())
	}
	return nil
}

var errBadRequest = eris.New("invalid request body")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, bumper.ErrUnknownEvent),
		errors.Is(err, report.ErrInvalidRecipient),
		errors.Is(err, ErrInvalidSession),
		errors.Is(err, scorer.ErrUnknownVariant):
		return http.StatusBadRequest
	case errors.Is(err, bumper.ErrBumperAlreadyOpen):
		return http.StatusConflict
	case errors.Is(err, scorer.ErrNoTools), errors.Is(err, scorer.ErrNoCriteria):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("server: request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
