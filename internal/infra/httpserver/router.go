package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appverdicts "github.com/bryanwahyu/gradebench/internal/application/verdicts"
	"github.com/bryanwahyu/gradebench/internal/infra/ledger"
	"github.com/bryanwahyu/gradebench/internal/infra/ratelimit"
	"github.com/bryanwahyu/gradebench/internal/middleware"
)

// Options configures the HTTP API.
type Options struct {
	LogPath        string
	ReportPath     string
	ResponsesDir   string
	APIKeys        map[string]string
	AllowedOrigins []string
	Limiter        *ratelimit.Limiter
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	verdicts *appverdicts.Service
	opts     Options
}

// badRequest marks client errors
type badRequest struct{ error }

func NewRouter(svc *appverdicts.Service, opts Options) http.Handler {
	r := &Router{verdicts: svc, opts: opts}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.Limiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/collect", r.wrap(r.handleCollect))
		rt.Post("/group", r.wrap(r.handleGroup))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Get("/verdicts", r.wrap(r.handleVerdicts))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequest
			switch {
			case errors.As(err, &br):
				http.Error(w, br.Error(), http.StatusBadRequest)
			case errors.Is(err, appverdicts.ErrLogNotFound), errors.Is(err, os.ErrNotExist):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, appverdicts.ErrNoRepository):
				http.Error(w, err.Error(), http.StatusNotImplemented)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/collect
// Body: {"directory": "Grading default"}, relative to the responses root.
func (r *Router) handleCollect(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Directory string `json:"directory"`
	}
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<20)).Decode(&body); err != nil {
		return badRequest{err}
	}
	dir, err := middleware.ResolveUnder(r.opts.ResponsesDir, middleware.SanitizeString(body.Directory))
	if err != nil {
		return badRequest{err}
	}

	res, err := r.verdicts.Collect(req.Context(), dir, r.opts.LogPath)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// POST /v1/group
func (r *Router) handleGroup(w http.ResponseWriter, req *http.Request) error {
	res, err := r.verdicts.Group(req.Context(), r.opts.LogPath, r.opts.ReportPath)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /v1/summary?format=table
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	summaries, err := r.verdicts.Summary(req.Context(), r.opts.LogPath)
	if err != nil {
		return err
	}
	if req.URL.Query().Get("format") != "table" {
		return writeJSON(w, summaries)
	}

	var buf bytes.Buffer
	if err := ledger.WriteSummaryTable(&buf, summaries); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err = w.Write(buf.Bytes())
	return err
}

// GET /v1/verdicts?directory=&limit=
func (r *Router) handleVerdicts(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	directory := middleware.SanitizeString(q.Get("directory"))
	if directory == "" {
		return badRequest{errors.New("directory is required")}
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	list, err := r.verdicts.Verdicts(req.Context(), directory, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}
