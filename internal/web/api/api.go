// Package api exposes the generation pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/pipeline"
	"github.com/buildmcp/buildmcp/internal/rules"
	"github.com/buildmcp/buildmcp/internal/store"
	"github.com/buildmcp/buildmcp/internal/web/middleware"
	"github.com/buildmcp/buildmcp/internal/web/ratelimit"
)

// maxBodyBytes bounds request bodies, source text included.
const maxBodyBytes = 1 << 20

// Generator runs the pipeline; *pipeline.Pipeline implements it.
type Generator interface {
	GenerateObserved(ctx context.Context, req model.ServerRequirements, obs pipeline.Observer) (*model.ServerPackage, error)
}

// PackageReader loads stored packages; *store.Store implements it.
type PackageReader interface {
	Get(ctx context.Context, id string) (*model.ServerPackage, error)
}

// Handler serves the v1 API.
type Handler struct {
	generator Generator
	validator *rules.Validator
	packages  PackageReader
	limiter   ratelimit.RateLimiter
	logger    *zap.Logger
	version   string
}

// Option configures a Handler.
type Option func(*Handler)

// WithPackages enables GET /api/v1/packages/{id}.
func WithPackages(r PackageReader) Option {
	return func(h *Handler) { h.packages = r }
}

// WithRateLimiter limits the generation endpoints per client.
func WithRateLimiter(l ratelimit.RateLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

// NewHandler creates the API handler.
func NewHandler(gen Generator, validator *rules.Validator, opts ...Option) *Handler {
	if validator == nil {
		validator = rules.NewValidator(nil)
	}
	h := &Handler{
		generator: gen,
		validator: validator,
		logger:    zap.NewNop(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes builds the router with the standard middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	base := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(h.logger, "/healthz"),
		middleware.Recovery(h.logger),
	)
	r.Use(func(next http.Handler) http.Handler { return base.Then(next) })
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(middleware.RateLimit(h.limiter, h.logger))
			}
			r.Post("/generate", h.generate)
			r.Get("/generate/stream", h.generateStream)
			r.Post("/generate/events", h.generateEvents)
		})
		r.Post("/validate", h.validate)
		r.Get("/rules", h.rules)
		r.Get("/packages/{id}", h.getPackage)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req model.ServerRequirements
	if !decodeBody(w, r, &req) {
		return
	}

	pkg, err := h.generator.GenerateObserved(r.Context(), req, nil)
	if err != nil {
		h.writeGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrInvalidRequirements) {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_requirements", err.Error())
		return
	}
	h.logger.Error("generation failed", zap.String("request_id", middleware.GetRequestID(r.Context())), zap.Error(err))
	middleware.WriteError(w, r, http.StatusInternalServerError, "generation_failed", "generation failed")
}

// ValidateRequest is the body of POST /api/v1/validate.
type ValidateRequest struct {
	SourceText string `json:"source_text"`
	Language   string `json:"language"`
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if !decodeBody(w, r, &body) {
		return
	}
	lang, ok := model.ParseLanguage(body.Language)
	if !ok && body.Language != "" {
		lang = model.Language(body.Language)
	}
	verdict := h.validator.Validate(model.GeneratedArtifact{SourceText: body.SourceText, Language: lang})
	writeJSON(w, http.StatusOK, verdict)
}

// RuleInfo describes one catalog rule.
type RuleInfo struct {
	Name        string             `json:"name"`
	Category    model.RuleCategory `json:"category"`
	Description string             `json:"description"`
}

// RulesResponse is the body of GET /api/v1/rules.
type RulesResponse struct {
	CatalogVersion string     `json:"catalog_version"`
	Rules          []RuleInfo `json:"rules"`
}

func (h *Handler) rules(w http.ResponseWriter, _ *http.Request) {
	catalog := h.validator.Catalog()
	resp := RulesResponse{CatalogVersion: catalog.Version()}
	for _, rule := range catalog.Rules() {
		resp.Rules = append(resp.Rules, RuleInfo{Name: rule.Name, Category: rule.Category, Description: rule.Description})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getPackage(w http.ResponseWriter, r *http.Request) {
	if h.packages == nil {
		middleware.WriteError(w, r, http.StatusServiceUnavailable, "store_disabled", "package storage is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	pkg, err := h.packages.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, r, http.StatusNotFound, "package_not_found", fmt.Sprintf("package %q not found", id))
		return
	}
	if err != nil {
		h.logger.Error("package lookup failed", zap.String("id", id), zap.Error(err))
		middleware.WriteError(w, r, http.StatusInternalServerError, "store_error", "package lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds 1 MiB")
			return false
		}
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
