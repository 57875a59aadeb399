// Package http serves the ironflow API over HTTP. Requests to the routes of
// the embedded OpenAPI document are validated against it before they reach a
// handler.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"github.com/aretw0/ironflow"
	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/internal/service"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/aretw0/ironflow/pkg/session"
)

//go:embed openapi.yaml
var rawSpec []byte

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// Server handles the API routes.
type Server struct {
	Service *service.Service
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc *service.Service, opts ...Option) (http.Handler, error) {
	s := &Server{Service: svc, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	swagger, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	router, err := legacyrouter.NewRouter(swagger)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.validate(router))
		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/templates", s.ListTemplates)
		r.Get("/templates/{id}", s.GetTemplate)
		r.Post("/connections/check", s.CheckConnection)
		r.Post("/recommendations", s.Recommend)
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{id}", s.GetSession)
		r.Put("/sessions/{id}", s.PutSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
		r.Get("/sessions/{id}/scripts/{script}/graph", s.GetGraph)
		r.Get("/sessions/{id}/scripts/{script}/description", s.DescribeFlow)
	})
	return r, nil
}

// validate rejects requests that do not match the OpenAPI document.
func (s *Server) validate(router routers.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				status := http.StatusNotFound
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					status = http.StatusMethodNotAllowed
				}
				writeError(w, status, err)
				return
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
				writeError(w, http.StatusBadRequest, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write([]byte(body))
}

// statusOf maps domain errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ports.ErrTemplateNotFound),
		errors.Is(err, service.ErrUnknownPort),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, session.ErrScriptIndex):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err)
}

func pathParam(r *http.Request, name string, dest any) error {
	return runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ironflow-http",
		"version":     ironflow.Version,
		"api_version": apiVersion,
	})
}

// ListTemplates handles GET /templates.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	var group string
	if err := runtime.BindQueryParameter("form", true, false, "group", r.URL.Query(), &group); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Service.Templates(group))
}

// GetTemplate handles GET /templates/{id}.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := pathParam(r, "id", &id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	info, err := s.Service.Template(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type checkRequest struct {
	Output service.PortRef `json:"output"`
	Input  service.PortRef `json:"input"`
}

// CheckConnection handles POST /connections/check.
func (s *Server) CheckConnection(w http.ResponseWriter, r *http.Request) {
	var body checkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.Service.CheckConnection(body.Output, body.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type recommendRequest struct {
	Port service.PortRef `json:"port"`
	Side service.Side    `json:"side"`
}

// Recommend handles POST /recommendations.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var body recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	recs, err := s.Service.Recommend(body.Port, body.Side)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.Service.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := pathParam(r, "id", &id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, err := s.Service.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// PutSession handles PUT /sessions/{id}.
func (s *Server) PutSession(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := pathParam(r, "id", &id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := s.Service.SaveSession(r.Context(), id, &doc)
	switch {
	case errors.Is(err, service.ErrInvalidSession):
		writeJSON(w, http.StatusUnprocessableEntity, report)
	case err != nil:
		s.fail(w, r, err)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := pathParam(r, "id", &id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Service.DeleteSession(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func scriptParams(r *http.Request) (id string, script int, err error) {
	if err = pathParam(r, "id", &id); err != nil {
		return
	}
	err = pathParam(r, "script", &script)
	return
}

// GetGraph handles GET /sessions/{id}/scripts/{script}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	id, script, err := scriptParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mermaid, err := s.Service.Graph(r.Context(), id, script)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, "text/plain", mermaid)
}

// DescribeFlow handles GET /sessions/{id}/scripts/{script}/description.
func (s *Server) DescribeFlow(w http.ResponseWriter, r *http.Request) {
	id, script, err := scriptParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	md, err := s.Service.DescribeFlow(r.Context(), id, script)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, "text/markdown", md)
}
