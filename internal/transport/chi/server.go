// Package chi exposes the ask and document APIs over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	logpkg "github.com/kailas-cloud/ragcore/internal/logger"
	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
)

const maxBodyBytes = 16 << 20

// Server holds the HTTP handlers of the API.
type Server struct {
	ask           Asker
	documents     DocumentService
	health        HealthReporter
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(ask Asker, documents DocumentService, health HealthReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Server{
		ask:           ask,
		documents:     documents,
		health:        health,
		validate:      v,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1/projects/{projectID}", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/documents", s.CreateDocument)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{documentID}", s.GetDocument)
		r.Post("/documents/{documentID}/ingest", s.IngestDocument)
	})
}

// Ask handles POST /v1/projects/{projectID}/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.pathParam(w, r, "projectID")
	if !ok {
		return
	}
	var req AskRequest
	if !s.decode(w, r, &req) {
		return
	}

	topK := 0
	if req.TopK != nil {
		topK = *req.TopK
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.ask.Ask(ctx, askuc.Request{ProjectID: projectID, Question: req.Question, TopK: topK})
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if res.Outcome == answer.InsufficientContext {
		writeError(w, http.StatusUnprocessableEntity, CodeInsufficientContext, res.Text)
		return
	}
	writeJSON(w, http.StatusOK, askToResponse(res))
}

// CreateDocument handles POST /v1/projects/{projectID}/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.pathParam(w, r, "projectID")
	if !ok {
		return
	}
	var req CreateDocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	doc, err := s.documents.Register(r.Context(), documentuc.RegisterRequest{
		ProjectID:    projectID,
		TenantID:     req.TenantID,
		OriginalName: req.OriginalName,
		MimeType:     req.MimeType,
		Locator:      req.Locator,
		SizeBytes:    req.SizeBytes,
		Content:      []byte(req.Content),
	})
	queued := true
	if err != nil {
		if doc.ID() == "" || !errors.Is(err, domain.ErrQueueFull) {
			s.handleDomainError(w, r, err)
			return
		}
		logpkg.FromContext(r.Context(), s.logger).Warn("document registered without ingestion",
			zap.String("document_id", doc.ID()), zap.Error(err))
		queued = false
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/projects/%s/documents/%s", projectID, doc.ID()))
	writeJSON(w, http.StatusAccepted, CreateDocumentResponse{
		DocumentResponse: documentToResponse(&doc),
		Queued:           queued,
	})
}

// ListDocuments handles GET /v1/projects/{projectID}/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.pathParam(w, r, "projectID")
	if !ok {
		return
	}
	var status *string
	if err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &status); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter status: "+err.Error())
		return
	}
	var want domdoc.Status
	if status != nil {
		parsed, err := domdoc.ParseStatus(*status)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		want = parsed
	}

	docs, err := s.documents.List(r.Context(), projectID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		if want != "" && docs[i].Status() != want {
			continue
		}
		items = append(items, documentToResponse(&docs[i]))
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Items: items, Count: len(items)})
}

// GetDocument handles GET /v1/projects/{projectID}/documents/{documentID}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.pathParam(w, r, "projectID")
	if !ok {
		return
	}
	documentID, ok := s.pathParam(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := s.documents.Get(r.Context(), projectID, documentID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// IngestDocument handles POST /v1/projects/{projectID}/documents/{documentID}/ingest.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.pathParam(w, r, "projectID")
	if !ok {
		return
	}
	documentID, ok := s.pathParam(w, r, "documentID")
	if !ok {
		return
	}

	if err := s.documents.Ingest(r.Context(), projectID, documentID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "document_id": documentID})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || strings.TrimSpace(v) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter %s", name))
		return "", false
	}
	return v, true
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.RequestUsage) {
	if usage == nil {
		return
	}
	if usage.Embedded {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.Generated {
		w.Header().Set("X-Prompt-Tokens", strconv.Itoa(usage.PromptTokens))
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		OK:      false,
		Code:    code,
		Message: message,
	})
}
