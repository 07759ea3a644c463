package chi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serprank/internal/domain"
	"github.com/kailas-cloud/serprank/internal/domain/search/query"
	"github.com/kailas-cloud/serprank/internal/domain/search/result"
	"github.com/kailas-cloud/serprank/internal/logger"
	healthuc "github.com/kailas-cloud/serprank/internal/usecase/health"
)

//go:embed templates/*.html
var templateFS embed.FS

// Searcher runs a search and records it.
type Searcher interface {
	Run(ctx context.Context, q query.Query) (result.Outcome, error)
}

// RecordRenderer renders a saved record as HTML.
type RecordRenderer interface {
	Render(ctx context.Context, name string) ([]byte, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorMapping maps a domain sentinel to an HTTP status and error code.
type errorMapping struct {
	sentinel error
	status   int
	code     string
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidQuery, http.StatusBadRequest, "bad_request"},
	{domain.ErrRecordNotFound, http.StatusNotFound, "record_not_found"},
	{domain.ErrNotConfigured, http.StatusServiceUnavailable, "provider_not_configured"},
	{domain.ErrProviderError, http.StatusBadGateway, "search_provider_error"},
}

// Server serves the search form, the JSON search API and saved records.
type Server struct {
	search  Searcher
	records RecordRenderer
	health  HealthChecker
	logger  *zap.Logger
	pages   *template.Template
}

// NewServer creates an HTTP server. Templates are parsed once here.
func NewServer(search Searcher, records RecordRenderer, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		search:  search,
		records: records,
		health:  health,
		logger:  logger,
		pages:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Routes registers all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Form)
	r.Post("/", s.Submit)
	r.Get("/api/v1/search", s.SearchAPI)
	r.Get("/records/{name}", s.Record)
	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)
}

// linkView is a single row of the rendered result list.
type linkView struct {
	Rank  int
	URL   string
	Match bool
}

// formView is the data passed to index.html.
type formView struct {
	Phrase      string
	Website     string
	Submitted   bool
	Results     []linkView
	Matched     bool
	MatchedRank int
	FilePath    string
	RecordName  string
	Error       string
}

// Form handles GET / with an empty form.
func (s *Server) Form(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, "index.html", formView{})
}

// Submit handles POST / with form fields phrase and website.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, "index.html", formView{Error: "invalid form: " + err.Error()})
		return
	}

	view := formView{
		Phrase:  r.PostForm.Get("phrase"),
		Website: r.PostForm.Get("website"),
	}

	out, err := s.search.Run(r.Context(), query.New(view.Phrase, view.Website))
	if err != nil {
		status, _, msg := s.mapError(r.Context(), err)
		view.Error = msg
		s.renderPage(w, status, "index.html", view)
		return
	}

	view.Submitted = true
	view.FilePath = out.FilePath()
	view.RecordName = filepath.Base(out.FilePath())
	view.MatchedRank, view.Matched = out.MatchedRank()
	view.Results = make([]linkView, len(out.Links()))
	for i, l := range out.Links() {
		view.Results[i] = linkView{Rank: l.Rank(), URL: l.URL(), Match: out.IsMatch(l)}
	}

	s.renderPage(w, http.StatusOK, "index.html", view)
}

type searchLink struct {
	Rank  int    `json:"rank"`
	URL   string `json:"url"`
	Match bool   `json:"match,omitempty"`
}

type searchResponse struct {
	Phrase      string       `json:"phrase"`
	Website     string       `json:"website,omitempty"`
	Results     []searchLink `json:"results"`
	MatchedRank *int         `json:"matched_rank"`
	File        string       `json:"file"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchAPI handles GET /api/v1/search?phrase=...&website=...
func (s *Server) SearchAPI(w http.ResponseWriter, r *http.Request) {
	var (
		phrase  string
		website *string
	)
	params := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "phrase", params, &phrase); err != nil {
		s.writeDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err))
		return
	}
	if phrase == "" {
		s.writeDomainError(w, r, fmt.Errorf("%w: phrase must not be empty", domain.ErrInvalidQuery))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "website", params, &website); err != nil {
		s.writeDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err))
		return
	}

	q := query.New(phrase, "")
	if website != nil {
		q = query.New(phrase, *website)
	}

	out, err := s.search.Run(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := searchResponse{
		Phrase:  q.Phrase(),
		Website: q.Website(),
		Results: make([]searchLink, len(out.Links())),
		File:    out.FilePath(),
	}
	for i, l := range out.Links() {
		resp.Results[i] = searchLink{Rank: l.Rank(), URL: l.URL(), Match: out.IsMatch(l)}
	}
	if rank, ok := out.MatchedRank(); ok {
		resp.MatchedRank = &rank
	}

	writeJSON(w, http.StatusOK, resp)
}

type recordView struct {
	Name    string
	Content template.HTML
}

// Record handles GET /records/{name}.
func (s *Server) Record(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	content, err := s.records.Render(r.Context(), name)
	if err != nil {
		status, _, msg := s.mapError(r.Context(), err)
		http.Error(w, msg, status)
		return
	}

	//nolint:gosec // rendered from our own markdown with raw HTML skipped
	s.renderPage(w, http.StatusOK, "record.html", recordView{Name: name, Content: template.HTML(content)})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	resp := healthResponse{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for k, v := range report.Checks {
		resp.Checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", zap.String("template", name), zap.Error(err))
	}
}

// mapError resolves err to a status, code and client-facing message.
// Unmapped errors are logged and reported as internal errors.
func (s *Server) mapError(ctx context.Context, err error) (int, string, string) {
	log := logger.FromContext(ctx)
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			log.Warn("domain error", zap.Error(err))
			return m.status, m.code, err.Error()
		}
	}
	log.Error("internal error", zap.Error(err))
	return http.StatusInternalServerError, "internal_error", "internal error"
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := s.mapError(r.Context(), err)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
