// Package web serves the form frontend. Submissions are forwarded to the analyze
// API with the internal client and the outcome is rendered as an HTML fragment,
// either inline in the page or on its own for the page script.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-helper/internal/analysis"
	"github.com/JakeFAU/news-helper/internal/client"
	"github.com/JakeFAU/news-helper/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Analyzer submits one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, in client.Input) (*client.Response, error)
}

// AnalyzerFactory returns an Analyzer bound to an absolute API base URL.
type AnalyzerFactory func(baseURL string) Analyzer

// DefaultOrigin anchors a relative APIBase when Config.Origin is empty.
const DefaultOrigin = "http://127.0.0.1:8787"

// Config controls the frontend.
type Config struct {
	// APIBase is the analyze API root. A relative value such as "/api" is
	// joined to Origin.
	APIBase string
	// Origin is the server-side origin for a relative APIBase, normally the
	// loopback address of this process's own listener. Request headers are
	// never consulted.
	Origin string
	// DefaultLang preselects the language option.
	DefaultLang string
}

// Handler serves the form page and its submissions.
type Handler struct {
	cfg        Config
	logger     *zap.Logger
	apiBase    string
	newAnalyze AnalyzerFactory
	analyzer   Analyzer
	router     chi.Router
}

// Option customizes a Handler.
type Option func(*Handler)

// WithAnalyzerFactory overrides how API clients are built.
func WithAnalyzerFactory(f AnalyzerFactory) Option {
	return func(h *Handler) {
		h.newAnalyze = f
	}
}

// WithHTTPClient builds API clients on top of hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(h *Handler) {
		h.newAnalyze = func(base string) Analyzer { return client.New(base, hc) }
	}
}

// NewHandler constructs the frontend handler.
func NewHandler(cfg Config, logger *zap.Logger, opts ...Option) *Handler {
	if cfg.APIBase == "" {
		cfg.APIBase = "/api"
	}
	if cfg.Origin == "" {
		cfg.Origin = DefaultOrigin
	}
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = analysis.English.Code()
	}
	h := &Handler{
		cfg:        cfg,
		logger:     logger,
		apiBase:    ResolveAPIBase(cfg.APIBase, cfg.Origin),
		newAnalyze: func(base string) Analyzer { return client.New(base, nil) },
	}
	for _, opt := range opts {
		opt(h)
	}
	h.analyzer = h.newAnalyze(h.apiBase)

	r := chi.NewRouter()
	r.Get("/", h.page)
	r.Post("/", h.submitPage)
	r.Post("/analyze", h.submitFragment)
	h.router = r
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type pageData struct {
	Form   client.Input
	Modes  []analysis.Mode
	Langs  []string
	Result template.HTML
}

func (h *Handler) page(w http.ResponseWriter, _ *http.Request) {
	h.renderPage(w, pageData{
		Form: client.Input{Mode: string(analysis.DefaultMode), Lang: h.cfg.DefaultLang},
	})
}

func (h *Handler) submitPage(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readForm(w, r)
	if !ok {
		return
	}
	fragment := h.analyze(r, in)
	h.renderPage(w, pageData{Form: in, Result: fragment})
}

func (h *Handler) submitFragment(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readForm(w, r)
	if !ok {
		return
	}
	fragment := h.analyze(r, in)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(fragment)); err != nil {
		h.logger.Warn("write fragment failed", zap.Error(err))
	}
}

func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (client.Input, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return client.Input{}, false
	}
	return FormInput(r.PostForm), true
}

// FormInput reads the submission. Absent mode and lang fall back to "summary"
// and "en"; absent url and key become "". Present but empty values are kept.
func FormInput(form url.Values) client.Input {
	return client.Input{
		URL:  formValue(form, "url", ""),
		Mode: formValue(form, "mode", string(analysis.DefaultMode)),
		Lang: formValue(form, "lang", analysis.English.Code()),
		Key:  formValue(form, "key", ""),
	}
}

func formValue(form url.Values, key, def string) string {
	if values, ok := form[key]; ok && len(values) > 0 {
		return values[0]
	}
	return def
}

func (h *Handler) analyze(r *http.Request, in client.Input) template.HTML {
	resp, err := h.analyzer.Analyze(r.Context(), in)
	fragment, outcome := RenderOutcome(resp, err)
	metrics.ObserveWebSubmission(string(outcome))
	if err != nil {
		h.logger.Info("analyze submission failed",
			zap.String("outcome", string(outcome)),
			zap.String("api_base", h.apiBase),
			zap.Error(err),
		)
	}
	return fragment
}

// APIBase returns the absolute API root submissions are sent to.
func (h *Handler) APIBase() string {
	return h.apiBase
}

// ResolveAPIBase joins a relative base to origin. Absolute bases are returned
// unchanged.
func ResolveAPIBase(base, origin string) string {
	if u, err := url.Parse(base); err == nil && u.IsAbs() {
		return base
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(origin, "/") + base
}

func (h *Handler) renderPage(w http.ResponseWriter, data pageData) {
	data.Modes = analysis.Modes()
	data.Langs = []string{analysis.English.Code(), analysis.Spanish.Code()}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.Error("render page failed", zap.Error(err))
	}
}
