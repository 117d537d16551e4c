package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-helper/internal/analysis"
	"github.com/JakeFAU/news-helper/internal/auth"
	"github.com/JakeFAU/news-helper/internal/config"
	"github.com/JakeFAU/news-helper/internal/metrics"
	"github.com/JakeFAU/news-helper/internal/middleware"
)

// HeaderLang selects the response language.
const HeaderLang = "X-Lang"

// maxBodyBytes caps analyze request bodies.
const maxBodyBytes = 1 << 20

// Server wires HTTP handlers to the analysis renderer.
type Server struct {
	router   chi.Router
	authz    auth.Authorizer
	logger   *zap.Logger
	frontend http.Handler
	noAPI    bool
}

// Option customizes a Server.
type Option func(*Server)

// WithFrontend mounts h at the root path.
func WithFrontend(h http.Handler) Option {
	return func(s *Server) {
		s.frontend = h
	}
}

// FrontendOnly skips the /api routes, for a frontend that talks to a remote API.
func FrontendOnly() Option {
	return func(s *Server) {
		s.noAPI = true
	}
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	cfg config.Config,
	authz auth.Authorizer,
	ids middleware.IDGenerator,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		authz:  authz,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.Init()

	r := chi.NewRouter()
	r.Use(middleware.RequestID(ids))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(middleware.OriginPolicy{
		AllowLocalhost: cfg.CORS.AllowLocalhost,
		AllowedDomains: cfg.CORS.AllowedDomains,
	}))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if !s.noAPI {
		r.Route("/api", func(r chi.Router) {
			r.With(auth.Middleware(authz, s.unauthorized)).Post("/analyze", s.analyze)
		})
	}
	if s.frontend != nil {
		r.Mount("/", s.frontend)
	}

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Nothing downstream to check; the service is stateless.
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type analyzeRequest struct {
	URL  *string `json:"url"`
	Mode *string `json:"mode"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	lang := analysis.ParseLanguage(r.Header.Get(HeaderLang))

	req, err := decodeAnalyzeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Debug("rejecting analyze body",
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err),
		)
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	articleURL := ""
	if req.URL != nil {
		articleURL = *req.URL
	}
	result := analysis.Render(analysis.Request{
		URL:      articleURL,
		Mode:     analysis.ResolveMode(req.Mode),
		Language: lang,
	})
	metrics.ObserveAnalyze(lang.Code())
	s.writeJSON(w, http.StatusOK, result)
}

var errTrailingData = errors.New("unexpected data after JSON body")

// decodeAnalyzeRequest treats an empty or null body as an empty object. The
// body must hold exactly one JSON value.
func decodeAnalyzeRequest(body io.Reader) (analyzeRequest, error) {
	var req analyzeRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return analyzeRequest{}, nil
		}
		return analyzeRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return analyzeRequest{}, errTrailingData
	}
	return req, nil
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, reason error) {
	label := "invalid"
	if errors.Is(reason, auth.ErrMissingKey) {
		label = "missing"
	}
	metrics.ObserveAuthFailure(label)
	s.logger.Info("analyze request rejected",
		zap.String("request_id", middleware.RequestIDFrom(r.Context())),
		zap.String("reason", label),
	)
	s.writeError(w, http.StatusUnauthorized, "unauthorized")
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
