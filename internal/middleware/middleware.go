// Package middleware holds the chi middleware shared by the API and web routers.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// HeaderRequestID is echoed on every response.
const HeaderRequestID = "X-Request-ID"

// IDGenerator produces request IDs.
type IDGenerator interface {
	MustID() string
}

type requestIDKey struct{}

// RequestID tags each request with a generated ID, available via RequestIDFrom.
func RequestID(ids IDGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := ids.MustID()
			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
			w.Header().Set(HeaderRequestID, reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom returns the request ID stored by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logging writes one structured line per completed request.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", RequestIDFrom(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// Recover converts handler panics into a JSON 500.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.String("request_id", RequestIDFrom(r.Context())),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// OriginPolicy decides which browser origins may call the API.
type OriginPolicy struct {
	AllowLocalhost bool
	AllowedDomains []string
}

var localhostOrigin = regexp.MustCompile(`localhost:\d+$`)

// Allows reports whether origin passes the policy. An empty origin means a
// non-browser client and is always allowed.
func (p OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	if p.AllowLocalhost && localhostOrigin.MatchString(origin) {
		return true
	}
	for _, domain := range p.AllowedDomains {
		if domain != "" && strings.HasSuffix(origin, domain) {
			return true
		}
	}
	return false
}

// CORS applies the origin policy. Rejected origins get no CORS headers, so the
// browser refuses the response while non-browser clients are unaffected.
func CORS(policy OriginPolicy) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return policy.Allows(origin)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-API-Key", "X-Lang"},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         300,
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
