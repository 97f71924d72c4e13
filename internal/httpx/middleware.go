package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/log"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one is outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// SecurityHeaders selects the security headers added to every response.
type SecurityHeaders struct {
	ContentTypeOptions    bool   // X-Content-Type-Options: nosniff
	FrameOptions          bool   // X-Frame-Options: DENY
	ReferrerPolicy        bool   // Referrer-Policy: no-referrer
	StrictTransportSec    bool   // Strict-Transport-Security (HSTS)
	HSTSMaxAge            int    // Max age for HSTS in seconds
	ContentSecurityPolicy string // Optional CSP header
}

// DefaultSecurityHeaders returns security headers with sensible defaults.
// HSTS is off; it belongs at the load balancer.
func DefaultSecurityHeaders() SecurityHeaders {
	return SecurityHeaders{
		ContentTypeOptions: true,
		FrameOptions:       true,
		ReferrerPolicy:     true,
		HSTSMaxAge:         31536000,
	}
}

// SecureMiddleware adds security headers to responses.
func SecureMiddleware(headers SecurityHeaders) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if headers.ContentTypeOptions {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if headers.FrameOptions {
				h.Set("X-Frame-Options", "DENY")
			}
			if headers.ReferrerPolicy {
				h.Set("Referrer-Policy", "no-referrer")
			}
			if headers.StrictTransportSec {
				h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", headers.HSTSMaxAge))
			}
			if headers.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", headers.ContentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSOptions configures CORS behavior.
type CORSOptions struct {
	AllowedOrigins []string // Allowed origins; "*" allows any
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         int // Preflight cache duration in seconds
}

// DefaultCORSOptions allows read-only cross-origin use of the API.
func DefaultCORSOptions() CORSOptions {
	return CORSOptions{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", RequestIDHeader},
		MaxAge:         3600,
	}
}

// CORSMiddleware adds CORS headers for allowed origins and answers preflight requests.
func CORSMiddleware(opts CORSOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applyCORSHeaders(w, r, opts)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func applyCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	wildcard := false
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			wildcard = true
			allowed = true
			break
		}
		if o == origin {
			allowed = true
		}
	}
	if !allowed || origin == "" && !wildcard {
		return
	}

	h := w.Header()
	if wildcard {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
	if len(opts.AllowedMethods) > 0 {
		h.Set("Access-Control-Allow-Methods", strings.Join(opts.AllowedMethods, ", "))
	}
	if len(opts.AllowedHeaders) > 0 {
		h.Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ", "))
	}
	if len(opts.ExposedHeaders) > 0 {
		h.Set("Access-Control-Expose-Headers", strings.Join(opts.ExposedHeaders, ", "))
	}
	if opts.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
	}
}

// statusRecorder captures the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLen = 128

// RequestIDMiddleware echoes the caller's request id, or assigns a new one, and
// stores it in the request context as the request_id log field.
func RequestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			ctx := log.NewContext(r.Context(), log.Str("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs one line per request with the context's fields.
// Requests slower than slow log at Warn.
func LoggingMiddleware(base log.Logger, slow time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.FromContext(r.Context(), base)
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)
			kv := []any{
				log.Str("method", r.Method),
				log.Str("path", r.URL.Path),
				log.Int("status", rec.status),
				log.Int("bytes", rec.bytes),
				log.Dur("duration_ms", elapsed),
			}
			switch {
			case slow > 0 && elapsed > slow:
				logger.Warn("slow request", kv...)
			case rec.status >= http.StatusInternalServerError:
				logger.Warn("request failed", kv...)
			default:
				logger.Info("request completed", kv...)
			}
		})
	}
}

// RecoveryMiddleware converts a handler panic into a 500 JSON response.
func RecoveryMiddleware(base log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					log.FromContext(r.Context(), base).Error(nil, "panic recovered",
						log.Str("panic", fmt.Sprintf("%v", rv)),
						log.Str("path", r.URL.Path))
					_ = WriteError(w, errors.New(errors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
