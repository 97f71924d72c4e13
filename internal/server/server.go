// Package server exposes project generation over HTTP.
//
// Overview:
//   - Responsibility: Serve the extension registry and zip downloads of generated projects,
//     cache archives, export metrics, shut down gracefully
//   - Key Types: Options, Server, DownloadRequest
//   - Concurrency Model: Requests generate in parallel over one read-only catalog; identical
//     in-flight downloads share one generation; the archive cache is safe for concurrent use
//   - Error Semantics: Coded errors become JSON {error, message, details}; 400 for request
//     mistakes, 500 otherwise
//   - Performance Notes: Archives are cached by resolved request, so repeats skip rendering
//
// Usage:
//
//	srv, err := server.New(cat, server.Options{Addr: ":8080", Logger: logger})
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server

import (
	"bytes"
	"context"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"go.eggybyte.com/codestart/internal/catalog"
	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/configschema"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/generator"
	"go.eggybyte.com/codestart/internal/httpx"
	"go.eggybyte.com/codestart/internal/log"
	"go.eggybyte.com/codestart/internal/obsx"
	"go.eggybyte.com/codestart/internal/resolver"
)

// Defaults for download requests that omit coordinates.
const (
	DefaultGroupID    = "org.acme"
	DefaultArtifactID = "code-with-quarkus"
)

// Options configures a Server.
type Options struct {
	Addr            string        // Listen address, default ":8080"
	CacheSize       int           // Archive cache entries, default 256; negative disables caching
	ShutdownTimeout time.Duration // Graceful shutdown bound, default 15s
	SlowRequest     time.Duration // Requests slower than this log at Warn, default 1s
	Logger          log.Logger
	ErrorLog        *stdlog.Logger // Optional; receives net/http's own connection errors
	Metrics         *obsx.Provider // Optional; enables /metrics and generation counters
}

func (o *Options) applyDefaults() {
	if o.Addr == "" {
		o.Addr = ":8080"
	}
	if o.CacheSize == 0 {
		o.CacheSize = 256
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 15 * time.Second
	}
	if o.SlowRequest == 0 {
		o.SlowRequest = time.Second
	}
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
}

// Server serves generation requests.
type Server struct {
	opts      Options
	catalog   *catalog.Catalog
	generator *generator.Generator
	logger    log.Logger
	cache     *lru.Cache[string, []byte]
	inflight  singleflight.Group
	metrics   *obsx.GenerationMetrics
	handler   http.Handler
}

// DownloadRequest is the JSON body accepted by POST /api/download.
type DownloadRequest struct {
	GroupID    string             `json:"groupId"`
	ArtifactID string             `json:"artifactId"`
	Version    string             `json:"version"`
	BuildTool  string             `json:"buildTool"`
	Language   string             `json:"language"`
	Extensions []string           `json:"extensions" validate:"dive,required"`
	Platform   codestart.Platform `json:"platform"`
}

// New builds a Server over cat.
//
// Parameters:
//   - cat: Loaded catalog shared by every request
//   - opts: Listen address, cache size, logger and optional metrics provider
//
// Returns:
//   - *Server: Server ready to Run or to mount through Handler
//   - error: Cache or metric instrument creation failure
//
// Concurrency:
//   - Safe for concurrent use once built
//
// Performance:
//   - Allocates the archive cache up front
func New(cat *catalog.Catalog, opts Options) (*Server, error) {
	opts.applyDefaults()

	s := &Server{
		opts:      opts,
		catalog:   cat,
		generator: generator.New(cat, generator.WithLogger(opts.Logger)),
		logger:    opts.Logger,
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []byte](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive cache: %w", err)
		}
		s.cache = cache
	}

	if opts.Metrics != nil {
		metrics, err := obsx.NewGenerationMetrics(opts.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create generation metrics: %w", err)
		}
		s.metrics = metrics
		if s.cache != nil {
			if err := obsx.ObserveCache(opts.Metrics, s.cache.Len); err != nil {
				return nil, err
			}
		}
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/extensions", s.handleExtensions)
	mux.HandleFunc("GET /api/download", s.handleDownloadQuery)
	mux.HandleFunc("POST /api/download", s.handleDownloadJSON)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	for _, path := range []string{"/api/extensions", "/api/download", "/healthz"} {
		mux.Handle(path, httpx.MethodNotAllowedHandler())
	}
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics.Handler())
	}
	mux.Handle("/", httpx.NotFoundHandler())

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware(),
		httpx.RecoveryMiddleware(s.logger),
		httpx.LoggingMiddleware(s.logger, s.opts.SlowRequest),
		httpx.SecureMiddleware(httpx.DefaultSecurityHeaders()),
		httpx.CORSMiddleware(httpx.DefaultCORSOptions()),
	)
}

// Run listens on opts.Addr and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(errors.CodeIOError, "server.Run", err, "listen on %s", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then drains in-flight requests
// within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.opts.ErrorLog,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("server started", log.Str("addr", ln.Addr().String()), log.Int("extensions", len(s.catalog.Extensions())))

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			return errors.Wrap(errors.CodeIOError, "server.Serve", err)
		}
		return nil
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error(err, "failed to shutdown HTTP server")
		return errors.Wrap(errors.CodeIOError, "server.Shutdown", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

func (s *Server) handleExtensions(w http.ResponseWriter, r *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, s.catalog.Extensions())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"codestarts": s.catalog.Len(),
	})
}

// handleDownloadQuery accepts g, a, v, b, l and e (repeatable or comma separated).
func (s *Server) handleDownloadQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := codestart.ProjectRequest{
		GroupID:    q.Get("g"),
		ArtifactID: q.Get("a"),
		Version:    q.Get("v"),
		BuildTool:  q.Get("b"),
		Language:   q.Get("l"),
		Extensions: configschema.SplitList(q["e"]),
	}
	s.download(w, r, req)
}

func (s *Server) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	var body DownloadRequest
	if err := httpx.BindAndValidate(r, &body); err != nil {
		_ = httpx.WriteError(w, err)
		return
	}
	s.download(w, r, codestart.ProjectRequest{
		GroupID:    body.GroupID,
		ArtifactID: body.ArtifactID,
		Version:    body.Version,
		BuildTool:  body.BuildTool,
		Language:   body.Language,
		Extensions: body.Extensions,
		Platform:   body.Platform,
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, req codestart.ProjectRequest) {
	if req.GroupID == "" {
		req.GroupID = DefaultGroupID
	}
	if req.ArtifactID == "" {
		req.ArtifactID = DefaultArtifactID
	}
	req = req.WithDefaults()

	archive, err := s.archive(r.Context(), req)
	if err != nil {
		_ = httpx.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.ArtifactID+".zip"))
	w.Header().Set("Content-Length", fmt.Sprint(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// archive returns the zip for req from cache or by generating it once for all
// concurrent callers with the same key.
func (s *Server) archive(ctx context.Context, req codestart.ProjectRequest) ([]byte, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.record(ctx, obsx.ResultError, s.knownLabels(req), start)
		return nil, err
	}
	plan, err := resolver.Resolve(s.catalog, req)
	if err != nil {
		s.record(ctx, obsx.ResultError, s.knownLabels(req), start)
		return nil, err
	}
	key := cacheKey(plan)

	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			if s.metrics != nil {
				s.metrics.RecordCacheHit(ctx)
			}
			log.FromContext(ctx, s.logger).Debug("archive served from cache", log.Str("artifact_id", req.ArtifactID))
			return data, nil
		}
	}

	v, err, _ := s.inflight.Do(key, func() (any, error) {
		// Other callers may be waiting on this key; one canceled caller must not fail them.
		genCtx := context.WithoutCancel(ctx)
		project, err := s.generator.Generate(genCtx, plan.Request)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := s.generator.Archive(genCtx, project, &buf); err != nil {
			return nil, err
		}
		data := buf.Bytes()
		if s.cache != nil {
			s.cache.Add(key, data)
		}
		return data, nil
	})
	if err != nil {
		s.record(ctx, obsx.ResultError, plan.Request, start)
		return nil, err
	}

	s.record(ctx, obsx.ResultSuccess, plan.Request, start)
	return v.([]byte), nil
}

func (s *Server) record(ctx context.Context, result string, req codestart.ProjectRequest, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGeneration(ctx, result, req.BuildTool, req.Language, time.Since(start))
}

// knownLabels replaces build tool and language ids missing from the catalog with
// "unknown" to keep metric label cardinality bounded.
func (s *Server) knownLabels(req codestart.ProjectRequest) codestart.ProjectRequest {
	if _, ok := s.catalog.LookupKind(codestart.KindBuildTool, req.BuildTool); !ok {
		req.BuildTool = "unknown"
	}
	if _, ok := s.catalog.LookupKind(codestart.KindLanguage, req.Language); !ok {
		req.Language = "unknown"
	}
	return req
}

// cacheKey identifies everything that influences the generated archive.
func cacheKey(plan *resolver.Plan) string {
	req := plan.Request
	parts := []string{
		req.GroupID, req.ArtifactID, req.Version, req.BuildTool, req.Language, req.Platform.String(),
		strings.Join(plan.IDs(), ","),
	}
	return strings.Join(parts, "|")
}
