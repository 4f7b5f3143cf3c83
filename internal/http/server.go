// Package http exposes the invoice service as a JSON API.
package http

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"fatture/internal/cache"
	"fatture/internal/invoices"
	"fatture/internal/log"
	"fatture/internal/middleware/ratelimit"
	"fatture/internal/middleware/security"
	"fatture/internal/middleware/trace"
)

const (
	cacheEntries       = 256
	cacheSweepInterval = time.Minute
)

// ReadyFunc reports whether backing stores are reachable.
type ReadyFunc func(ctx context.Context) error

type Options struct {
	Logger   *log.Logger
	CacheTTL time.Duration
	Ready    ReadyFunc
	// RateLimit is the number of write requests allowed per client per minute.
	RateLimit int
	// TrustedProxies are CIDRs allowed to set the client address via
	// forwarding headers.
	TrustedProxies []string
}

type Server struct {
	http.Server

	svc      *invoices.Service
	logger   *log.Logger
	ready    ReadyFunc
	cache    *cache.LRUCache[cachedResponse]
	caches   *cache.Manager

	// cacheMu orders purges against stores; generation counts purges so a
	// read that started before a write never repopulates the cache.
	cacheMu    sync.Mutex
	generation uint64

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

type cachedResponse struct {
	contentType string
	body        []byte
}

// NewServer builds the router. Background maintenance is started with Run.
func NewServer(addr string, svc *invoices.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limits := ratelimit.DefaultConfig()
	if opts.RateLimit > 0 {
		limits.RequestsPerMinute = opts.RateLimit
	}

	s := &Server{
		svc:      svc,
		logger:   logger,
		ready:    opts.Ready,
		cache:    cache.NewLRUCache[cachedResponse](cacheEntries, opts.CacheTTL),
		caches:   cache.NewManager(logger),
		limiter:  ratelimit.NewLimiter(limits),
		detector: security.NewDetector(logger),
	}
	s.caches.Register(s.cache)
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	svc.OnChange(s.invalidateCache)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(trace.LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	limitLog := logger.WithComponent(log.ComponentRateLimit)
	r.Use(s.limiter.Middleware(limits.Methods, s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		limitLog.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, please try again later")
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/stats", s.cached(s.handleStats))
	r.With(security.NoStore).Get("/export.xlsx", s.handleExport)

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", s.cached(s.handleListInvoices))
		r.Post("/", s.handleCreateInvoice)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetInvoice)
			r.Put("/", s.handleUpdateInvoice)
			r.Delete("/", s.handleDeleteInvoice)
			r.With(security.NoStore).Get("/pdf", s.handleInvoicePDF)

			r.Post("/attachments", s.handleUploadAttachment)
			r.With(security.NoStore).Get("/attachments/{attachmentID}", s.handleGetAttachment)
			r.Delete("/attachments/{attachmentID}", s.handleDeleteAttachment)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Run performs cache and rate limiter housekeeping until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.limiter.Run(ctx) })
	g.Go(func() error { return s.caches.Run(ctx, cacheSweepInterval) })
	return g.Wait()
}

// invalidateCache drops every cached read. It runs after each saved write.
func (s *Server) invalidateCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	s.cache.Purge()
}

func (s *Server) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

// storeCached keeps resp unless the cache was purged since gen was read.
func (s *Server) storeCached(gen uint64, key string, resp cachedResponse) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation != gen {
		return false
	}
	s.cache.Set(key, resp)
	return true
}

// cached serves successful responses from the read cache, keyed by the
// request URI.
func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.RequestURI()
		if hit, ok := s.cache.Get(key); ok {
			w.Header().Set("Content-Type", hit.contentType)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(hit.body)
			return
		}

		gen := s.cacheGeneration()
		rec := &recordingWriter{statusWriter: statusWriter{ResponseWriter: w, status: http.StatusOK}}
		w.Header().Set("X-Cache", "MISS")
		next(rec, r)
		if rec.status == http.StatusOK {
			s.storeCached(gen, key, cachedResponse{
				contentType: w.Header().Get("Content-Type"),
				body:        bytes.Clone(rec.buf.Bytes()),
			})
		}
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// recordingWriter copies the body while passing it through.
type recordingWriter struct {
	statusWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.statusWriter.Write(b)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "storage not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"requests":   s.tracer.GetMetrics(),
		"rateLimit":  s.limiter.GetMetrics(),
		"security":   s.detector.GetMetrics(),
		"cacheItems": s.cache.Size(),
	})
}
