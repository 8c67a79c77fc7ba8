// Package http exposes the ingestion and analysis API over JSON.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finsight/internal/cache"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/services"
)

type Server struct {
	http.Server
	service     *services.IngestService
	rateLimiter *rateLimiter
	logger      *log.Logger

	// analysisCache memoizes analyze responses. revision is bumped on
	// every store mutation so stale keys can never be served.
	analysisCache *cache.LRU[core.AnalysisResult]
	revision      atomic.Uint64

	metrics      *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	startedAt time.Time
	requests  atomic.Int64
	errors    atomic.Int64
	cacheHits atomic.Int64
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.IngestService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           log.Middleware(logger)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		service:       service,
		rateLimiter:   newRateLimiter(),
		logger:        logger,
		analysisCache: cache.NewLRU[core.AnalysisResult](100, 5*time.Minute),
		metrics:       &appMetrics{startedAt: time.Now()},
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/transactions/upload", s.withMiddleware(s.handleUpload))
	mux.HandleFunc("GET /api/transactions/files", s.withMiddleware(s.handleListFiles))
	mux.HandleFunc("DELETE /api/transactions/files/{filename}", s.withMiddleware(s.handleDeleteFile))
	mux.HandleFunc("POST /api/transactions/analyze", s.withMiddleware(s.handleAnalyze))

	return s
}

// Shutdown stops background routines before draining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on mutations, and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.requests.Add(1)

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := r.Context()
		logger := log.FromContext(ctx).With(
			log.FieldRequestID, requestID,
			log.FieldClientIP, clientIP)

		logger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		if rw.statusCode >= 500 {
			s.metrics.errors.Add(1)
		}
		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
