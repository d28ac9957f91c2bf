package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"pemakaian/internal/cache"
	"pemakaian/internal/charts"
	"pemakaian/internal/core"
	"pemakaian/internal/log"
	appweb "pemakaian/web"
)

// DatasetSource provides the dataset the dashboard is rendered from.
type DatasetSource interface {
	Current() (*core.Dataset, error)
	Reload(ctx context.Context) (*core.Dataset, error)
}

// Options configure NewServer.
type Options struct {
	Addr   string
	Source DatasetSource
	Policy core.MissingPolicy
	// Renderer defaults to charts.New().
	Renderer *charts.Renderer
	// ChartCache defaults to 256 entries with a 10 minute TTL.
	ChartCache *cache.LRUCache[[]byte]
	Logger     *log.Logger
}

type Server struct {
	http.Server
	templates  *template.Template
	source     DatasetSource
	policy     core.MissingPolicy
	renderer   *charts.Renderer
	chartCache *cache.LRUCache[[]byte]

	rateLimiter *rateLimiter
	security    *securityMetrics
	logger      *log.Logger
	structured  *log.StructuredLogger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Renderer == nil {
		opts.Renderer = charts.New()
	}
	if opts.ChartCache == nil {
		opts.ChartCache = cache.NewLRUCache[[]byte](256, 10*time.Minute)
	}
	if opts.Policy == "" {
		opts.Policy = core.MissingSkip
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		source:      opts.Source,
		policy:      opts.Policy,
		renderer:    opts.Renderer,
		chartCache:  opts.ChartCache,
		rateLimiter: newRateLimiter(),
		security:    &securityMetrics{},
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
		structured:  log.NewStructuredLogger(opts.Logger),
		started:     time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("GET /export.csv", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("GET /charts/{name}", s.withSecurityHeaders(s.handleChart))
	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("POST /admin/reload", s.withSecurityHeaders(s.handleReload))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.Handler = withRequestID(log.Middleware(opts.Logger)(log.RequestIDMiddleware(requestIDFrom)(mux)))
	return s
}

// PurgeCharts drops every cached chart, e.g. after the dataset changed.
func (s *Server) PurgeCharts() {
	s.chartCache.Purge()
}

// Shutdown gracefully shuts down the server and cleanup routines
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
