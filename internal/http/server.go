package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/report"
	appweb "expensetracker/web"
)

// ExpenseService is what the handlers need from the service layer.
type ExpenseService interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, d core.Draft) (core.Expense, error)
	Update(ctx context.Context, id string, d core.Draft) (core.Expense, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Addr               string
	APIPrefix          string
	RateLimitPerMinute int
	CSVDateLayout      string
	CORS               security.CORSConfig
	// TrustedProxies extend the detector's private network defaults.
	TrustedProxies []string
	Logger         *log.Logger
	// Now is the clock used for month statistics; nil means time.Now.
	Now func() time.Time
}

// appMetrics holds application counters exposed on /metrics.
type appMetrics struct {
	uptime          time.Time
	expensesCreated int64
	expensesUpdated int64
	expensesDeleted int64
	exports         int64
}

type Server struct {
	http.Server
	svc        ExpenseService
	templates  *template.Template
	logger     *log.Logger
	structured *log.StructuredLogger
	apiPrefix  string
	csvLayout  string
	now        func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options, svc ExpenseService) *Server {
	// The dashboard owns the root paths, so the API always needs a prefix.
	opts.APIPrefix = strings.TrimSuffix(opts.APIPrefix, "/")
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}
	if opts.CSVDateLayout == "" {
		opts.CSVDateLayout = report.DefaultCSVDateLayout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CORS.AllowedOrigins == nil {
		opts.CORS = security.DefaultCORSConfig()
	}
	base := opts.Logger
	if base == nil {
		base = log.New(log.DefaultConfig())
	}
	logger := base.WithComponent(log.ComponentHTTP)

	limitCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s := &Server{
		svc:              svc,
		logger:           logger,
		structured:       log.NewStructuredLogger(logger),
		apiPrefix:        opts.APIPrefix,
		csvLayout:        opts.CSVDateLayout,
		now:              opts.Now,
		rateLimiter:      ratelimit.NewLimiter(limitCfg),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, log.NewStructuredLogger(base)),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	pageHeaders := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	apiHeaders := security.NewHeadersMiddleware(security.APIHeadersConfig())

	mux := http.NewServeMux()

	// JSON API
	api := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+s.apiPrefix+path, apiHeaders.Middleware(h))
	}
	api("GET /expenses", s.handleListExpenses)
	api("POST /expenses", s.handleCreateExpense)
	api("GET /expenses/stats", s.handleStats)
	api("GET /expenses/export", s.handleExport)
	api("PUT /expenses/{id}", s.handleUpdateExpense)
	api("DELETE /expenses/{id}", s.handleDeleteExpense)
	api("GET /categories", s.handleCategories)

	// Dashboard
	mux.Handle("GET /{$}", pageHeaders.Middleware(http.HandlerFunc(s.handleDashboard)))
	mux.Handle("POST /expenses", pageHeaders.Middleware(http.HandlerFunc(s.handleDashboardCreate)))
	mux.Handle("POST /expenses/{id}", pageHeaders.Middleware(http.HandlerFunc(s.handleDashboardUpdate)))
	mux.Handle("POST /expenses/{id}/delete", pageHeaders.Middleware(http.HandlerFunc(s.handleDashboardDelete)))
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	// Operations
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})

	var handler http.Handler = mux
	handler = limited(handler)
	handler = security.CORS(opts.CORS)(handler)
	handler = detector.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFrom)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
