// Package http serves the JSON resource API over the record repositories,
// the stats/dashboard aggregates and attachment uploads.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"familyfinance/internal/core"
	"familyfinance/internal/log"
	"familyfinance/internal/middleware/ratelimit"
	"familyfinance/internal/middleware/security"
	"familyfinance/internal/middleware/trace"
	"familyfinance/internal/repository"
	"familyfinance/internal/storage"
	"familyfinance/internal/uploads"
)

const (
	maxBodyBytes      = 1 << 20
	uploadCacheMaxAge = 3600
)

// StatsReader computes the aggregate views
type StatsReader interface {
	Stats(ctx context.Context) (core.Stats, error)
	Dashboard(ctx context.Context) (core.Dashboard, error)
}

// Options carries the collaborators and limits of a Server
type Options struct {
	Records *repository.Set
	Stats   StatsReader
	Store   storage.Store

	Uploads        uploads.Store
	UploadDir      string // served under /uploads/ when set
	UploadMaxBytes int64

	RequestTimeout    time.Duration
	CORSAllowedOrigin string
	RateLimitPerMin   int // 0 disables

	Logger *log.Logger
}

type Server struct {
	http.Server

	records        *repository.Set
	stats          StatsReader
	store          storage.Store
	uploads        uploads.Store
	uploadMaxBytes int64

	logger   *log.Logger
	sl       *log.StructuredLogger
	tracer   *trace.Middleware
	detector *security.Detector
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	uploadMax := opts.UploadMaxBytes
	if uploadMax <= 0 {
		uploadMax = 10 << 20
	}

	s := &Server{
		records:        opts.Records,
		stats:          opts.Stats,
		store:          opts.Store,
		uploads:        opts.Uploads,
		uploadMaxBytes: uploadMax,
		logger:         logger,
		sl:             log.NewStructuredLogger(logger),
		detector:       security.NewDetector(logger),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)
	if opts.RateLimitPerMin > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMin})
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	mountResource(api, s, "expenses", "Expense", s.records.Expenses)
	mountResource(api, s, "budgets", "Budget", s.records.Budgets)
	mountResource(api, s, "goals", "Goal", s.records.Goals)
	mountResource(api, s, "investments", "Investment", s.records.Investments)
	mountResource(api, s, "bills", "Bill", s.records.Bills)
	mountResource(api, s, "income", "Income", s.records.Income)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)

	if opts.UploadDir != "" {
		files := http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(opts.UploadDir))))
		router.PathPrefix("/uploads/").Handler(security.StaticAssetMiddleware(uploadCacheMaxAge)(files)).
			Methods(http.MethodGet, http.MethodHead)
	}

	// outermost last
	var h http.Handler = router
	h = withDeadline(opts.RequestTimeout)(h)
	if s.limiter != nil {
		h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingOnly, func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		})(h)
	}
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(h)
	h = security.CORS(opts.CORSAllowedOrigin)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:    addr,
		Handler: h,
	}
	return s
}

// Shutdown stops background cleanup and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics returns the request counters collected by the trace middleware
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// withDeadline bounds every request context, and with it the store transactions it starts
func withDeadline(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			respondError(w, http.StatusNotFound, "Not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := storage.Ping(r.Context(), s.store); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			respondError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
