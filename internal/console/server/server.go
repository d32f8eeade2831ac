package server

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/carbon-assessment/internal/console/handler"
	"github.com/xela07ax/carbon-assessment/internal/infra"
)

type APIServer struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     *infra.Config
	metrics *infra.Metrics
	limiter *rate.Limiter

	assessmentHandler *handler.AssessmentHandler // /api/*
}

// NewAPIServer собирает роутер HTTP API со всеми зависимостями
func NewAPIServer(
	cfg *infra.Config,
	logger *zap.Logger,
	metrics *infra.Metrics,
	assessmentH *handler.AssessmentHandler,
) *APIServer {
	s := &APIServer{
		router:            chi.NewRouter(),
		logger:            logger.Named("http-api"),
		cfg:               cfg,
		metrics:           metrics,
		assessmentHandler: assessmentH,
	}
	if cfg.RateLimit.RPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	s.routes()
	return s
}

func (s *APIServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(AccessLog(s.logger))
	r.Use(Instrument(s.metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", TraceHeader},
		ExposedHeaders: []string{TraceHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	// --- 2. API ---
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Лимит только на запись: чтение дешевое и кэшируется
			if s.limiter != nil {
				r.Use(RateLimit(s.limiter, s.logger))
			}
			r.Post("/assessment", s.assessmentHandler.Create)
		})

		r.Get("/assessments", s.assessmentHandler.List)
		r.Get("/assessments/{category}", s.assessmentHandler.ListByCategory)
		r.Get("/summary", s.assessmentHandler.Summary)
		r.Get("/stats", s.assessmentHandler.Stats)
		r.Get("/export/csv", s.assessmentHandler.ExportCSV)
		r.Get("/export/txt", s.assessmentHandler.ExportText)
		r.Get("/health", s.assessmentHandler.Health)
	})

	// --- 3. Статика админ-дашборда ---
	if dir := s.cfg.Server.StaticDir; dir != "" {
		if _, err := os.Stat(dir); err != nil {
			s.logger.Warn("static dir is not available, dashboard disabled", zap.String("dir", dir), zap.Error(err))
			return
		}
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}
}

// ServeHTTP позволяет использовать APIServer как стандартный http.Handler
func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
