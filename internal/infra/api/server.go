package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"content-marketplace/internal/config"
	"content-marketplace/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Limiter is satisfied by the redis fixed-window limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Services groups the use cases the HTTP layer delegates to.
type Services struct {
	Users     usecase.UserUseCase
	Checkout  usecase.CheckoutUseCase
	Intents   usecase.IntentStore
	Callbacks usecase.CallbackUseCase
	Stats     usecase.StatsUseCase
}

type Server struct {
	svc      Services
	tokens   *TokenManager
	limiter  Limiter
	httpCfg  config.HTTPConfig
	payCfg   config.PaymentConfig
	adminKey string
	dev      bool
	log      *zerolog.Logger
	onScrape func()

	server *http.Server
}

// NewServer builds the HTTP API. limiter may be nil, which disables checkout rate limiting.
func NewServer(cfg *config.Config, svc Services, tokens *TokenManager, limiter Limiter, logger *zerolog.Logger) *Server {
	return &Server{
		svc:      svc,
		tokens:   tokens,
		limiter:  limiter,
		httpCfg:  cfg.HTTP,
		payCfg:   cfg.Payment,
		adminKey: cfg.Admin.APIKey,
		dev:      cfg.Runtime.Dev,
		log:      logger,
	}
}

// Handler returns the full middleware-wrapped router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", s.metricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// signed by the provider, not by the caller
		r.Get("/payments/vnpay/return", s.handleVNPayReturn)
		r.Get("/payments/vnpay/ipn", s.handleVNPayIPN)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(s.tokens))
			r.Get("/me", s.handleMe)
			r.Post("/payments", s.handleCreatePayment)
			r.Get("/payments", s.handleListPayments)
			r.Get("/payments/{id}", s.handleGetPayment)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdminKey(s.adminKey, s.log))
			r.Get("/payments", s.handleAdminPayments)
			r.Get("/stats", s.handleAdminStats)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.httpCfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key", traceHeader},
		ExposedHeaders:   []string{traceHeader},
		AllowCredentials: true,
	})

	return Chain(c.Handler(r),
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.httpCfg.RequestTimeout),
	)
}

// OnMetricsScrape registers fn to run before every /metrics response. Gauges sampled from
// live objects (the pgx pool) are refreshed here instead of on a timer.
func (s *Server) OnMetricsScrape(fn func()) { s.onScrape = fn }

func (s *Server) metricsHandler() http.Handler {
	h := promhttp.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.onScrape != nil {
			s.onScrape()
		}
		h.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.httpCfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}
	s.log.Info().Int("port", s.httpCfg.Port).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
