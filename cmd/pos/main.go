package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/Mani87-nq/yardbooks-pos/internal/audit"
	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/catalog"
	"github.com/Mani87-nq/yardbooks-pos/internal/checkout"
	"github.com/Mani87-nq/yardbooks-pos/internal/common"
	"github.com/Mani87-nq/yardbooks-pos/internal/config"
	"github.com/Mani87-nq/yardbooks-pos/internal/events"
	"github.com/Mani87-nq/yardbooks-pos/internal/health"
	"github.com/Mani87-nq/yardbooks-pos/internal/obs"
	"github.com/Mani87-nq/yardbooks-pos/internal/ratelimit"
	"github.com/Mani87-nq/yardbooks-pos/internal/receipt"
	"github.com/Mani87-nq/yardbooks-pos/internal/resilience"
	"github.com/Mani87-nq/yardbooks-pos/internal/security"
	"github.com/Mani87-nq/yardbooks-pos/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics("pos", nil)
	resilience.MustRegisterBreakerMetrics("pos", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "yardbooks-pos",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	bootCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(bootCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	breaker := resilience.NewBreaker(10, 0.5, 30*time.Second).
		WithTarget("backend").
		WithLogger(logger)
	be := &backend.Client{
		BaseURL: cfg.BackendBaseURL,
		APIKey:  cfg.BackendAPIKey,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Timeout: cfg.BackendTimeout},
			Breaker:     breaker,
			BaseBackoff: 100 * time.Millisecond,
			MaxAttempts: 3,
			Jitter:      0.2,
			Timeout:     cfg.BackendTimeout,
		},
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Backend:  be,
		Products: catalog.NewCache(redisClient, cfg.ProductCacheTTL),
		Settings: catalog.NewCache(redisClient, cfg.SettingsCacheTTL),
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalogService)

	settings, err := catalogService.Settings(bootCtx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load pos settings")
	}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	asynqClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task queue client")
		}
	}()
	receipts := &receipt.Dispatcher{Client: asynqClient, Queue: cfg.ReceiptQueue}

	trail := &audit.Trail{R: redisClient}
	bus := &events.Bus{
		Logger: logger,
		Notifiers: []events.Notifier{
			trail.Notifier(),
			events.NotifierFunc(func(ctx context.Context, event events.Event) error {
				logger.Info().Str("topic", event.Topic).Fields(event.Payload).Msg("event")
				return nil
			}),
		},
	}
	auditHandler := audit.Handler{Trail: trail}

	gate := &session.Gate{B: be}
	validate := validator.New()

	checkoutHandler := &checkout.Handler{
		Registry: checkout.NewRegistry(checkout.Config{
			Backend:        be,
			Gate:           gate,
			Settings:       settings,
			SettingsSource: catalogService.Settings,
			Events:         bus,
			Logger:         logger,
		}),
		Catalog:  catalogService,
		Receipts: receipts,
		Validate: validate,
		Logger:   logger,
	}
	sessionHandler := &session.Handler{Gate: gate, Events: bus, Validate: validate}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:pos"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: time.Minute,
			Max:    cfg.RateLimitPerMin,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter degraded")
		},
	}

	httpMetrics := obs.NewHTTPMetrics("pos", obs.ParseBucketsCSV(cfg.MetricsBucketsCSV), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPass))

	healthHandler := health.Handler{
		Checker: health.Probe{
			Backend: func(ctx context.Context) error {
				_, err := be.GetPosSettings(ctx)
				return err
			},
			Redis: redisClient,
		},
		BackendTimeout: 800 * time.Millisecond,
		RedisTimeout:   300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limiter.Middleware)

		v.Get("/products", catalogHandler.Products)
		v.Get("/customers", catalogHandler.Customers)
		v.Get("/settings", catalogHandler.Settings)
		v.Post("/settings/refresh", catalogHandler.RefreshSettings)
		v.Get("/payment-methods", catalogHandler.PaymentMethods)

		v.Get("/audit", auditHandler.List)

		v.Post("/sessions", sessionHandler.Open)
		v.Get("/sessions/current", sessionHandler.Current)
		v.Get("/terminals", sessionHandler.Terminals)

		v.Mount("/carts", checkoutHandler.Routes(idem.Middleware))
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
