package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/nebula-studio/billing-api/internal/config"
	"github.com/nebula-studio/billing-api/internal/domain/admin"
	"github.com/nebula-studio/billing-api/internal/domain/credit"
	"github.com/nebula-studio/billing-api/internal/domain/payment"
	"github.com/nebula-studio/billing-api/internal/domain/pricing"
	"github.com/nebula-studio/billing-api/internal/middleware"
	"github.com/nebula-studio/billing-api/internal/pkg/database"
	"github.com/nebula-studio/billing-api/internal/pkg/email"
	"github.com/nebula-studio/billing-api/internal/pkg/events"
	"github.com/nebula-studio/billing-api/internal/pkg/jwt"
	"github.com/nebula-studio/billing-api/internal/pkg/logger"
	"github.com/nebula-studio/billing-api/internal/pkg/metrics"
	"github.com/nebula-studio/billing-api/internal/pkg/nowpayments"
	pkgpayment "github.com/nebula-studio/billing-api/internal/pkg/payment"
	pkgresponse "github.com/nebula-studio/billing-api/internal/pkg/response"
	"github.com/nebula-studio/billing-api/internal/pkg/stripepay"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "billing-api"}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting billing API")

	db, dialect, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	if cfg.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, db, dialect)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, jwt.WithIssuer(cfg.JWTIssuer), jwt.WithAudience(cfg.JWTAudience))

	// ---------- Pricing ----------
	catalog := pricing.DefaultCatalog()
	if cfg.PlanCatalogPath != "" {
		catalog, err = pricing.LoadCatalog(cfg.PlanCatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.PlanCatalogPath).Msg("Failed to load plan catalog")
		}
	}
	pricingService := pricing.NewService(pricing.Config{
		MinPurchase:    cfg.MinPurchaseUSD,
		MaxPurchase:    cfg.MaxPurchaseUSD,
		TokensPerUSD:   cfg.TokensPerUSD,
		CustomMargin:   cfg.CustomPlanMargin,
		CustomMinCents: cfg.CustomPlanMinCents,
		CustomMaxCents: cfg.CustomPlanMaxCents,
	}, catalog)

	// ---------- Gateways ----------
	gateways := pkgpayment.NewRegistry()
	if cfg.StripeEnabled() {
		gateways.Register(stripepay.New(stripepay.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			APIURL:        cfg.StripeAPIURL,
		}))
	}
	if cfg.NowPaymentsEnabled() {
		gateways.Register(nowpayments.NewClient(nowpayments.Config{
			BaseURL:   cfg.NowPaymentsBaseURL,
			APIKey:    cfg.NowPaymentsAPIKey,
			IPNSecret: cfg.NowPaymentsIPNSecret,
		}))
	}
	if len(gateways.Names()) == 0 {
		log.Warn().Msg("No payment gateway configured, checkout will reject every provider")
	}

	// ---------- Services ----------
	registry := metrics.NewRegistry()
	creditService := credit.NewService(credit.NewRepository(db))
	paymentService := payment.NewService(payment.NewRepository(db), creditService, pricingService, gateways, payment.Config{
		FrontendURL:    cfg.FrontendURL,
		BackendURL:     cfg.BackendURL,
		DefaultLang:    cfg.DefaultLang,
		SupportedLangs: cfg.SupportedLangs,
	})
	paymentService.SetMetrics(metrics.NewPayments(registry))

	if cfg.SendGridAPIKey != "" {
		emailService := email.NewService(email.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		})
		defer emailService.Close()
		paymentService.AddNotifier(payment.NewEmailNotifier(emailService, cfg.FrontendURL))
	}
	if publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopicCredits); publisher != nil {
		defer publisher.Close()
		paymentService.AddNotifier(payment.NewEventNotifier(publisher))
	}

	// ---------- Router ----------
	authMiddleware := middleware.Auth(jwtService)
	throttle := middleware.Throttle(middleware.NewRedisCounter(redis), "checkout", cfg.CheckoutRateLimit, cfg.CheckoutRateWindow)

	r := newRouter(cfg.AllowedOrigins, routes{
		auth:     authMiddleware,
		throttle: throttle,
		pricing:  pricing.NewHandler(pricingService),
		credit:   credit.NewHandler(creditService),
		payment:  payment.NewHandler(paymentService),
		admin:    admin.NewTokenHandler(creditService),
		metrics:  metrics.Handler(registry),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Strs("gateways", gateways.Names()).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type routes struct {
	auth     func(http.Handler) http.Handler
	throttle func(http.Handler) http.Handler
	pricing  *pricing.Handler
	credit   *credit.Handler
	payment  *payment.Handler
	admin    *admin.TokenHandler
	metrics  http.Handler
}

func newRouter(allowedOrigins []string, h routes) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", h.metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Route("/buy-tokens", func(r chi.Router) {
			mountBuyTokensRoutes(r, h)
		})
		// older frontends post straight to /checkout
		r.With(h.auth, h.throttle).Post("/checkout", h.payment.Checkout)
	})

	r.Mount("/webhooks", h.payment.WebhookRoutes())
	r.Mount("/api/admin", h.admin.Routes(h.auth))

	return r
}

func mountBuyTokensRoutes(r chi.Router, h routes) {
	h.pricing.RegisterRoutes(r)
	h.credit.RegisterRoutes(r, h.auth)
	h.payment.RegisterRoutes(r, h.auth, h.throttle)
}
