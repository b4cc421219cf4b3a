package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/domain/auth"
	"github.com/xenking/orderdesk/internal/domain/coupon"
	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/domain/payment"
	"github.com/xenking/orderdesk/internal/domain/shop"
	"github.com/xenking/orderdesk/internal/handler"
	"github.com/xenking/orderdesk/internal/storage/postgres"
	"github.com/xenking/orderdesk/pkg/health"
	"github.com/xenking/orderdesk/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("timezone", cfg.Shop.Timezone),
		zap.Bool("enforce_hours", cfg.Shop.EnforceHours),
	)

	loc, err := time.LoadLocation(cfg.Shop.Timezone)
	if err != nil {
		return errors.Wrap(err, "load timezone")
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	shopRepo := postgres.NewShopRepository(pool)

	// Domain services.
	var overrides shop.OverrideStore = shopRepo
	if cfg.Shop.OverrideStore == OverrideStoreMemory {
		overrides = &shop.MemoryOverride{}
	}
	status := shop.NewStatus(overrides, shopRepo, loc)

	orderService, err := order.NewService(
		order.Config{
			EnforceHours:         cfg.Shop.EnforceHours,
			RequirePostalAddress: cfg.Orders.RequirePostalAddress,
			CatalogPricing:       cfg.Orders.CatalogPricing,
		},
		status,
		productRepo,
		coupon.NewRepoResolver(couponRepo),
		orderRepo,
		order.WithTelemetry(m.TracerProvider(), m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	checkout, err := newCheckout(cfg)
	if err != nil {
		return errors.Wrap(err, "create checkout")
	}
	if !checkout.Enabled() {
		lg.Warn("Stripe secret key not set, online payment disabled")
	}

	// HTTP handlers.
	h := handler.NewHandler(
		handler.Config{HoursEnforced: cfg.Shop.EnforceHours, Timezone: cfg.Shop.Timezone},
		productRepo,
		couponRepo,
		orderService,
		status,
		checkout,
	)
	opts := handler.RouterOptions{
		Health:      healthSvc.OKEndpoint,
		Middlewares: []func(http.Handler) http.Handler{httpmiddleware.LogRequests()},
	}
	if cfg.Admin.RequireAPIKey {
		authenticator := auth.NewAuthenticator(postgres.NewAPIKeyRepository(pool), []byte(cfg.Admin.APIKeyPepper))
		opts.Admin = handler.RequireAPIKey(authenticator)
	} else {
		lg.Warn("Admin routes are not protected by an API key")
	}

	router := handler.NewRouter(h, opts)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Stripe.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.APIKeyHeader, httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("orderdesk-api", m),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newCheckout returns a disabled checkout when no Stripe key is configured.
func newCheckout(cfg *Config) (*payment.Checkout, error) {
	if cfg.Stripe.SecretKey == "" {
		return payment.NewCheckout(nil, cfg.Stripe.Currency, cfg.FrontendURL), nil
	}
	p, err := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey: cfg.Stripe.SecretKey,
		Timeout:   cfg.Stripe.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return payment.NewCheckout(p, cfg.Stripe.Currency, cfg.FrontendURL), nil
}
