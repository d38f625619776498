// Package app wires the sale engine together: storage, domain services,
// HTTP surface, health probes, and background sweeps.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/maiconsoft/backoffice/internal/domain/coupon"
	"github.com/maiconsoft/backoffice/internal/domain/sale"
	"github.com/maiconsoft/backoffice/internal/handler"
	"github.com/maiconsoft/backoffice/internal/notify"
	"github.com/maiconsoft/backoffice/internal/storage/postgres"
	"github.com/maiconsoft/backoffice/pkg/health"
	"github.com/maiconsoft/backoffice/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

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
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	saleRepo := postgres.NewSaleRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Notification sink: SMTP when configured, log otherwise.
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMTP.Enabled {
		notifier = notify.SMTPNotifier{Addr: cfg.SMTP.Addr, From: cfg.SMTP.From, To: cfg.SMTP.To}
	}

	// Domain services.
	ledger := coupon.NewLedger(couponRepo)
	couponAdmin := coupon.NewAdmin(couponRepo)
	saleService, err := sale.NewService(
		saleRepo, customerRepo, userRepo, ledger, notifier,
		m.MeterProvider().Meter("backoffice.sales"),
	)
	if err != nil {
		return errors.Wrap(err, "create sale service")
	}

	// Periodic expired-coupon sweep. Eligibility is re-checked inline at
	// redemption, so this only keeps the listing tidy.
	if cfg.CouponSweep.Enabled {
		go runCouponSweep(ctx, ledger, cfg.CouponSweep.Interval)
	}

	// Mux: health endpoints + API routes on one server.
	h := handler.New(saleService, couponAdmin)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	instrumented := otelhttp.NewHandler(mux, "backoffice",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
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

func runCouponSweep(ctx context.Context, ledger *coupon.Ledger, interval time.Duration) {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := ledger.DeactivateExpired(ctx)
			if err != nil {
				lg.Error("Expired coupon sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				lg.Info("Deactivated expired coupons", zap.Int64("count", n))
			}
		}
	}
}
