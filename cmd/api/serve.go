package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/config"
	"github.com/sangkips/tempo-pos/internal/domain/billing"
	infraRepo "github.com/sangkips/tempo-pos/internal/infrastructure/repository"
	"github.com/sangkips/tempo-pos/internal/presentation/http/handler"
	"github.com/sangkips/tempo-pos/internal/presentation/http/routes"
	"github.com/sangkips/tempo-pos/pkg/logger"
	"github.com/sangkips/tempo-pos/pkg/printer"
	"github.com/sangkips/tempo-pos/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the HTTP API together with the background expiry watcher.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logging)
	log.Info().
		Str("version", version).
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Str("events", cfg.Events.Driver).
		Msg("Starting " + cfg.App.Name)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close connections")
		}
	}()

	idempotencyRepo, err := in.idempotencyRepo(cfg.Idempotency)
	if err != nil {
		return fmt.Errorf("failed to create idempotency store: %w", err)
	}

	// Initialize repositories
	clockRepo := infraRepo.NewClockRepository(in.store)
	menuRepo := infraRepo.NewMenuRepository(in.store)
	cartRepo := infraRepo.NewCartRepository(in.store)
	txRepo := infraRepo.NewTransactionRepository(in.store)
	settleRepo := infraRepo.NewSettlementRepository(in.store)
	userRepo := infraRepo.NewUserRepository(in.store)

	clock := billing.SystemClock{}
	loc := cfg.Billing.Location

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize printer, receipts will not be printed")
		thermalPrinter = printer.NewBufferPrinter()
	}
	defer thermalPrinter.Close()

	// Initialize services
	clockService := service.NewClockService(clockRepo, cartRepo, in.bus, clock, log)
	menuService := service.NewMenuService(menuRepo, cartRepo, clock, log)
	cartService := service.NewCartService(cartRepo)
	settlementService := service.NewSettlementService(cartRepo, menuRepo, txRepo, settleRepo, in.bus, clock, loc, log)
	txService := service.NewTransactionService(txRepo)
	userService := service.NewUserService(userRepo, clock)
	dashboardService := service.NewDashboardService(txRepo, userRepo, loc)
	printerService := service.NewPrinterService(thermalPrinter, txService, cfg.Printer.Type, service.ReceiptOptions{
		StoreName: cfg.Printer.StoreName,
		Currency:  cfg.Billing.Currency,
		Width:     cfg.Printer.Width,
		Location:  loc,
	}, log)

	// Initialize handlers
	handlers := &routes.Handlers{
		Clock:       handler.NewClockHandler(clockService),
		Menu:        handler.NewMenuHandler(menuService),
		Cart:        handler.NewCartHandler(cartService),
		Checkout:    handler.NewCheckoutHandler(settlementService),
		Transaction: handler.NewTransactionHandler(txService, printerService, loc),
		Admin:       handler.NewAdminHandler(dashboardService, userService, loc),
		User:        handler.NewUserHandler(userService),
	}

	rateLimiter := routes.NewRateLimiter(cfg.RateLimit)
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.JWT.Issuer),
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Log:             log,
	})

	go rateLimiter.RunCleanup(ctx, time.Minute)
	go clockService.RunExpiryWatcher(ctx, cfg.Billing.TickInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, srv, log)
}

// serveUntilDone runs srv until ctx is cancelled, then drains in-flight
// requests for up to 15 seconds.
func serveUntilDone(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}
