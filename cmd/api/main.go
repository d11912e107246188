package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tiendalink/rewards/internal/config"
	"github.com/tiendalink/rewards/internal/handler"
	"github.com/tiendalink/rewards/internal/repository"
	"github.com/tiendalink/rewards/internal/service"
	"github.com/tiendalink/rewards/internal/validator"
	"github.com/tiendalink/rewards/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Apply schema migrations
	if cfg.DB.MigrationsDir != "" {
		if err := repository.RunMigrations(ctx, pool, cfg.DB.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Storefront Rewards Engine",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware. CORS is open: the loyalty API is called from storefront
	// pages on arbitrary merchant domains, and cors handles OPTIONS preflight.
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	// Initialize validator
	validate := validator.New()

	// Initialize components (layered architecture)
	promotionRepo := repository.NewPromotionRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)

	promotionService := service.NewPromotionService(promotionRepo)
	couponService := service.NewCouponService(pool, couponRepo)
	loyaltyService := service.NewLoyaltyService(pool, loyaltyRepo)

	promotionHandler := handler.NewPromotionHandler(promotionService, validate)
	couponHandler := handler.NewCouponHandler(couponService, validate)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService, validate)

	// Health and metrics
	healthHandler := handler.NewHealthHandler(pool)
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Loyalty routes (storefront-facing API)
	app.Get("/loyalty/program", loyaltyHandler.GetProgram)
	app.Get("/loyalty/check-points", loyaltyHandler.CheckPoints)
	app.Get("/loyalty/history", loyaltyHandler.History)
	app.Post("/loyalty/add-points", loyaltyHandler.AddPoints)
	app.Post("/loyalty/redeem-points", loyaltyHandler.RedeemPoints)

	// Coupon routes
	app.Post("/coupons/validate", couponHandler.ValidateCoupon)
	app.Post("/coupons/apply", couponHandler.ApplyCoupon)
	app.Post("/coupons/record-usage", couponHandler.RecordUsage)
	app.Post("/coupons/recovery", couponHandler.MintRecoveryCoupon)

	// Promotion routes
	app.Get("/promotions/active", promotionHandler.ActivePromotions)
	app.Post("/promotions/price", promotionHandler.QuotePrice)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
