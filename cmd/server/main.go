package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"coachbook/internal/app"
	"coachbook/internal/config"
	"coachbook/internal/logging"
	"coachbook/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_HMAC_SECRET required")
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	defaultTZ, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		logger.Fatal("invalid DEFAULT_TIMEZONE", zap.String("tz", cfg.DefaultTimezone), zap.Error(err))
	}

	appInstance := &app.App{
		DB:        pool,
		Log:       logger,
		DefaultTZ: defaultTZ,
		TxTimeout: time.Duration(cfg.BookingTxTimeoutMS) * time.Millisecond,
		Google:    app.NewGoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
	}

	router := gin.Default()

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", appInstance.GoogleOAuth2CallbackHandler)

	router.Use(app.AuthMiddleware(cfg.JWTSecret))

	api := router.Group("/api")
	{
		api.GET("/coaches/:id/start-times", appInstance.GetStartTimesHandler)

		api.POST("/courses/:id/bookings", appInstance.CreateBookingHandler)
		api.GET("/bookings", appInstance.ListBookingsHandler)
		api.POST("/bookings/:id/cancel", appInstance.CancelBookingHandler)
		api.POST("/bookings/:id/pay", appInstance.MarkPaidHandler)
		api.POST("/bookings/:id/status", appInstance.UpdateBookingStatusHandler)

		api.POST("/availability", appInstance.UpsertAvailabilityHandler)
		api.GET("/availability", appInstance.ListAvailabilityHandler)
		api.DELETE("/availability", appInstance.DeleteAvailabilityHandler)

		api.GET("/calendar/auth", appInstance.GoogleAuthHandler)
	}

	logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("env", cfg.Env))
	if err := server.Run(router, cfg.AppPort); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
