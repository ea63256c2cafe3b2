package main // Entry point package

import (
	"context" // Cancellation for the background workers

	"github.com/joho/godotenv"    // Load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework
	"go.uber.org/zap"             // Structured logging fields

	"github.com/skylight-cinema/box-office/internal/config"
	"github.com/skylight-cinema/box-office/internal/database"
	"github.com/skylight-cinema/box-office/internal/handler"
	"github.com/skylight-cinema/box-office/internal/logger"
	"github.com/skylight-cinema/box-office/internal/middleware"
	"github.com/skylight-cinema/box-office/internal/printer"
	"github.com/skylight-cinema/box-office/internal/queue"
	"github.com/skylight-cinema/box-office/internal/repository"
	"github.com/skylight-cinema/box-office/internal/router"
	"github.com/skylight-cinema/box-office/internal/selection"
	"github.com/skylight-cinema/box-office/internal/sequence"
	"github.com/skylight-cinema/box-office/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()
	logger.Set(logger.New(cfg.Env))
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is absent; middleware degrades to pass-through

	// Repositories
	bookings := repository.NewBookingRepo(db)
	onlineSeats := repository.NewOnlineSeatRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Domain state and services
	selections := selection.NewCache()
	publisher := queue.NewPublisher()
	bookingSvc := service.NewBookingService(bookings, selections, publisher)
	statusSvc := service.NewSeatStatusService(bookings, onlineSeats, selections)

	seqCfg := config.LoadSequenceConfig()
	issuer, err := sequence.Load(seqCfg.FilePath, seqCfg.Prefix, seqCfg.Padding)
	if err != nil {
		logger.Fatal("load ticket sequence failed", zap.Error(err))
	}

	printCfg := config.LoadPrinterConfig()
	pipeline := printer.NewPipeline(printCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if printCfg.Mode == config.PrintModeQueued {
		go printer.NewWorker(printCfg).Run(ctx)
	}
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			logger.Warn("booking consumer stopped", zap.Error(err))
		}
	}()

	// HTTP
	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	auth := handler.NewAuthHandler(cfg, users, tokens)
	router.RegisterAuth(e, auth)
	router.RegisterBoxOffice(e, router.BoxOfficeDeps{
		Auth:       auth,
		Bookings:   handler.NewBookingHandler(bookingSvc),
		SeatStatus: handler.NewSeatStatusHandler(statusSvc),
		Print:      handler.NewPrintHandler(issuer, pipeline),
		JWTSecret:  cfg.JWTSecret,
		Cache:      middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
