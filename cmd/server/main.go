package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sabarisastha/annadanam/internal/clock"
	"github.com/sabarisastha/annadanam/internal/config"
	"github.com/sabarisastha/annadanam/internal/database"
	"github.com/sabarisastha/annadanam/internal/handler"
	"github.com/sabarisastha/annadanam/internal/logger"
	"github.com/sabarisastha/annadanam/internal/middleware"
	"github.com/sabarisastha/annadanam/internal/queue"
	"github.com/sabarisastha/annadanam/internal/repository"
	"github.com/sabarisastha/annadanam/internal/router"
	"github.com/sabarisastha/annadanam/internal/service"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bookingCfg, err := config.LoadBooking()
	if err != nil {
		return err
	}
	engine, err := bookingCfg.Engine(clock.Real())
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	opts := []service.Option{service.WithLogger(lg.Named("allocator"))}
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL, lg.Named("publisher"))
		defer pub.Close()
		opts = append(opts, service.WithNotifier(service.NewQueueNotifier(pub, engine.Sessions())))

		consumer := &queue.Consumer{URL: cfg.AMQPURL, LogPath: cfg.BookingLog, Log: lg.Named("booking-consumer")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Warn("booking consumer stopped", zap.Error(err))
			}
		}()
	} else {
		lg.Info("AMQP_URL not set; booking events disabled")
	}

	limits := service.Limits{SessionCapacity: bookingCfg.SessionCapacity, GroupCap: bookingCfg.GroupCap}
	alloc, err := service.NewAllocator(repository.NewBookingRepo(db), engine, limits, opts...)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient(lg)
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(lg.Named("http")))
	e.Use(echomw.BodyLimit("64K"))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		}))
	}

	h := handler.NewAnnadanamHandler(alloc, engine, limits, bookingCfg.ReserveAttempts, lg.Named("handler"))
	router.RegisterRoutes(e, h, db, middleware.NewRedisCache(config.LoadCacheConfig(), rdb, lg))
	router.RegisterDevotee(e, h, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg))
	router.RegisterAdmin(e, h, cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.String("timezone", bookingCfg.TimeZone))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
