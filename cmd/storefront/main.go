package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

func main() {
	cfg := config.Load()

	closer, err := applog.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
	} else {
		defer closer.Close()
	}
	lg := applog.Logger()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	defer db.Close()

	if cfg.SeedDemo {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := repos.Seed(ctx, db, cfg.BcryptCost); err != nil {
			lg.Fatal().Err(err).Msg("seed demo data")
		}
		cancel()
	}

	// Shared limiter counters when Redis is reachable, in-memory otherwise.
	var storage fiber.Storage
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable, rate limits are per process")
		} else {
			s := cache.NewStorage(rdb, "storefront:limiter:")
			defer s.Close()
			storage = s
		}
	}

	var pub events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.OrderQueue)
		if err != nil {
			lg.Warn().Err(err).Msg("amqp unavailable, order events disabled")
		} else {
			pub = p
		}
	}
	defer pub.Close()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.AccessTTLMin)*time.Minute)
	deps := handlers.NewDeps(db, cfg, tokens, pub)

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	handlers.Register(app, deps, handlers.Options{
		Storage:     storage,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		lg.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			lg.Error().Err(err).Msg("shutdown")
		}
	}()

	lg.Info().Str("port", cfg.Port).Str("driver", cfg.DBDriver).Bool("track_stock", cfg.TrackStock).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Fatal().Err(err).Msg("listen")
	}
}
