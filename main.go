package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Lei-jenny/Travel-with-Me/config"
	"github.com/Lei-jenny/Travel-with-Me/database"
	"github.com/Lei-jenny/Travel-with-Me/handlers"
	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/middleware"
	"github.com/Lei-jenny/Travel-with-Me/services"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	logger.Set(zl)
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.LogLevel == "debug")
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}

	// Redis is optional; without it every ledger read is computed fresh
	rdb := database.ConnectRedis(cfg.RedisURL)

	utils.SetTokenIssuer(utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName))
	handlers.Init(services.New(
		db,
		services.NewReportCache(rdb, cfg.ReportCacheTTL),
		services.NewNotificationService(ctx, cfg, db),
	))

	// Setup router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery(), middleware.CORSMiddleware(cfg.CORSOrigins))
	handlers.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("app", cfg.AppName), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
