package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/isheraz/stroll-test/internal/cache"
	"github.com/isheraz/stroll-test/internal/config"
	"github.com/isheraz/stroll-test/internal/cycle"
	"github.com/isheraz/stroll-test/internal/handler"
	"github.com/isheraz/stroll-test/internal/logger"
	"github.com/isheraz/stroll-test/internal/scheduler"
	"github.com/isheraz/stroll-test/internal/service"
	"github.com/isheraz/stroll-test/internal/storage"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second

	localCacheSize    = 10000
	localCacheCleanup = 1 * time.Minute
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})
}

// contentCache is what serve needs from either cache driver.
type contentCache interface {
	service.Cache
	handler.Pinger
	HitRate() float64
	Close() error
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, hook, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if hook != nil {
		defer hook.Close()
	}
	mainLog := logger.Component(log, "main")
	mainLog.WithFields(logrus.Fields{
		"environment":  cfg.Environment,
		"cache_driver": cfg.CacheDriver,
		"epoch":        cfg.CycleEpoch.Format(time.RFC3339),
		"cycle_days":   cfg.CycleDurationDays,
	}).Info("Configuration loaded")

	calc, err := cycle.NewCalculator(cfg.CycleEpoch, cfg.CycleDurationDays)
	if err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), startupTimeout)
	defer cancel()

	postgres, err := storage.NewPostgresClient(startCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer postgres.Close()
	mainLog.Info("Database connection established successfully.")

	var (
		cc        contentCache
		localSize func() int
	)
	switch cfg.CacheDriver {
	case config.CacheDriverMemory:
		lc := cache.NewLocalCache(localCacheSize, localCacheCleanup)
		cc, localSize = lc, lc.Size
		mainLog.Info("Using in-process cache")
	default:
		rc, err := storage.NewRedisClient(startCtx, storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TLS:      cfg.RedisTLS,
		}, logger.Component(log, "redis"))
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		cc = rc
	}
	defer cc.Close()

	svc := service.NewContentService(postgres, cc, calc, logger.Component(log, "service"))

	warm := scheduler.NewWarmScheduler(svc, cfg.WarmRegions, cfg.CronSpecWarm, logger.Component(log, "scheduler"))
	if err := warm.Start(); err != nil {
		return err
	}
	defer warm.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(
		handler.NewContentHandler(svc, logger.Component(log, "handler")),
		handler.NewOpsHandler(svc, handler.OpsConfig{
			Cache:         cc,
			Postgres:      postgres,
			CacheDriver:   cfg.CacheDriver,
			LocalSize:     localSize,
			DriverHitRate: cc.HitRate,
			LogPath:       cfg.LogFile,
		}, logger.Component(log, "ops")),
		logger.Component(log, "http"),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		mainLog.Infof("Server running on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		mainLog.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.WithError(err).Error("Graceful shutdown failed")
		return err
	}

	mainLog.Info("Server stopped gracefully")
	return nil
}
