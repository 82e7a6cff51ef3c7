package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sajibhub/instagram-downloader/internal/api"
	"github.com/sajibhub/instagram-downloader/internal/api/handler"
	"github.com/sajibhub/instagram-downloader/internal/cache"
	"github.com/sajibhub/instagram-downloader/internal/config"
	"github.com/sajibhub/instagram-downloader/internal/proxy"
	"github.com/sajibhub/instagram-downloader/internal/service"
	"github.com/sajibhub/instagram-downloader/pkg/instagram"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("instagram-downloader %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting instagram-downloader",
		"version", Version,
		"build_time", BuildTime,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	resultCache, err := cache.New(cache.Options{
		TTL:           cfg.Cache.TTL,
		CheckInterval: cfg.Cache.CheckInterval,
		PersistPath:   cfg.Cache.PersistPath,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}

	igClient := instagram.NewClient(cfg.Instagram, logger)
	mediaProxy := proxy.New(cfg.Proxy, cfg.Instagram.UserAgent, logger)
	postSvc := service.NewPostService(igClient, resultCache, logger)

	// Initialize handlers
	postHandler := handler.NewPostHandler(postSvc, logger)
	mediaHandler := handler.NewMediaHandler(mediaProxy, logger)
	cacheHandler := handler.NewCacheHandler(postSvc)
	healthHandler := handler.NewHealthHandler()

	router := api.NewRouter(postHandler, mediaHandler, cacheHandler, healthHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := resultCache.Close(); err != nil {
		logger.Error("cache close error", "error", err)
	}

	logger.Info("shutdown complete")
}
