package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grid-backtest/internal/api"
	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/logger"
	"grid-backtest/internal/metrics"
	"grid-backtest/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", os.Getenv("GRID_CONFIG"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if port := os.Getenv("API_PORT"); port != "" {
		cfg.API.Addr = ":" + port
	}

	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	runs, err := store.Open(cfg.API.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open run store %s: %v", cfg.API.DBPath, err)
	}
	defer runs.Close()
	logger.Infof("Run history at %s", cfg.API.DBPath)

	cache := data.NewCache(cfg.Data.CacheTTL, time.Minute)
	defer cache.Close()
	source := data.NewCachedSource(data.NewBinanceSource(cfg.Data.BinanceBaseURL), cache, "binance")

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./web/dist"
	}

	router := api.NewRouter(api.Deps{
		Config:    *cfg,
		Source:    source,
		Runs:      runs,
		Metrics:   metrics.New(),
		StaticDir: staticDir,
	})

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown: %v", err)
	}
}
