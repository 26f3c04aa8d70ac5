package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/rocheseb/satloc/internal/api"
	"github.com/rocheseb/satloc/internal/auth"
	"github.com/rocheseb/satloc/internal/propagation"
	"github.com/rocheseb/satloc/internal/tle"
	"github.com/rocheseb/satloc/internal/track"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	addr := os.Getenv("SATLOC_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	tleCfg := loadTLEConfig(logger)
	client := tle.NewClient(tleCfg.SourceURL, logger)
	cache := tle.NewCache(tleCfg.CacheDir, tleCfg.MaxFiles)
	source := tle.NewCachedSource(client, cache, tleCfg.MaxAge, logger)

	builder := track.NewBuilder(source, propagation.Factory, logger)

	workers := loadWorkers(logger)
	trustProxy := loadTrustProxy(logger)

	srv := api.NewServer(addr, workerBuilder{builder, workers}, logger, authCfg, trustProxy)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "workers", workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// workerBuilder injects the configured worker count into every request that
// does not carry one.
type workerBuilder struct {
	builder *track.Builder
	workers int
}

func (wb workerBuilder) Build(ctx context.Context, req track.Request) (*track.Track, error) {
	if req.Workers == 0 {
		req.Workers = wb.workers
	}
	return wb.builder.Build(ctx, req)
}

func logLevel() slog.Level {
	switch os.Getenv("SATLOC_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("SATLOC_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("SATLOC_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("SATLOC_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("SATLOC_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

// tleConfig holds element set retrieval settings.
type tleConfig struct {
	SourceURL string
	CacheDir  string
	MaxFiles  int
	MaxAge    time.Duration
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		CacheDir: "/tmp/satloc/tle",
		MaxFiles: 3,
		MaxAge:   6 * time.Hour,
	}

	if v := os.Getenv("SATLOC_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("SATLOC_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("SATLOC_TLE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATLOC_TLE_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	if v := os.Getenv("SATLOC_TLE_MAX_AGE"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 1 {
			logger.Warn("invalid SATLOC_TLE_MAX_AGE value, using default", "value", v, "default", 21600)
		} else {
			cfg.MaxAge = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("TLE config",
		"source_url", cfg.SourceURL,
		"cache_dir", cfg.CacheDir,
		"max_files", cfg.MaxFiles,
		"max_age_seconds", cfg.MaxAge.Seconds(),
	)

	return cfg
}

func loadWorkers(logger *slog.Logger) int {
	workers := runtime.NumCPU()
	if v := os.Getenv("SATLOC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATLOC_WORKERS value, using default", "value", v, "default", workers)
		} else {
			workers = n
		}
	}
	return workers
}

func loadTrustProxy(logger *slog.Logger) bool {
	v := os.Getenv("SATLOC_TRUST_PROXY")
	if v == "" {
		return false
	}
	trust, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid SATLOC_TRUST_PROXY value, defaulting to false", "value", v)
		return false
	}
	return trust
}
