// Command transform-edge is the host process: it loads the process
// configuration, connects the KV store, starts the cached config
// facade's refresh loop, builds the transform cache manager, and serves
// the operational endpoints (metrics, health). Image-serving routes are
// the responsibility of the edge layer in front of this process; this
// binary owns the caching and configuration core.
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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitaliisemenov/transform-edge/internal/cachedconfig"
	"github.com/vitaliisemenov/transform-edge/internal/configapi"
	"github.com/vitaliisemenov/transform-edge/internal/configstore"
	"github.com/vitaliisemenov/transform-edge/internal/hostconfig"
	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
	"github.com/vitaliisemenov/transform-edge/internal/metricsexport"
	"github.com/vitaliisemenov/transform-edge/internal/obslog"
	"github.com/vitaliisemenov/transform-edge/internal/transformcache"
)

func main() {
	configPath := flag.String("config", "", "path to a host config YAML file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "transform-edge: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := hostconfig.Load(configPath)
	if err != nil {
		return err
	}

	logger := buildLogger(cfg.Log)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	env := environMap()
	api := configapi.New(configstore.NewStore(store, logger), configapi.Options{
		Env:         env,
		Environment: cfg.Environment,
		Validator:   configapi.SchemaValidator{},
		Logger:      logger,
	})

	configFacade := cachedconfig.New(api, cachedconfig.Options{
		RefreshIntervalMs: cfg.CachedConfig.RefreshIntervalMs,
		Environment:       cfg.Environment,
	}, logger, cachedconfig.NewMetrics(prometheus.DefaultRegisterer))
	if err := configFacade.Initialize(ctx); err != nil {
		return err
	}
	defer configFacade.Close()

	cacheManager, err := transformcache.NewManager(store, transformcache.Config{
		Enabled:            cfg.TransformCache.Enabled,
		Binding:            cfg.TransformCache.Binding,
		Prefix:             cfg.TransformCache.Prefix,
		MaxSize:            cfg.TransformCache.MaxSize,
		DefaultTTL:         cfg.TransformCache.DefaultTTLSeconds,
		ContentTypeTTLs:    cfg.TransformCache.ContentTypeTTLs,
		BackgroundIndexing: cfg.TransformCache.BackgroundIndexing,
		PurgeDelay:         time.Duration(cfg.TransformCache.PurgeDelayMs) * time.Millisecond,
		DisallowedPaths:    cfg.TransformCache.DisallowedPaths,
		MemoryCacheSize:    cfg.TransformCache.MemoryCacheSize,
		Debug:              cfg.TransformCache.Debug,
	}, transformcache.NewMetrics(prometheus.DefaultRegisterer), logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		metricsHandler := metricsexport.NewHandler(metricsexport.DefaultConfig(), nil, logger)
		defer metricsHandler.Close()
		mux.Handle(cfg.Metrics.Path, metricsHandler)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := cacheManager.GetStats()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","hotEntries":%d}`, stats.HotSize)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "transform-edge listening", "addr", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "transform-edge shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildLogger constructs the process logger from the log section: JSON
// or text handler at the configured level.
func buildLogger(cfg hostconfig.LogConfig) obslog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return obslog.NewSlog(slog.New(handler))
}

// buildStore connects the configured KV backend.
func buildStore(ctx context.Context, cfg *hostconfig.Config, logger obslog.Logger) (kvstore.Store, func(), error) {
	switch cfg.KVStore.Backend {
	case "redis":
		redisStore, err := kvstore.NewRedisStore(ctx, kvstore.RedisOptions{
			Addr:            cfg.KVStore.Redis.Addr,
			Password:        cfg.KVStore.Redis.Password,
			DB:              cfg.KVStore.Redis.DB,
			PoolSize:        cfg.KVStore.Redis.PoolSize,
			MinIdleConns:    cfg.KVStore.Redis.MinIdleConns,
			DialTimeout:     cfg.KVStore.Redis.DialTimeout,
			ReadTimeout:     cfg.KVStore.Redis.ReadTimeout,
			WriteTimeout:    cfg.KVStore.Redis.WriteTimeout,
			MaxRetries:      cfg.KVStore.Redis.MaxRetries,
			MinRetryBackoff: cfg.KVStore.Redis.MinRetryBackoff,
			MaxRetryBackoff: cfg.KVStore.Redis.MaxRetryBackoff,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return redisStore, func() { _ = redisStore.Close() }, nil
	default:
		return kvstore.NewMemoryStore(logger), func() {}, nil
	}
}

// environMap converts os.Environ into the map configapi resolves
// "${NAME}" references against.
func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}
