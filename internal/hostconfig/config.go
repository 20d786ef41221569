// Package hostconfig loads the process-level configuration the host
// binary needs to wire everything up: server bind address, which KV
// store backend to use, the transform cache's tunables, and the cached
// config facade's refresh interval. This is deliberately separate from
// the KV-backed versioned configuration store: hostconfig answers "how
// does this process start", the version store answers "how does the
// service behave".
package hostconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Environment    string               `mapstructure:"environment" validate:"required"`
	Server         ServerConfig         `mapstructure:"server"`
	KVStore        KVStoreConfig        `mapstructure:"kv_store"`
	TransformCache TransformCacheConfig `mapstructure:"transform_cache"`
	CachedConfig   CachedConfigConfig   `mapstructure:"cached_config"`
	Log            LogConfig            `mapstructure:"log"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
}

// ServerConfig holds the settings of the HTTP listener that serves the
// metrics and health endpoints.
type ServerConfig struct {
	Port                    int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host                    string        `mapstructure:"host"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// KVStoreConfig selects and configures the KV store backend.
type KVStoreConfig struct {
	Backend string      `mapstructure:"backend" validate:"oneof=memory redis"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig mirrors internal/kvstore.RedisOptions, since that is
// exactly what gets built from it at wiring time.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// TransformCacheConfig mirrors transformcache.Config, in mapstructure form.
type TransformCacheConfig struct {
	Enabled            bool           `mapstructure:"enabled"`
	Binding            string         `mapstructure:"binding"`
	Prefix             string         `mapstructure:"prefix"`
	MaxSize            int64          `mapstructure:"max_size" validate:"min=1"`
	DefaultTTLSeconds  int            `mapstructure:"default_ttl" validate:"min=1"`
	ContentTypeTTLs    map[string]int `mapstructure:"content_type_ttls"`
	BackgroundIndexing bool           `mapstructure:"background_indexing"`
	PurgeDelayMs       int            `mapstructure:"purge_delay_ms"`
	DisallowedPaths    []string       `mapstructure:"disallowed_paths"`
	MemoryCacheSize    int            `mapstructure:"memory_cache_size" validate:"min=1"`
	Debug              bool           `mapstructure:"debug"`
}

// CachedConfigConfig is the cached config facade's option set.
type CachedConfigConfig struct {
	RefreshIntervalMs int `mapstructure:"refresh_interval_ms" validate:"min=1000"`
}

// LogConfig holds what slog needs: a level and an output format.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// MetricsConfig toggles the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from built-in defaults, an optional YAML
// file, and environment variables (TRANSFORM_EDGE_-prefixed, dots
// replaced by underscores), in that ascending order of priority, then
// validates the result via the struct tags above.
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TRANSFORM_EDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables and
// defaults only, skipping any config file lookup.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func setDefaults() {
	viper.SetDefault("environment", "development")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.graceful_shutdown_timeout", "30s")

	viper.SetDefault("kv_store.backend", "memory")
	viper.SetDefault("kv_store.redis.addr", "localhost:6379")
	viper.SetDefault("kv_store.redis.db", 0)
	viper.SetDefault("kv_store.redis.pool_size", 10)
	viper.SetDefault("kv_store.redis.min_idle_conns", 5)
	viper.SetDefault("kv_store.redis.dial_timeout", "5s")
	viper.SetDefault("kv_store.redis.read_timeout", "3s")
	viper.SetDefault("kv_store.redis.write_timeout", "3s")
	viper.SetDefault("kv_store.redis.max_retries", 3)
	viper.SetDefault("kv_store.redis.min_retry_backoff", "100ms")
	viper.SetDefault("kv_store.redis.max_retry_backoff", "500ms")

	viper.SetDefault("transform_cache.enabled", true)
	viper.SetDefault("transform_cache.binding", "TRANSFORM_CACHE")
	viper.SetDefault("transform_cache.prefix", "transform")
	viper.SetDefault("transform_cache.max_size", 10*1024*1024)
	viper.SetDefault("transform_cache.default_ttl", 86400)
	viper.SetDefault("transform_cache.background_indexing", true)
	viper.SetDefault("transform_cache.purge_delay_ms", 50)
	viper.SetDefault("transform_cache.memory_cache_size", 200)
	viper.SetDefault("transform_cache.debug", false)

	viper.SetDefault("cached_config.refresh_interval_ms", 30000)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if cfg.KVStore.Backend == "redis" && cfg.KVStore.Redis.Addr == "" {
		return fmt.Errorf("kv_store.redis.addr is required when kv_store.backend is \"redis\"")
	}
	return nil
}
