package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "toolweaver.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TOOLWEAVER_PORT")
	setString(&cfg.Logging.Level, "TOOLWEAVER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TOOLWEAVER_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TOOLWEAVER_LOG_ASYNC")
	setInt(&cfg.Logging.QueueSize, "TOOLWEAVER_LOG_QUEUE_SIZE")
	setDuration(&cfg.RPC.Timeout, "TOOLWEAVER_RPC_TIMEOUT")
	setInt(&cfg.Cache.MaxEntries, "TOOLWEAVER_CACHE_MAX_ENTRIES")
	setDuration(&cfg.Cache.TTL, "TOOLWEAVER_CACHE_TTL")
	setInt64(&cfg.Cache.L1MaxSizeMB, "TOOLWEAVER_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.L1TTL, "TOOLWEAVER_CACHE_L1_TTL")
	setStrings(&cfg.Resolver.AllowedDirs, "TOOLWEAVER_ALLOWED_DIRS")
	setInt(&cfg.Resolver.ParentDepth, "TOOLWEAVER_PARENT_DEPTH")
	setInt(&cfg.Resolver.FuzzyDepth, "TOOLWEAVER_FUZZY_DEPTH")
	setString(&cfg.Registry.Path, "TOOLWEAVER_REGISTRY")
	setString(&cfg.Pipelines.Dir, "TOOLWEAVER_PIPELINES_DIR")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "TOOLWEAVER_NATS_SUBJECT")
	setBool(&cfg.Otel.Enabled, "TOOLWEAVER_OTEL_ENABLED")
	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.RPC.Timeout <= 0 {
		return errors.New("rpc.timeout must be positive")
	}
	if cfg.Cache.MaxEntries < 1 {
		return errors.New("cache.max_entries must be >= 1")
	}
	if cfg.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if cfg.Registry.Path == "" {
		return errors.New("registry.path is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setStrings(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, string(os.PathListSeparator))
		out := parts[:0]
		for _, p := range parts {
			if p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
