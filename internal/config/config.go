// Package config provides hierarchical configuration loading for ToolWeaver.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the ToolWeaver daemon.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	RPC       RPC       `yaml:"rpc"`
	Cache     Cache     `yaml:"cache"`
	Resolver  Resolver  `yaml:"resolver"`
	Registry  Registry  `yaml:"registry"`
	Pipelines Pipelines `yaml:"pipelines"`
	NATS      NATS      `yaml:"nats"`
	Otel      Otel      `yaml:"otel"`
}

// Server holds the admin HTTP server configuration.
type Server struct {
	Port string `yaml:"port"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level     string `yaml:"level"`
	Service   string `yaml:"service"`
	Async     bool   `yaml:"async"`
	QueueSize int    `yaml:"queue_size"` // async record buffer; records drop when full
}

// RPC holds tool process invocation configuration.
type RPC struct {
	Timeout time.Duration `yaml:"timeout"` // per-call deadline when the caller sets none
}

// Cache holds result cache configuration.
type Cache struct {
	MaxEntries  int           `yaml:"max_entries"`    // bounded result cache size
	TTL         time.Duration `yaml:"ttl"`            // result entry time-to-live
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"` // raw-response byte cache budget
	L1TTL       time.Duration `yaml:"l1_ttl"`
}

// Resolver holds path resolution configuration.
type Resolver struct {
	AllowedDirs []string `yaml:"allowed_dirs"`
	ParentDepth int      `yaml:"parent_depth"`
	FuzzyDepth  int      `yaml:"fuzzy_depth"`
}

// Registry holds the static tool registry location.
type Registry struct {
	Path string `yaml:"path"`
}

// Pipelines holds the pipeline definition directory.
type Pipelines struct {
	Dir string `yaml:"dir"`
}

// NATS holds the optional event bridge configuration. An empty URL disables
// the bridge.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"` // subject prefix for republished events
}

// Otel holds the optional OpenTelemetry exporter configuration.
type Otel struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP gRPC endpoint
}

// Defaults returns a Config with sensible default values for local use.
func Defaults() Config {
	return Config{
		Server: Server{
			Port: "8710",
		},
		Logging: Logging{
			Level:     "info",
			Service:   "toolweaver",
			QueueSize: 1024,
		},
		RPC: RPC{
			Timeout: 30 * time.Second,
		},
		Cache: Cache{
			MaxEntries:  500,
			TTL:         30 * time.Minute,
			L1MaxSizeMB: 64,
			L1TTL:       10 * time.Minute,
		},
		Resolver: Resolver{
			ParentDepth: 5,
			FuzzyDepth:  4,
		},
		Registry: Registry{
			Path: "tools.yaml",
		},
		Pipelines: Pipelines{
			Dir: "pipelines",
		},
		NATS: NATS{
			Subject: "pipelines",
		},
		Otel: Otel{
			Endpoint: "localhost:4317",
		},
	}
}
