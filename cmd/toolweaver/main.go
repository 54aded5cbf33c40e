package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	twhttp "github.com/toolweaver/toolweaver/internal/adapter/http"
	"github.com/toolweaver/toolweaver/internal/adapter/mcpserver"
	twnats "github.com/toolweaver/toolweaver/internal/adapter/nats"
	otelx "github.com/toolweaver/toolweaver/internal/adapter/otel"
	"github.com/toolweaver/toolweaver/internal/adapter/procrpc"
	"github.com/toolweaver/toolweaver/internal/adapter/ristretto"
	"github.com/toolweaver/toolweaver/internal/bus"
	rescache "github.com/toolweaver/toolweaver/internal/cache"
	"github.com/toolweaver/toolweaver/internal/config"
	"github.com/toolweaver/toolweaver/internal/domain/pipeline"
	"github.com/toolweaver/toolweaver/internal/domain/tool"
	"github.com/toolweaver/toolweaver/internal/logger"
	"github.com/toolweaver/toolweaver/internal/pathres"
	"github.com/toolweaver/toolweaver/internal/service"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "path to YAML config file")
	mcpMode := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	if err := run(*configPath, *mcpMode); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, mcpMode bool) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"registry", cfg.Registry.Path,
		"pipelines_dir", cfg.Pipelines.Dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	var metrics *otelx.Metrics
	if cfg.Otel.Enabled {
		shutdown, err := otelx.Init(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn("otel shutdown", "error", err)
			}
		}()

		metrics, err = otelx.NewMetrics()
		if err != nil {
			return fmt.Errorf("otel metrics: %w", err)
		}
	}

	// --- Domain ---

	registry, err := tool.LoadFile(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}
	log.Info("tool registry loaded", "tools", registry.Len())

	defs, err := pipeline.LoadFromDirectory(cfg.Pipelines.Dir)
	if err != nil {
		return fmt.Errorf("pipelines: %w", err)
	}
	log.Info("pipelines loaded", "count", len(defs))

	resolver, err := pathres.New("", pathres.Config{
		AllowedDirs: cfg.Resolver.AllowedDirs,
		ParentDepth: cfg.Resolver.ParentDepth,
		FuzzyDepth:  cfg.Resolver.FuzzyDepth,
	})
	if err != nil {
		return fmt.Errorf("resolver: %w", err)
	}

	// --- Caches ---

	results := rescache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)

	raw, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("raw cache: %w", err)
	}
	defer raw.Close()

	// --- Events ---

	eventBus := bus.New()

	if cfg.NATS.URL != "" {
		bridge, err := twnats.New(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			// The bridge is an optional mirror; a missing broker must not
			// block local pipeline runs.
			log.Warn("nats bridge disabled", "url", cfg.NATS.URL, "error", err)
		} else {
			bridge.Attach(eventBus)
			defer bridge.Close()
			log.Info("nats bridge attached", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)
		}
	}

	// --- Invocation chain ---

	transport := procrpc.New(registry, cfg.RPC.Timeout)
	inv := service.NewCachingInvoker(transport, resolver, results, raw, cfg.Cache.L1TTL, log, metrics)

	runner := service.NewRunner(log, eventBus, inv, registry, resolver, results, defs, metrics)

	// --- Serve ---

	if mcpMode {
		log.Info("serving MCP over stdio")
		return mcpserver.ServeStdio(mcpserver.New(runner, log))
	}
	return serveHTTP(ctx, cfg, runner, log)
}

func serveHTTP(ctx context.Context, cfg *config.Config, runner *service.Runner, log *slog.Logger) error {
	handlers := twhttp.NewHandlers(runner, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Minute))
	if cfg.Otel.Enabled {
		r.Use(otelx.HTTPMiddleware(cfg.Logging.Service))
	}

	twhttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
