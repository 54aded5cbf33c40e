package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/toolweaver/toolweaver/internal/bus"
	rescache "github.com/toolweaver/toolweaver/internal/cache"
	"github.com/toolweaver/toolweaver/internal/domain"
	"github.com/toolweaver/toolweaver/internal/domain/pipeline"
	"github.com/toolweaver/toolweaver/internal/domain/tool"
	"github.com/toolweaver/toolweaver/internal/pathres"
	"github.com/toolweaver/toolweaver/internal/port/invoker"

	otelx "github.com/toolweaver/toolweaver/internal/adapter/otel"
)

// Runner composes the tool registry, pipeline definitions, caching invoker,
// resolver and event bus into the operations the outer surfaces (HTTP, MCP)
// expose.
type Runner struct {
	log      *slog.Logger
	bus      *bus.Bus
	inv      invoker.Invoker
	registry *tool.Registry
	resolver *pathres.Resolver
	results  *rescache.ResultCache
	defs     map[string]*pipeline.Definition
	metrics  *otelx.Metrics
}

// NewRunner creates a Runner. metrics may be nil when telemetry is disabled;
// defs may be nil when no pipeline directory is configured.
func NewRunner(
	log *slog.Logger,
	b *bus.Bus,
	inv invoker.Invoker,
	registry *tool.Registry,
	resolver *pathres.Resolver,
	results *rescache.ResultCache,
	defs map[string]*pipeline.Definition,
	metrics *otelx.Metrics,
) *Runner {
	if defs == nil {
		defs = make(map[string]*pipeline.Definition)
	}
	return &Runner{
		log:      log,
		bus:      b,
		inv:      inv,
		registry: registry,
		resolver: resolver,
		results:  results,
		defs:     defs,
		metrics:  metrics,
	}
}

// RunPipeline validates and executes a pipeline definition, publishing
// lifecycle events and recording metrics along the way.
func (r *Runner) RunPipeline(ctx context.Context, def *pipeline.Definition) (*pipeline.Result, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%w: pipeline %q: %w", domain.ErrValidation, def.ID, err)
	}

	ctx, span := otelx.StartPipelineSpan(ctx, def.Name, len(def.Steps))
	defer span.End()

	p := def.Build(r.inv)
	r.bus.Publish(bus.KindPipelineStarted, bus.PipelineStarted{
		Pipeline: def.Name,
		Steps:    len(def.Steps),
	})
	r.log.Info("pipeline started", "pipeline", def.Name, "steps", len(def.Steps))

	res := p.Execute(ctx)

	for _, sr := range res.Steps {
		if sr.Success {
			r.bus.Publish(bus.KindStepCompleted, bus.StepCompleted{
				Pipeline: def.Name,
				Step:     sr.Name,
				Tool:     sr.ToolID,
				Duration: sr.Duration,
			})
		} else {
			r.bus.Publish(bus.KindStepFailed, bus.StepFailed{
				Pipeline: def.Name,
				Step:     sr.Name,
				Tool:     sr.ToolID,
				Reason:   sr.Error,
			})
		}
		if r.metrics != nil {
			r.metrics.StepDuration.Record(ctx, sr.Duration.Seconds())
			if !sr.Success {
				r.metrics.StepsFailed.Add(ctx, 1)
			}
		}
	}

	r.bus.Publish(bus.KindPipelineFinished, bus.PipelineFinished{
		Pipeline: def.Name,
		Success:  res.Success,
		Duration: res.TotalDuration,
		Errors:   len(res.Errors),
	})
	if r.metrics != nil {
		r.metrics.PipelineDuration.Record(ctx, res.TotalDuration.Seconds())
	}
	r.log.Info("pipeline finished",
		"pipeline", def.Name,
		"success", res.Success,
		"duration", res.TotalDuration,
		"errors", len(res.Errors))

	return res, nil
}

// RunByID executes a registered pipeline definition by id.
func (r *Runner) RunByID(ctx context.Context, id string) (*pipeline.Result, error) {
	def, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("pipeline %q: %w", id, domain.ErrNotFound)
	}
	return r.RunPipeline(ctx, def)
}

// Pipelines returns the registered pipeline definitions sorted by id.
func (r *Runner) Pipelines() []*pipeline.Definition {
	out := make([]*pipeline.Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tools returns the registered tool specs sorted by id.
func (r *Runner) Tools() []tool.Spec {
	return r.registry.List()
}

// CacheStats returns a snapshot of result cache effectiveness.
func (r *Runner) CacheStats() rescache.Stats {
	return r.results.GetStats()
}

// InvalidateCache drops every cached result for path and publishes a
// cache.invalidated event when anything was dropped.
func (r *Runner) InvalidateCache(path string) int {
	dropped := r.results.Invalidate(path)
	if dropped > 0 {
		r.bus.Publish(bus.KindCacheInvalidated, bus.CacheInvalidated{
			Path:    path,
			Entries: dropped,
		})
	}
	return dropped
}

// ResolvePath resolves a user-supplied path through the ordered strategies.
func (r *Runner) ResolvePath(input string) (*pathres.Resolution, error) {
	return r.resolver.Resolve(input)
}
