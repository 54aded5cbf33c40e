package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	rescache "github.com/toolweaver/toolweaver/internal/cache"
	"github.com/toolweaver/toolweaver/internal/pathres"
	bytecache "github.com/toolweaver/toolweaver/internal/port/cache"
	"github.com/toolweaver/toolweaver/internal/port/invoker"

	otelx "github.com/toolweaver/toolweaver/internal/adapter/otel"
)

// CachingInvoker wraps a transport invoker with path resolution and two
// cache tiers: file-targeted calls memoize in the content-hash result cache,
// everything else goes through the raw byte cache keyed by request digest.
type CachingInvoker struct {
	next     invoker.Invoker
	resolver *pathres.Resolver
	results  *rescache.ResultCache
	raw      bytecache.Cache
	rawTTL   time.Duration
	log      *slog.Logger
	metrics  *otelx.Metrics
}

// NewCachingInvoker creates a CachingInvoker. raw and metrics may be nil, in
// which case the corresponding tier or instrumentation is skipped.
func NewCachingInvoker(
	next invoker.Invoker,
	resolver *pathres.Resolver,
	results *rescache.ResultCache,
	raw bytecache.Cache,
	rawTTL time.Duration,
	log *slog.Logger,
	metrics *otelx.Metrics,
) *CachingInvoker {
	return &CachingInvoker{
		next:     next,
		resolver: resolver,
		results:  results,
		raw:      raw,
		rawTTL:   rawTTL,
		log:      log,
		metrics:  metrics,
	}
}

// Invoke resolves any "file" argument, consults the caches, and falls through
// to the wrapped invoker on a miss.
func (ci *CachingInvoker) Invoke(ctx context.Context, toolID, action string, arguments any) (json.RawMessage, error) {
	ctx, span := otelx.StartToolCallSpan(ctx, toolID, action)
	defer span.End()
	if ci.metrics != nil {
		ci.metrics.ToolCalls.Add(ctx, 1)
	}

	if params, file, ok := fileArgument(arguments); ok {
		return ci.invokeFile(ctx, toolID, action, params, file)
	}
	return ci.invokeRaw(ctx, toolID, action, arguments)
}

// invokeFile memoizes a file-targeted call by content hash: a changed file
// hashes differently and misses, so results never need explicit expiry to
// stay correct.
func (ci *CachingInvoker) invokeFile(ctx context.Context, toolID, action string, params map[string]any, file string) (json.RawMessage, error) {
	res, err := ci.resolver.Resolve(file)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", file, err)
	}
	if len(res.Attempted) > 0 {
		ci.log.Debug("path resolved after retries",
			"input", file, "resolved", res.ResolvedPath,
			"strategy", res.Strategy, "attempts", len(res.Attempted))
	}

	contentHash, err := rescache.HashFile(res.ResolvedPath)
	if err != nil {
		return nil, err
	}

	kind := toolID + "/" + action
	configHash := hashArguments(params)

	if data, ok := ci.results.Get(res.ResolvedPath, kind, contentHash, configHash); ok {
		ci.countCache(ctx, true)
		return data, nil
	}
	ci.countCache(ctx, false)

	resolved := make(map[string]any, len(params))
	for k, v := range params {
		resolved[k] = v
	}
	resolved["file"] = res.ResolvedPath

	data, err := ci.next.Invoke(ctx, toolID, action, resolved)
	if err != nil {
		return nil, err
	}
	ci.results.Set(res.ResolvedPath, kind, contentHash, configHash, data)
	return data, nil
}

// invokeRaw memoizes by request digest in the byte cache, when one is wired.
func (ci *CachingInvoker) invokeRaw(ctx context.Context, toolID, action string, arguments any) (json.RawMessage, error) {
	if ci.raw == nil {
		return ci.next.Invoke(ctx, toolID, action, arguments)
	}

	key := requestDigest(toolID, action, arguments)
	if data, ok, err := ci.raw.Get(ctx, key); err == nil && ok {
		ci.countCache(ctx, true)
		return data, nil
	}
	ci.countCache(ctx, false)

	data, err := ci.next.Invoke(ctx, toolID, action, arguments)
	if err != nil {
		return nil, err
	}
	if err := ci.raw.Set(ctx, key, data, ci.rawTTL); err != nil {
		ci.log.Warn("raw cache set", "tool", toolID, "error", err)
	}
	return data, nil
}

func (ci *CachingInvoker) countCache(ctx context.Context, hit bool) {
	if ci.metrics == nil {
		return
	}
	if hit {
		ci.metrics.CacheHits.Add(ctx, 1)
	} else {
		ci.metrics.CacheMisses.Add(ctx, 1)
	}
}

// fileArgument reports whether arguments is a params map carrying a "file"
// string, the marker for a file-targeted call.
func fileArgument(arguments any) (map[string]any, string, bool) {
	params, ok := arguments.(map[string]any)
	if !ok {
		return nil, "", false
	}
	file, ok := params["file"].(string)
	if !ok || file == "" {
		return nil, "", false
	}
	return params, file, true
}

// hashArguments digests the params map minus the "file" entry, which is
// already part of the cache key as the resolved path.
func hashArguments(params map[string]any) string {
	rest := make(map[string]any, len(params))
	for k, v := range params {
		if k != "file" {
			rest[k] = v
		}
	}
	data, err := json.Marshal(rest)
	if err != nil {
		return "unhashable"
	}
	return rescache.HashBytes(data)
}

// requestDigest builds a stable byte-cache key from the full request.
func requestDigest(toolID, action string, arguments any) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", toolID, action)
	if data, err := json.Marshal(arguments); err == nil {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
