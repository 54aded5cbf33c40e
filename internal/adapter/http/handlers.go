// Package http exposes ToolWeaver's operations over a chi-routed REST API.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/toolweaver/toolweaver/internal/domain/pipeline"
	"github.com/toolweaver/toolweaver/internal/pathres"
	"github.com/toolweaver/toolweaver/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	runner *service.Runner
	log    *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(runner *service.Runner, log *slog.Logger) *Handlers {
	return &Handlers{runner: runner, log: log}
}

// Health responds with a liveness payload.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTools returns the registered tool specs.
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Tools())
}

// ListPipelines returns the registered pipeline definitions.
func (h *Handlers) ListPipelines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Pipelines())
}

// RunPipeline executes a registered pipeline by id.
func (h *Handlers) RunPipeline(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	res, err := h.runner.RunByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RunAdhocPipeline validates and executes a pipeline definition from the
// request body without registering it.
func (h *Handlers) RunAdhocPipeline(w http.ResponseWriter, r *http.Request) {
	def, ok := readJSON[pipeline.Definition](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	res, err := h.runner.RunPipeline(r.Context(), &def)
	if err != nil {
		writeDomainError(w, err, "pipeline not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CacheStats returns the result cache counters.
func (h *Handlers) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.CacheStats())
}

// InvalidateCache drops cached results for the path in the request body.
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Path string `json:"path"`
	}](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	dropped := h.runner.InvalidateCache(req.Path)
	writeJSON(w, http.StatusOK, map[string]any{"path": req.Path, "dropped": dropped})
}

// ResolvePath resolves the path query parameter through the lookup
// strategies. Failures return 404 with the full attempt trail.
func (h *Handlers) ResolvePath(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("path")
	if input == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	res, err := h.runner.ResolvePath(input)
	if err != nil {
		var resErr *pathres.ResolutionError
		if errors.As(err, &resErr) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":     resErr.Error(),
				"input":     resErr.Input,
				"attempted": resErr.Attempted,
			})
			return
		}
		writeDomainError(w, err, "path not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
