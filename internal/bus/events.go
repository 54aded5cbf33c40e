package bus

import "time"

// Kind identifies one of the closed set of event kinds carried on the bus.
type Kind string

const (
	KindPipelineStarted  Kind = "pipeline.started"
	KindStepCompleted    Kind = "pipeline.step_completed"
	KindStepFailed       Kind = "pipeline.step_failed"
	KindPipelineFinished Kind = "pipeline.finished"
	KindFileChanged      Kind = "file.changed"
	KindCacheInvalidated Kind = "cache.invalidated"
)

// Event is one published occurrence. Payload holds the kind-specific struct.
type Event struct {
	Kind    Kind      `json:"kind"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// PipelineStarted is published before a pipeline's first step runs.
type PipelineStarted struct {
	Pipeline string `json:"pipeline"`
	Steps    int    `json:"steps"`
}

// StepCompleted is published for each step that produced a result.
type StepCompleted struct {
	Pipeline string        `json:"pipeline"`
	Step     string        `json:"step"`
	Tool     string        `json:"tool"`
	Duration time.Duration `json:"duration"`
}

// StepFailed is published for each step that was skipped or errored.
type StepFailed struct {
	Pipeline string `json:"pipeline"`
	Step     string `json:"step"`
	Tool     string `json:"tool"`
	Reason   string `json:"reason"`
}

// PipelineFinished is published after the last step, success or not.
type PipelineFinished struct {
	Pipeline string        `json:"pipeline"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Errors   int           `json:"errors"`
}

// FileChanged is published by file watchers feeding pipeline triggers.
type FileChanged struct {
	Path string `json:"path"`
}

// CacheInvalidated is published when cached results for a path are dropped.
type CacheInvalidated struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}
