// Package enclave implements the Enclave facade: a defense-in-depth sandbox
// that executes untrusted AgentScript on behalf of an agent, gated by AST
// validation, AST-to-AST transformation, optional AI risk scoring, a
// large-object reference sidecar, and pluggable execution adapters.
package enclave

import (
	"context"
	"time"

	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
	"goa.design/goa-ai/runtime/enclave/scoring"
)

// SecurityLevel names a default configuration bundle for execution and
// sanitization limits. Explicit caller options override level defaults
// field-by-field.
type SecurityLevel string

// Supported security levels.
const (
	LevelStrict   SecurityLevel = "strict"
	LevelStandard SecurityLevel = "standard"
	LevelRelaxed  SecurityLevel = "relaxed"
)

// AdapterKind selects which Sandbox Adapter executes a run.
type AdapterKind string

// Supported adapter kinds.
const (
	AdapterVM           AdapterKind = "vm"
	AdapterWorkerPool   AdapterKind = "worker_threads"
	AdapterIsolatedVM   AdapterKind = "isolated-vm"
)

// LevelDefaults is the default configuration bundle carried by a SecurityLevel.
type LevelDefaults struct {
	Timeout                time.Duration
	MaxIterations          int
	MaxToolCalls            int
	SanitizeStackTraces    bool
	MaxSanitizeDepth       int
	MaxSanitizeProperties  int
	AllowFunctionsInGlobals bool
	MaxConsoleOutputBytes  int
	MaxConsoleCalls        int
}

// ReferenceConfig bounds the Reference Sidecar used to elide large strings
// from the sandbox.
type ReferenceConfig struct {
	MaxTotalSize        int
	MaxReferenceSize    int
	ExtractionThreshold int
	MaxResolvedSize     int
	AllowComposites     bool
	MaxReferenceCount   int
	MaxResolutionDepth  int
}

// ToolHandler executes a tool call issued from AgentScript via callTool.
// args is always a plain, non-array, non-nil JSON object; the Enclave does
// not enforce a schema on the returned value beyond JSON-serializability.
type ToolHandler func(ctx context.Context, name string, args map[string]any) (any, error)

// Config is the effective configuration after merging a SecurityLevel's
// defaults with caller overrides.
type Config struct {
	SecurityLevel SecurityLevel
	Timeout       time.Duration
	MaxIterations int
	MaxToolCalls  int
	// MemoryLimit is advisory; goja does not enforce a hard heap ceiling, so
	// adapters use it only to size periodic GC-pressure checks.
	MemoryLimit int64
	Adapter     AdapterKind

	AllowBuiltins bool
	Globals       map[string]any

	SanitizeStackTraces     bool
	MaxSanitizeDepth        int
	MaxSanitizeProperties   int
	AllowFunctionsInGlobals bool

	MaxConsoleOutputBytes int
	MaxConsoleCalls       int

	Validate  bool
	Transform bool

	Sidecar      *ReferenceConfig
	ScoringGate  scoring.Gate
	WorkerPool   *WorkerPoolConfig
}

// WorkerPoolConfig configures the Worker Pool Adapter.
type WorkerPoolConfig struct {
	// Size is the maximum number of concurrently live workers.
	Size int
	// MaxExecutionsPerWorker recycles a worker after this many executions.
	MaxExecutionsPerWorker int
	// RecycleGrace bounds how long a worker is given to drain before being
	// forcibly replaced after a hang or unhandled error.
	RecycleGrace time.Duration
}

// ReferenceID is an opaque token returned when storing a value in the
// Reference Sidecar, resolvable only through the sidecar's API during the
// same execution.
type ReferenceID string

// Stats records mutable per-execution counters. Only the Safe Runtime and
// the chosen adapter mutate these fields.
type Stats struct {
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	ToolCallCount    int
	IterationCount   int
	ConsoleCallCount int
	ConsoleByteCount int
}

// Result is the outcome of a single Enclave.Run call.
type Result struct {
	Success       bool
	Value         any
	Stats         Stats
	Error         *enclaveerrors.Error
	ScoringResult *scoring.Result
}
