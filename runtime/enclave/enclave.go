package enclave

import (
	"context"
	"fmt"
	"time"

	"goa.design/goa-ai/runtime/enclave/asttransform"
	"goa.design/goa-ai/runtime/enclave/astvalidate"
	"goa.design/goa-ai/runtime/enclave/config"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
	"goa.design/goa-ai/runtime/enclave/scoring"
	"goa.design/goa-ai/runtime/enclave/telemetry"
)

// baseAllowedGlobals is the closed set every AgentScript execution may
// reference regardless of caller-supplied globals, per spec.md §4.1/§6.
var baseAllowedGlobals = []string{
	"callTool", "parallel", "Math", "JSON", "Array", "Object", "String", "Number", "Date", "console",
}

// safeRuntimeGlobals is the `__safe_*` helper family the transformer rewrites
// AgentScript into (asttransform/render.go). Validation always runs on the
// transformed source (see Run below), so the AST Validator's allow-list must
// include these names or every script using a tool call, a loop, string
// concatenation, a template literal, or console would be rejected as
// GLOBAL_NOT_ALLOWED before it ever reaches the adapter.
var safeRuntimeGlobals = []string{
	"__safe_callTool", "__safe_for", "__safe_while", "__safe_doWhile", "__safe_forOf",
	"__safe_concat", "__safe_template", "__safe_console", "__safe_resolveRef", "__safe_parallel",
}

// Options configures a new Enclave. Adapter is the only required field:
// callers choose isolation strategy explicitly by constructing a
// vmadapter.Adapter or workerpool.Adapter and passing it in, which keeps
// this package independent of both (avoiding an import cycle, since both
// adapters depend on the types defined here).
type Options struct {
	SecurityLevel SecurityLevel
	Adapter       Adapter
	AdapterKind   AdapterKind

	// Overrides. A zero value means "use the SecurityLevel's default".
	Timeout       time.Duration
	MaxIterations int
	MaxToolCalls  int
	MemoryLimit   int64

	AllowBuiltins bool
	Globals       map[string]any

	Validate  *bool
	Transform *bool

	Sidecar        *ReferenceConfig
	SidecarFactory SidecarFactory
	ScoringGate    scoring.Gate

	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer
}

// Enclave is the defense-in-depth sandbox facade. Construct with New, run
// untrusted AgentScript with Run, and release resources with Dispose.
type Enclave struct {
	level   SecurityLevel
	cfg     Config
	adapter Adapter

	scoringGate    scoring.Gate
	validator      *astvalidate.Validator
	sidecarFactory SidecarFactory

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	lastScoring *scoring.Result
}

// New constructs an Enclave from Options, mirroring the Options-pattern
// constructor used throughout the rest of this module.
func New(opts Options) (*Enclave, error) {
	if opts.Adapter == nil {
		return nil, enclaveerrors.New(enclaveerrors.CodeEnclave, "Options.Adapter is required")
	}
	if opts.Sidecar != nil && opts.SidecarFactory == nil {
		return nil, enclaveerrors.New(enclaveerrors.CodeEnclave, "Options.SidecarFactory is required when Options.Sidecar is set")
	}

	level := opts.SecurityLevel
	if level == "" {
		level = LevelStandard
	}
	defaults := config.DefaultsFor(string(level))

	cfg := Config{
		SecurityLevel:           level,
		Timeout:                 firstNonZeroDuration(opts.Timeout, defaults.Timeout),
		MaxIterations:           firstNonZeroInt(opts.MaxIterations, defaults.MaxIterations),
		MaxToolCalls:            firstNonZeroInt(opts.MaxToolCalls, defaults.MaxToolCalls),
		MemoryLimit:             opts.MemoryLimit,
		Adapter:                 opts.AdapterKind,
		AllowBuiltins:           opts.AllowBuiltins,
		Globals:                 opts.Globals,
		SanitizeStackTraces:     defaults.SanitizeStackTraces,
		MaxSanitizeDepth:        defaults.MaxSanitizeDepth,
		MaxSanitizeProperties:   defaults.MaxSanitizeProperties,
		AllowFunctionsInGlobals: defaults.AllowFunctionsInGlobals,
		MaxConsoleOutputBytes:   defaults.MaxConsoleOutputBytes,
		MaxConsoleCalls:         defaults.MaxConsoleCalls,
		Validate:                true,
		Transform:               true,
		Sidecar:                 opts.Sidecar,
		ScoringGate:             opts.ScoringGate,
	}
	if opts.Validate != nil {
		cfg.Validate = *opts.Validate
	}
	if opts.Transform != nil {
		cfg.Transform = *opts.Transform
	}

	gate := opts.ScoringGate
	if gate == nil {
		gate = scoring.Noop{}
	}

	allowed := make([]string, 0, len(baseAllowedGlobals)+len(safeRuntimeGlobals)+2*len(opts.Globals))
	allowed = append(allowed, baseAllowedGlobals...)
	allowed = append(allowed, safeRuntimeGlobals...)
	for name := range opts.Globals {
		allowed = append(allowed, name, "__safe_"+name)
	}

	e := &Enclave{
		level:          level,
		cfg:            cfg,
		adapter:        opts.Adapter,
		scoringGate:    gate,
		validator:      astvalidate.New(astvalidate.Options{AllowedGlobals: allowed, AllowSymbolAccess: false}),
		sidecarFactory: opts.SidecarFactory,
		logger:         orNoopLogger(opts.Logger),
		metrics:        orNoopMetrics(opts.Metrics),
		tracer:         orNoopTracer(opts.Tracer),
	}
	return e, nil
}

// Initialize prepares async resources ahead of the first Run call (scoring
// gate warmup, worker pool priming). The default adapters need no explicit
// warmup, so this is a light hook reserved for gates backed by a remote
// service; it is safe to skip.
func (e *Enclave) Initialize(ctx context.Context) error {
	e.logger.Debug(ctx, "enclave initialized", "security_level", string(e.level))
	return nil
}

// GetSecurityLevel returns the Enclave's configured SecurityLevel.
func (e *Enclave) GetSecurityLevel() SecurityLevel { return e.level }

// GetEffectiveConfig returns the fully-resolved Config after merging
// SecurityLevel defaults with caller overrides.
func (e *Enclave) GetEffectiveConfig() Config { return e.cfg }

// GetScoringStats returns the most recent scoring.Result produced by Run, or
// nil if no scoring gate is configured or no run has completed yet.
func (e *Enclave) GetScoringStats() *scoring.Result { return e.lastScoring }

// Dispose releases adapter-held resources. Safe to call more than once.
func (e *Enclave) Dispose() {
	if e.adapter != nil {
		e.adapter.Dispose()
	}
}

// Run executes code under this Enclave's configuration, implementing the
// eight-step per-call algorithm: init stats, build sidecar, transform,
// validate, score, build ExecutionContext with timeout/abort wiring,
// execute via the adapter, and always clean up. Run never panics to the
// caller: any internal failure becomes a Result with Success=false.
func (e *Enclave) Run(ctx context.Context, code string, toolHandler ToolHandler) (result *Result) {
	stats := Stats{StartTime: time.Now()}
	ctx, span := e.tracer.Start(ctx, "enclave.Run")
	defer span.End()

	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
		if result != nil {
			result.Stats = stats
		}
		if r := recover(); r != nil {
			result = &Result{
				Success: false,
				Stats:   stats,
				Error:   enclaveerrors.Newf(enclaveerrors.CodeEnclave, "panic during run: %v", r),
			}
		}
		e.metrics.RecordTimer("enclave.run.duration", stats.Duration, "security_level", string(e.level))
	}()

	var sidecarStore Sidecar
	var refCfg *ReferenceConfig
	if e.cfg.Sidecar != nil {
		sidecarStore = e.sidecarFactory(*e.cfg.Sidecar)
		refCfg = e.cfg.Sidecar
		defer sidecarStore.Dispose()
	}

	transformed := code
	if e.cfg.Transform {
		opts := asttransform.Options{}
		if e.cfg.Sidecar != nil && e.cfg.Sidecar.ExtractionThreshold > 0 && sidecarStore != nil {
			opts.ExtractionThreshold = e.cfg.Sidecar.ExtractionThreshold
			opts.Store = func(value string) (string, bool) {
				id, err := sidecarStore.Store(value)
				if err != nil {
					return "", false
				}
				return string(id), true
			}
		}
		var err error
		transformed, err = asttransform.Transform(code, opts)
		if err != nil {
			return &Result{Success: false, Error: enclaveerrors.Wrap(enclaveerrors.CodeValidation, err)}
		}
	}

	if e.cfg.Validate {
		issues, err := e.validator.Validate(transformed)
		if err != nil {
			return &Result{Success: false, Error: enclaveerrors.Wrap(enclaveerrors.CodeValidation, err)}
		}
		if len(issues) > 0 {
			return &Result{
				Success: false,
				Error:   enclaveerrors.New(enclaveerrors.CodeValidation, "AgentScript failed static validation").WithData(issues),
			}
		}
	}

	scoreResult, err := e.scoringGate.Score(ctx, scoring.Request{
		Source:        transformed,
		SecurityLevel: string(e.level),
		Globals:       globalNames(e.cfg.Globals),
	})
	if err != nil {
		return &Result{Success: false, Error: enclaveerrors.Wrap(enclaveerrors.CodeEnclave, fmt.Errorf("scoring gate: %w", err))}
	}
	e.lastScoring = scoreResult
	if scoreResult != nil && !scoreResult.Allowed {
		return &Result{
			Success:       false,
			Error:         enclaveerrors.New(enclaveerrors.CodeScoringBlocked, "execution blocked by scoring gate").WithData(scoreResult),
			ScoringResult: scoreResult,
		}
	}

	execCtx := NewExecutionContext(ctx, e.cfg, toolHandler, sidecarStore)
	execCtx.ReferenceConfig = refCfg
	execCtx.Stats = &stats

	value, execErr := e.adapter.Execute(execCtx, transformed)
	if execErr != nil {
		ee := asEnclaveError(execErr)
		return &Result{Success: false, Stats: stats, Error: ee, ScoringResult: scoreResult}
	}
	return &Result{Success: true, Value: value, Stats: stats, ScoringResult: scoreResult}
}

func asEnclaveError(err error) *enclaveerrors.Error {
	if ee, ok := err.(*enclaveerrors.Error); ok {
		return ee
	}
	return enclaveerrors.Wrap(enclaveerrors.CodeExecution, err)
}

func globalNames(globals map[string]any) []string {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	return names
}

func firstNonZeroDuration(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

func firstNonZeroInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orNoopLogger(l telemetry.Logger) telemetry.Logger {
	if l == nil {
		return telemetry.NewNoopLogger()
	}
	return l
}

func orNoopMetrics(m telemetry.Metrics) telemetry.Metrics {
	if m == nil {
		return telemetry.NewNoopMetrics()
	}
	return m
}

func orNoopTracer(t telemetry.Tracer) telemetry.Tracer {
	if t == nil {
		return telemetry.NewNoopTracer()
	}
	return t
}
