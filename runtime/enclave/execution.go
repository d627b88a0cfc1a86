package enclave

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// AbortController is a one-way cancellation signal shared between a run's
// context and every `__safe_*` helper. Once Abort is called, every
// subsequent suspension point must observe aborted()==true and re-throw,
// even if executed code attempts to catch the resulting error.
type AbortController struct {
	aborted atomic.Bool
	done    chan struct{}
	reason  atomic.Value // string
}

// NewAbortController constructs a controller in the non-aborted state.
func NewAbortController() *AbortController {
	return &AbortController{done: make(chan struct{})}
}

// Abort flips the controller to aborted, closing Done and recording reason.
// Safe to call more than once; only the first call's reason is kept.
func (a *AbortController) Abort(reason string) {
	if a.aborted.CompareAndSwap(false, true) {
		a.reason.Store(reason)
		close(a.done)
	}
}

// Aborted reports whether Abort has been called.
func (a *AbortController) Aborted() bool { return a.aborted.Load() }

// Reason returns the reason passed to the first Abort call, or "" if not
// yet aborted.
func (a *AbortController) Reason() string {
	if v, ok := a.reason.Load().(string); ok {
		return v
	}
	return ""
}

// Done returns a channel closed when Abort is first called.
func (a *AbortController) Done() <-chan struct{} { return a.done }

// Sidecar is the subset of the Reference Sidecar the Safe Runtime needs
// during a single execution; it is satisfied by *sidecar.Store without this
// package importing the sidecar package, avoiding an import cycle between
// enclave (which owns ExecutionContext) and sidecar (which is wired in by
// the facade).
type Sidecar interface {
	Store(value string) (string, error)
	Resolve(id string) (string, error)
	Dispose()
}

// SidecarFactory constructs a Sidecar bounded by cfg. Options.SidecarFactory
// supplies one (typically sidecar.New, adapted to this signature) so this
// package never imports the sidecar package directly — sidecar has no
// reason to depend on enclave either, so nothing here forces a cycle.
type SidecarFactory func(cfg ReferenceConfig) Sidecar

// ExecutionContext carries all per-run mutable state threaded through the
// Safe Runtime helpers and the chosen Adapter during a single Run call. It
// is created fresh for every execution and never reused.
type ExecutionContext struct {
	Config          Config
	Stats           *Stats
	Abort           *AbortController
	ToolHandler     ToolHandler
	Sidecar         Sidecar
	ReferenceConfig *ReferenceConfig

	// ConsoleLimiter bounds the rate of console.* calls independent of the
	// absolute MaxConsoleCalls budget, smoothing bursts from tight loops
	// that log on every iteration.
	ConsoleLimiter *rate.Limiter

	// VMMu serializes access to the goja.Runtime across goroutines.
	// __safe_callTool releases it for the duration of the blocking
	// ToolHandler call (which never touches the runtime), which is what
	// lets __safe_parallel give callers genuine concurrency at the tool
	// boundary despite goja permitting only one goroutine in the VM at a
	// time.
	VMMu *sync.Mutex

	// parentCtx is the caller's context, consulted by suspension points in
	// addition to Abort (a timeout fires Abort; an external cancellation of
	// parentCtx also must be observed at the next suspension point).
	parentCtx context.Context
}

// NewExecutionContext constructs an ExecutionContext for a single Run call.
func NewExecutionContext(ctx context.Context, cfg Config, toolHandler ToolHandler, sc Sidecar) *ExecutionContext {
	return &ExecutionContext{
		Config:          cfg,
		Stats:           &Stats{},
		Abort:           NewAbortController(),
		ToolHandler:     toolHandler,
		Sidecar:         sc,
		ReferenceConfig: cfg.Sidecar,
		ConsoleLimiter:  rate.NewLimiter(rate.Limit(200), 50),
		VMMu:            &sync.Mutex{},
		parentCtx:       ctx,
	}
}

// Context returns the caller's context for this execution.
func (e *ExecutionContext) Context() context.Context { return e.parentCtx }

// CheckAborted returns a non-nil error carrying the abort reason if either
// the AbortController or the parent context has fired.
func (e *ExecutionContext) CheckAborted() error {
	if e.Abort.Aborted() {
		return &abortedError{reason: e.Abort.Reason()}
	}
	select {
	case <-e.parentCtx.Done():
		e.Abort.Abort(e.parentCtx.Err().Error())
		return &abortedError{reason: e.parentCtx.Err().Error()}
	default:
		return nil
	}
}

type abortedError struct{ reason string }

func (e *abortedError) Error() string { return "execution aborted: " + e.reason }

// Adapter executes a single, already-transformed AgentScript program inside
// an isolated sandbox. VM and Worker Pool adapters both satisfy this.
type Adapter interface {
	// Execute runs transformedSource to completion (or abort/timeout),
	// returning its final expression value exported to a Go value.
	Execute(execCtx *ExecutionContext, transformedSource string) (any, error)
	// Dispose releases adapter-held resources (worker goroutines, pooled
	// runtimes). Safe to call more than once.
	Dispose()
}
