// Package workerpool implements the Worker Pool Adapter: a fixed set of
// long-lived goroutines, each owning a private goja.Runtime recycled after a
// configured number of executions or an unhandled panic, communicating over
// request/response channels. This is the in-process equivalent of the
// spec's "isolated worker processes" contract: message passing is the only
// channel between a job and the pool, and a misbehaving worker is killed and
// replaced rather than reused. A true OS-process pool is the natural
// hardening step beyond this (see the design notes for why it is out of
// scope here).
package workerpool

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
	"goa.design/goa-ai/runtime/enclave/globals"
	"goa.design/goa-ai/runtime/enclave/saferuntime"
	"goa.design/goa-ai/runtime/enclave/telemetry"
)

type job struct {
	execCtx *enclave.ExecutionContext
	source  string
	resultC chan jobResult
}

type jobResult struct {
	value any
	err   error
}

// Adapter executes AgentScript across a pool of private, recyclable
// goja.Runtime workers.
type Adapter struct {
	jobs    chan job
	done    chan struct{}
	workers int
}

// Options configures an Adapter.
type Options struct {
	Config           enclave.WorkerPoolConfig
	GlobalsValidator *globals.Validator
	Logger           telemetry.Logger
}

// New constructs and starts a Worker Pool Adapter. Call Dispose to stop it.
func New(opts Options) *Adapter {
	size := opts.Config.Size
	if size <= 0 {
		size = 4
	}
	maxExec := opts.Config.MaxExecutionsPerWorker
	if maxExec <= 0 {
		maxExec = 100
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	validator := opts.GlobalsValidator
	if validator == nil {
		validator = globals.New()
	}

	a := &Adapter{
		jobs:    make(chan job),
		done:    make(chan struct{}),
		workers: size,
	}

	for i := 0; i < size; i++ {
		go a.runWorker(i, maxExec, validator, logger, opts.Config.RecycleGrace)
	}
	return a
}

// Execute implements enclave.Adapter, submitting transformedSource to the
// pool and blocking for its result.
func (a *Adapter) Execute(execCtx *enclave.ExecutionContext, transformedSource string) (any, error) {
	j := job{execCtx: execCtx, source: transformedSource, resultC: make(chan jobResult, 1)}
	select {
	case a.jobs <- j:
	case <-execCtx.Context().Done():
		return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, execCtx.Context().Err())
	case <-a.done:
		return nil, enclaveerrors.New(enclaveerrors.CodeEnclave, "worker pool is disposed")
	}

	select {
	case r := <-j.resultC:
		return r.value, r.err
	case <-execCtx.Context().Done():
		execCtx.Abort.Abort(execCtx.Context().Err().Error())
		return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, execCtx.Context().Err())
	}
}

// Dispose stops accepting new work. In-flight jobs are allowed to finish.
// Safe to call more than once.
func (a *Adapter) Dispose() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

func (a *Adapter) runWorker(id, maxExecutions int, validator *globals.Validator, logger telemetry.Logger, recycleGrace time.Duration) {
	executions := 0
	var vm *goja.Runtime

	freshRuntime := func() *goja.Runtime {
		rt := goja.New()
		rt.SetFieldNameMapper(goja.UncapFieldNameMapper())
		return rt
	}
	vm = freshRuntime()

	for {
		select {
		case <-a.done:
			return
		case j, ok := <-a.jobs:
			if !ok {
				return
			}
			if err := validator.Validate(j.execCtx.Config.Globals); err != nil {
				j.resultC <- jobResult{err: err}
				continue
			}

			value, err := a.executeOne(vm, j, recycleGrace, logger, id)
			j.resultC <- jobResult{value: value, err: err}

			executions++
			if executions >= maxExecutions || err != nil && isFatal(err) {
				vm = freshRuntime()
				executions = 0
			}
		}
	}
}

// executeOne runs a single job on vm, recovering panics into errors so a
// single misbehaving script never takes the worker goroutine down.
func (a *Adapter) executeOne(vm *goja.Runtime, j job, recycleGrace time.Duration, logger telemetry.Logger, workerID int) (value any, err error) {
	if bindErr := saferuntime.Bind(vm, j.execCtx); bindErr != nil {
		return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, fmt.Errorf("bind safe runtime: %w", bindErr))
	}
	for name, v := range j.execCtx.Config.Globals {
		if setErr := vm.Set(name, v); setErr != nil {
			return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, fmt.Errorf("set global %q: %w", name, setErr))
		}
	}

	timeout := j.execCtx.Config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.AfterFunc(timeout, func() {
		j.execCtx.Abort.Abort("execution timed out")
		vm.Interrupt(enclaveerrors.New(enclaveerrors.CodeTimeout, "execution timed out"))
	})
	defer timer.Stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-j.execCtx.Context().Done():
			j.execCtx.Abort.Abort(j.execCtx.Context().Err().Error())
			vm.Interrupt(enclaveerrors.Wrap(enclaveerrors.CodeEnclave, j.execCtx.Context().Err()))
		case <-j.execCtx.Abort.Done():
			vm.Interrupt(enclaveerrors.New(enclaveerrors.CodeEnclave, "execution aborted"))
		case <-watchDone:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			logger.Warn(j.execCtx.Context(), "worker recovered from panic", "worker", workerID, "panic", r)
			err = enclaveerrors.Newf(enclaveerrors.CodeEnclave, "panic during execution: %v", r)
		}
	}()

	j.execCtx.VMMu.Lock()
	defer j.execCtx.VMMu.Unlock()

	result, runErr := vm.RunString(j.source)
	if runErr != nil {
		if interrupted, ok := runErr.(*goja.InterruptedError); ok {
			if reason, ok := interrupted.Value().(*enclaveerrors.Error); ok {
				return nil, reason
			}
			return nil, enclaveerrors.New(enclaveerrors.CodeTimeout, "execution interrupted")
		}
		if ex, ok := runErr.(*goja.Exception); ok {
			if wrapped, ok := ex.Value().Export().(*enclaveerrors.Error); ok {
				return nil, wrapped
			}
			return nil, enclaveerrors.Newf(enclaveerrors.CodeExecution, "%v", ex.Value())
		}
		return nil, enclaveerrors.Wrap(enclaveerrors.CodeExecution, runErr)
	}
	if result == nil {
		return nil, nil
	}
	return result.Export(), nil
}

// isFatal reports whether err indicates the runtime should be recycled
// before its next use (timeouts can leave interrupt state that a fresh
// runtime sidesteps entirely).
func isFatal(err error) bool {
	return enclaveerrors.As(err, enclaveerrors.CodeTimeout) || enclaveerrors.As(err, enclaveerrors.CodeEnclave)
}
