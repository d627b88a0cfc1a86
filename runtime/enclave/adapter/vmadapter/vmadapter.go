// Package vmadapter implements the VM Adapter: an in-process goja.Runtime
// created fresh for every execution. It trades a small per-call setup cost
// for strict isolation — runtimes are never pooled across executions, since
// pooling would risk leaking state between untrusted programs.
package vmadapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
	"goa.design/goa-ai/runtime/enclave/globals"
	"goa.design/goa-ai/runtime/enclave/saferuntime"
	"goa.design/goa-ai/runtime/enclave/telemetry"
)

// Adapter executes AgentScript in a dedicated goja.Runtime per call.
type Adapter struct {
	globalsValidator *globals.Validator
	logger           telemetry.Logger
}

// Options configures an Adapter.
type Options struct {
	GlobalsValidator *globals.Validator
	Logger           telemetry.Logger
}

// New constructs a VM Adapter.
func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	validator := opts.GlobalsValidator
	if validator == nil {
		validator = globals.New()
	}
	return &Adapter{globalsValidator: validator, logger: logger}
}

// Dispose implements enclave.Adapter. The VM Adapter holds no state between
// calls, so Dispose is a no-op.
func (a *Adapter) Dispose() {}

// Execute implements enclave.Adapter.
func (a *Adapter) Execute(execCtx *enclave.ExecutionContext, transformedSource string) (any, error) {
	if err := a.globalsValidator.Validate(execCtx.Config.Globals); err != nil {
		return nil, err
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	if err := saferuntime.Bind(vm, execCtx); err != nil {
		return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, fmt.Errorf("bind safe runtime: %w", err))
	}
	for name, value := range execCtx.Config.Globals {
		if err := vm.Set(name, value); err != nil {
			return nil, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, fmt.Errorf("set global %q: %w", name, err))
		}
	}

	timeout := execCtx.Config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.AfterFunc(timeout, func() {
		execCtx.Abort.Abort("execution timed out")
		vm.Interrupt(enclaveerrors.New(enclaveerrors.CodeTimeout, "execution timed out"))
	})
	defer timer.Stop()

	go func() {
		select {
		case <-execCtx.Context().Done():
			execCtx.Abort.Abort(execCtx.Context().Err().Error())
			vm.Interrupt(enclaveerrors.Wrap(enclaveerrors.CodeEnclave, execCtx.Context().Err()))
		case <-execCtx.Abort.Done():
			vm.Interrupt(enclaveerrors.New(enclaveerrors.CodeEnclave, "execution aborted"))
		case <-timer.C:
		}
	}()

	result, err := a.run(vm, execCtx, transformedSource)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Adapter) run(vm *goja.Runtime, execCtx *enclave.ExecutionContext, source string) (value any, err error) {
	execCtx.VMMu.Lock()
	defer func() {
		execCtx.VMMu.Unlock()
		if r := recover(); r != nil {
			err = a.recoverToError(r, execCtx)
		}
	}()

	result, runErr := vm.RunString(source)
	if runErr != nil {
		return nil, a.mapRunError(runErr, execCtx)
	}
	if result == nil {
		return nil, nil
	}
	return result.Export(), nil
}

func (a *Adapter) mapRunError(err error, execCtx *enclave.ExecutionContext) error {
	if ex, ok := err.(*goja.Exception); ok {
		if wrapped, ok := ex.Value().Export().(*enclaveerrors.Error); ok {
			return a.sanitize(wrapped, execCtx)
		}
		return a.sanitize(enclaveerrors.Newf(enclaveerrors.CodeExecution, "%v", ex.Value()), execCtx)
	}
	if interrupted, ok := err.(*goja.InterruptedError); ok {
		// vm.Interrupt is always called with the *enclaveerrors.Error that
		// names the real reason (timeout vs. cancellation vs. explicit
		// abort); recover it instead of collapsing every interrupt to TIMEOUT.
		if reason, ok := interrupted.Value().(*enclaveerrors.Error); ok {
			return reason
		}
		if execCtx.Abort.Aborted() {
			return enclaveerrors.Newf(enclaveerrors.CodeTimeout, "execution interrupted: %s", execCtx.Abort.Reason())
		}
		return enclaveerrors.New(enclaveerrors.CodeTimeout, "execution interrupted")
	}
	return a.sanitize(enclaveerrors.Wrap(enclaveerrors.CodeExecution, err), execCtx)
}

func (a *Adapter) recoverToError(r any, execCtx *enclave.ExecutionContext) error {
	if gojaErr, ok := r.(*goja.InterruptedError); ok {
		return a.mapRunError(gojaErr, execCtx)
	}
	if err, ok := r.(error); ok {
		return a.mapRunError(err, execCtx)
	}
	return enclaveerrors.Newf(enclaveerrors.CodeEnclave, "panic during execution: %v", r)
}

// sanitize trims or drops a stack trace per the level's sanitization config.
func (a *Adapter) sanitize(e *enclaveerrors.Error, execCtx *enclave.ExecutionContext) *enclaveerrors.Error {
	if !execCtx.Config.SanitizeStackTraces {
		return e
	}
	if e.Stack == "" {
		return e
	}
	lines := strings.Split(e.Stack, "\n")
	max := execCtx.Config.MaxSanitizeDepth
	if max > 0 && len(lines) > max {
		lines = lines[:max]
	}
	e.Stack = strings.Join(lines, "\n")
	return e
}
