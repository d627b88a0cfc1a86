// Package saferuntime installs the host-side `__safe_*` bindings the AST
// Transformer rewrites code to call. Every helper consults the shared
// *enclave.ExecutionContext for its counters and abort signal, so limits are
// enforced identically regardless of which Adapter drives the goja runtime.
package saferuntime

import (
	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// Bind installs every Safe Runtime helper into vm, scoped to execCtx.
func Bind(vm *goja.Runtime, execCtx *enclave.ExecutionContext) error {
	if err := bindCallTool(vm, execCtx); err != nil {
		return err
	}
	if err := bindLoops(vm, execCtx); err != nil {
		return err
	}
	if err := bindConcatAndTemplate(vm, execCtx); err != nil {
		return err
	}
	if err := bindConsole(vm, execCtx); err != nil {
		return err
	}
	if err := bindResolveRef(vm, execCtx); err != nil {
		return err
	}
	if err := bindParallel(vm, execCtx); err != nil {
		return err
	}
	return nil
}

// throwEnclaveError panics with a goja Go error wrapping e, the idiom goja
// uses to raise a catchable JS exception from a host-bound function.
func throwEnclaveError(vm *goja.Runtime, e *enclaveerrors.Error) {
	panic(vm.NewGoError(e))
}

// checkAbort panics with an ENCLAVE_ERROR-coded abort if execCtx has been
// cancelled, the check every Safe Runtime helper performs on entry.
func checkAbort(vm *goja.Runtime, execCtx *enclave.ExecutionContext) {
	if err := execCtx.CheckAborted(); err != nil {
		throwEnclaveError(vm, enclaveerrors.Wrap(enclaveerrors.CodeEnclave, err))
	}
}
