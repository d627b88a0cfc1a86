package saferuntime

import (
	"errors"

	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// bindResolveRef installs __safe_resolveRef(id), the counterpart to rewrite
// 7's sidecar extraction: it turns a reference id back into its original
// string, subject to the sidecar's own size and depth budgets.
func bindResolveRef(vm *goja.Runtime, execCtx *enclave.ExecutionContext) error {
	return vm.Set("__safe_resolveRef", func(call goja.FunctionCall) goja.Value {
		checkAbort(vm, execCtx)

		if execCtx.Sidecar == nil {
			throwEnclaveError(vm, enclaveerrors.New(enclaveerrors.CodeReferenceMissing, "no reference sidecar is attached"))
		}

		id := call.Argument(0).String()
		value, err := execCtx.Sidecar.Resolve(id)
		if err != nil {
			// The sidecar already classifies its failure (missing, too big,
			// too deep); preserve that code instead of collapsing every
			// failure into CodeReferenceMissing.
			var enclaveErr *enclaveerrors.Error
			if errors.As(err, &enclaveErr) {
				throwEnclaveError(vm, enclaveErr)
			}
			throwEnclaveError(vm, enclaveerrors.Wrap(enclaveerrors.CodeReferenceMissing, err))
		}
		return vm.ToValue(value)
	})
}
