package saferuntime

import (
	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// bindCallTool installs __safe_callTool(name, args), the sole bridge from
// AgentScript to the host-supplied ToolHandler.
func bindCallTool(vm *goja.Runtime, execCtx *enclave.ExecutionContext) error {
	return vm.Set("__safe_callTool", func(call goja.FunctionCall) goja.Value {
		checkAbort(vm, execCtx)

		execCtx.Stats.ToolCallCount++
		if execCtx.Stats.ToolCallCount > execCtx.Config.MaxToolCalls {
			throwEnclaveError(vm, enclaveerrors.Newf(enclaveerrors.CodeToolLimit,
				"tool call limit of %d exceeded", execCtx.Config.MaxToolCalls))
		}

		name := call.Argument(0).String()
		argsVal := call.Argument(1).Export()
		args, ok := argsVal.(map[string]any)
		if argsVal == nil {
			args = map[string]any{}
		} else if !ok {
			throwEnclaveError(vm, enclaveerrors.New(enclaveerrors.CodeToolInvalidArgs,
				"callTool arguments must be a plain object"))
		}

		// The ToolHandler never touches the goja.Runtime, so the VM lock can
		// be released for the call's duration; this is what gives
		// __safe_parallel real concurrency at the tool boundary while only
		// one goroutine ever executes JS at a time.
		if execCtx.VMMu != nil {
			execCtx.VMMu.Unlock()
		}
		result, err := execCtx.ToolHandler(execCtx.Context(), name, args)
		if execCtx.VMMu != nil {
			execCtx.VMMu.Lock()
		}
		if err != nil {
			throwEnclaveError(vm, enclaveerrors.Wrap(enclaveerrors.CodeExecution, err))
		}
		return vm.ToValue(result)
	})
}
