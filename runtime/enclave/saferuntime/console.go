package saferuntime

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// bindConsole installs __safe_console, a rate- and budget-limited stand-in
// for the console global rewrite 6 points every `console` identifier at.
func bindConsole(vm *goja.Runtime, execCtx *enclave.ExecutionContext) error {
	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, makeConsoleMethod(vm, execCtx, level)); err != nil {
			return err
		}
	}
	return vm.Set("__safe_console", console)
}

func makeConsoleMethod(vm *goja.Runtime, execCtx *enclave.ExecutionContext, level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		checkAbort(vm, execCtx)

		if execCtx.Stats.ConsoleCallCount >= execCtx.Config.MaxConsoleCalls {
			throwEnclaveError(vm, enclaveerrors.New(enclaveerrors.CodeConsoleLimit, "Console call limit exceeded"))
		}
		if execCtx.ConsoleLimiter != nil && !execCtx.ConsoleLimiter.Allow() {
			throwEnclaveError(vm, enclaveerrors.New(enclaveerrors.CodeConsoleLimit, "Console call limit exceeded"))
		}

		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, fmt.Sprintf("%v", arg.Export()))
		}
		message := level + ": " + strings.Join(parts, " ")

		execCtx.Stats.ConsoleCallCount++
		execCtx.Stats.ConsoleByteCount += len(message)
		if execCtx.Stats.ConsoleByteCount > execCtx.Config.MaxConsoleOutputBytes {
			throwEnclaveError(vm, enclaveerrors.New(enclaveerrors.CodeConsoleLimit, "Console output limit exceeded"))
		}

		return goja.Undefined()
	}
}
