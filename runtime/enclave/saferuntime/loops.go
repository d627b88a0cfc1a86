package saferuntime

import (
	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// breakSentinelValue is the string a transformed loop body returns in place
// of a native `break`; it must match asttransform's emitted literal exactly.
const breakSentinelValue = "__ag_break__"

func bindLoops(vm *goja.Runtime, execCtx *enclave.ExecutionContext) error {
	if err := vm.Set("__safe_for", makeSafeFor(vm, execCtx)); err != nil {
		return err
	}
	if err := vm.Set("__safe_while", makeSafeWhile(vm, execCtx)); err != nil {
		return err
	}
	if err := vm.Set("__safe_doWhile", makeSafeDoWhile(vm, execCtx)); err != nil {
		return err
	}
	if err := vm.Set("__safe_forOf", makeSafeForOf(vm, execCtx)); err != nil {
		return err
	}
	return nil
}

func asCallable(vm *goja.Runtime, v goja.Value, what string) goja.Callable {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		throwEnclaveError(vm, enclaveerrors.Newf(enclaveerrors.CodeEnclave, "%s must be a function", what))
	}
	return fn
}

// tickIteration enforces the iteration cap shared by every loop form,
// incrementing stats.IterationCount and throwing ITERATION_LIMIT once
// maxIterations is reached. The error message contains "iteration limit"
// per spec.
func tickIteration(vm *goja.Runtime, execCtx *enclave.ExecutionContext) {
	checkAbort(vm, execCtx)
	execCtx.Stats.IterationCount++
	if execCtx.Stats.IterationCount > execCtx.Config.MaxIterations {
		throwEnclaveError(vm, enclaveerrors.Newf(enclaveerrors.CodeIterationLimit,
			"iteration limit of %d exceeded", execCtx.Config.MaxIterations))
	}
}

// isBreak reports whether a loop body's return value is the break sentinel.
func isBreak(v goja.Value) bool {
	if v == nil || goja.IsUndefined(v) {
		return false
	}
	s, ok := v.Export().(string)
	return ok && s == breakSentinelValue
}

func makeSafeFor(vm *goja.Runtime, execCtx *enclave.ExecutionContext) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		initFn := asCallable(vm, call.Argument(0), "__safe_for initializer")
		testFn := asCallable(vm, call.Argument(1), "__safe_for test")
		updateFn := asCallable(vm, call.Argument(2), "__safe_for update")
		bodyFn := asCallable(vm, call.Argument(3), "__safe_for body")

		if _, err := initFn(goja.Undefined()); err != nil {
			panic(err)
		}
		for {
			test, err := testFn(goja.Undefined())
			if err != nil {
				panic(err)
			}
			if !test.ToBoolean() {
				break
			}
			tickIteration(vm, execCtx)
			result, err := bodyFn(goja.Undefined())
			if err != nil {
				panic(err)
			}
			if isBreak(result) {
				break
			}
			if _, err := updateFn(goja.Undefined()); err != nil {
				panic(err)
			}
		}
		return goja.Undefined()
	}
}

func makeSafeWhile(vm *goja.Runtime, execCtx *enclave.ExecutionContext) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		testFn := asCallable(vm, call.Argument(0), "__safe_while test")
		bodyFn := asCallable(vm, call.Argument(1), "__safe_while body")

		for {
			test, err := testFn(goja.Undefined())
			if err != nil {
				panic(err)
			}
			if !test.ToBoolean() {
				break
			}
			tickIteration(vm, execCtx)
			result, err := bodyFn(goja.Undefined())
			if err != nil {
				panic(err)
			}
			if isBreak(result) {
				break
			}
		}
		return goja.Undefined()
	}
}

func makeSafeDoWhile(vm *goja.Runtime, execCtx *enclave.ExecutionContext) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		testFn := asCallable(vm, call.Argument(0), "__safe_doWhile test")
		bodyFn := asCallable(vm, call.Argument(1), "__safe_doWhile body")

		for {
			tickIteration(vm, execCtx)
			result, err := bodyFn(goja.Undefined())
			if err != nil {
				panic(err)
			}
			if isBreak(result) {
				break
			}
			test, err := testFn(goja.Undefined())
			if err != nil {
				panic(err)
			}
			if !test.ToBoolean() {
				break
			}
		}
		return goja.Undefined()
	}
}

func makeSafeForOf(vm *goja.Runtime, execCtx *enclave.ExecutionContext) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		source := call.Argument(0)
		bodyFn := asCallable(vm, call.Argument(1), "__safe_forOf body")

		exported := source.Export()
		items, ok := exported.([]any)
		if !ok {
			throwEnclaveError(vm, enclaveerrors.New(enclaveerrors.CodeEnclave, "for-of source must be an array"))
		}
		for _, item := range items {
			tickIteration(vm, execCtx)
			result, err := bodyFn(goja.Undefined(), vm.ToValue(item))
			if err != nil {
				panic(err)
			}
			if isBreak(result) {
				break
			}
		}
		return goja.Undefined()
	}
}
