package saferuntime

import (
	"sync"

	"github.com/dop251/goja"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// bindParallel installs __safe_parallel(items, fn, {concurrency}), a
// bounded-concurrency map. Since only one goroutine may execute JS in a
// goja.Runtime at a time, the concurrency bound matters at the tool-call
// boundary: multiple workers contend for execCtx.VMMu, and __safe_callTool
// releases it for the duration of each blocking ToolHandler invocation, so
// overlapping tool calls genuinely run in parallel even though fn's JS body
// executes serially with respect to the VM.
func bindParallel(vm *goja.Runtime, execCtx *enclave.ExecutionContext) error {
	return vm.Set("__safe_parallel", func(call goja.FunctionCall) goja.Value {
		checkAbort(vm, execCtx)

		itemsVal := call.Argument(0).Export()
		items, _ := itemsVal.([]any)
		fn := asCallable(vm, call.Argument(1), "__safe_parallel fn")

		concurrency := len(items)
		if optsVal := call.Argument(2); !goja.IsUndefined(optsVal) && !goja.IsNull(optsVal) {
			if opts, ok := optsVal.Export().(map[string]any); ok {
				if c, ok := opts["concurrency"].(int64); ok && c > 0 {
					concurrency = int(c)
				} else if c, ok := opts["concurrency"].(float64); ok && c > 0 {
					concurrency = int(c)
				}
			}
		}
		if concurrency < 1 {
			concurrency = 1
		}
		if concurrency > len(items) && len(items) > 0 {
			concurrency = len(items)
		}

		results := make([]any, len(items))
		errs := make([]error, len(items))

		type job struct {
			index int
			item  any
		}
		jobs := make(chan job)
		var wg sync.WaitGroup

		worker := func() {
			defer wg.Done()
			for j := range jobs {
				if err := execCtx.CheckAborted(); err != nil {
					errs[j.index] = err
					continue
				}
				execCtx.VMMu.Lock()
				res, err := fn(goja.Undefined(), vm.ToValue(j.item))
				execCtx.VMMu.Unlock()
				if err != nil {
					errs[j.index] = err
					continue
				}
				results[j.index] = res.Export()
			}
		}

		// __safe_parallel is itself invoked while execCtx.VMMu is held (the
		// adapter locks it before vm.RunString), so it must release the lock
		// before fanning out -- otherwise every worker's attempt to reacquire
		// it below would deadlock against this very goroutine.
		execCtx.VMMu.Unlock()
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go worker()
		}
		for i, item := range items {
			jobs <- job{index: i, item: item}
		}
		close(jobs)
		wg.Wait()
		execCtx.VMMu.Lock()

		for _, err := range errs {
			if err != nil {
				throwEnclaveError(vm, enclaveerrors.Wrap(enclaveerrors.CodeExecution, err))
			}
		}
		return vm.ToValue(results)
	})
}
