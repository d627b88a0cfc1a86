package enclave_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// TestProperty_IterationCountNeverExceedsLimit generates loop programs with a
// random bound and a random MaxIterations cap, and checks the quantified
// invariant from spec.md §8: for every executed program P and configuration
// C, stats.iterationCount <= C.maxIterations, or the run fails with
// ITERATION_LIMIT.
func TestProperty_IterationCountNeverExceedsLimit(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("iteration count respects the configured cap", prop.ForAll(
		func(loopBound, maxIterations int) bool {
			box := newEnclave(t, enclave.Options{MaxIterations: maxIterations})

			source := fmt.Sprintf("for (let i=0;i<%d;i++){};return 'ok'", loopBound)
			result := box.Run(context.Background(), source, noopHandler)

			if result.Stats.IterationCount <= maxIterations {
				return true
			}
			return !result.Success && enclaveerrors.As(result.Error, enclaveerrors.CodeIterationLimit)
		},
		gen.IntRange(0, 500),
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}

// TestProperty_ToolCallCountNeverExceedsLimit mirrors the analogous
// toolCallCount invariant from spec.md §8.
func TestProperty_ToolCallCountNeverExceedsLimit(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("tool call count respects the configured cap", prop.ForAll(
		func(callCount, maxToolCalls int) bool {
			box := newEnclave(t, enclave.Options{MaxToolCalls: maxToolCalls})

			source := fmt.Sprintf("for (let i=0;i<%d;i++){callTool('t',{i:i})};return 'done'", callCount)
			result := box.Run(context.Background(), source, noopHandler)

			if result.Stats.ToolCallCount <= maxToolCalls {
				return true
			}
			return !result.Success && enclaveerrors.As(result.Error, enclaveerrors.CodeToolLimit)
		},
		gen.IntRange(0, 50),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
