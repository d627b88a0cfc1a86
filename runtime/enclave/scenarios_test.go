package enclave_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/adapter/vmadapter"
	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

func newEnclave(t *testing.T, opts enclave.Options) *enclave.Enclave {
	t.Helper()
	if opts.Adapter == nil {
		opts.Adapter = vmadapter.New(vmadapter.Options{})
	}
	box, err := enclave.New(opts)
	require.NoError(t, err)
	t.Cleanup(box.Dispose)
	return box
}

func boolPtr(b bool) *bool { return &b }

func noopHandler(context.Context, string, map[string]any) (any, error) {
	return map[string]any{"ok": true}, nil
}

// Scenario 1: eval() is statically rejected.
func TestScenario_EvalRejected(t *testing.T) {
	box := newEnclave(t, enclave.Options{})
	result := box.Run(context.Background(), "return eval('1+1')", noopHandler)

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, enclaveerrors.CodeValidation, result.Error.Code)
	assert.Contains(t, result.Error.Message, "static validation")
}

// Scenario 2: a loop that would exceed maxIterations fails with ITERATION_LIMIT.
func TestScenario_IterationLimitExceeded(t *testing.T) {
	box := newEnclave(t, enclave.Options{MaxIterations: 100})
	result := box.Run(context.Background(), "for (let i=0;i<200;i++){};return 'ok'", noopHandler)

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, strings.ToLower(result.Error.Message), "iteration limit")
}

// Scenario 3: the tool call that breaks the limit is itself counted.
func TestScenario_ToolCallLimitExceeded(t *testing.T) {
	box := newEnclave(t, enclave.Options{MaxToolCalls: 5})
	source := "const a=[];for (let i=0;i<10;i++){callTool('t',{i:i})};return 'done'"
	result := box.Run(context.Background(), source, noopHandler)

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, strings.ToLower(result.Error.Message), "tool call limit")
	assert.Equal(t, 6, result.Stats.ToolCallCount)
}

// Scenario 4: caller-supplied globals are visible to AgentScript.
func TestScenario_GlobalsAreVisible(t *testing.T) {
	box := newEnclave(t, enclave.Options{Globals: map[string]any{"shared": "enclave1"}})
	result := box.Run(context.Background(), "const s=shared; return s", noopHandler)

	require.True(t, result.Success)
	assert.Equal(t, "enclave1", result.Value)
}

// Scenario 5: Object.prototype access is rejected by the validator; the host
// is never reachable from AgentScript regardless, so this only checks the
// surfaced failure mode.
func TestScenario_PrototypePollutionRejected(t *testing.T) {
	box := newEnclave(t, enclave.Options{})
	result := box.Run(context.Background(), "Object.prototype.polluted='pwned'; return 'done'", noopHandler)

	require.False(t, result.Success)
	assert.Equal(t, enclaveerrors.CodeValidation, result.Error.Code)
}

// Scenario 6: a computed key that constant-folds to "constructor" is
// rejected just as reliably as the literal form.
func TestScenario_FoldedConstructorAccessRejected(t *testing.T) {
	box := newEnclave(t, enclave.Options{})
	result := box.Run(context.Background(), "const k='con'+'structor'; return Array[k]", noopHandler)

	require.False(t, result.Success)
	assert.Equal(t, enclaveerrors.CodeValidation, result.Error.Code)
}

// Round-trip law: a synchronous tool call round-trips through the handler.
func TestRoundTrip_CallToolReturnsHandlerValue(t *testing.T) {
	box := newEnclave(t, enclave.Options{})
	handler := func(_ context.Context, name string, args map[string]any) (any, error) {
		assert.Equal(t, "x", name)
		assert.Equal(t, int64(1), args["a"])
		return 42, nil
	}
	result := box.Run(context.Background(), "return callTool('x', {a:1})", handler)

	require.True(t, result.Success)
	assert.Equal(t, int64(42), result.Value)
	assert.Equal(t, 1, result.Stats.ToolCallCount)
}

// Round-trip law: with validation and transformation both disabled, a plain
// expression evaluates directly. Disabling Transform skips the entry-point
// wrap too, so (unlike the transformed case) there is no enclosing function
// for a bare `return` to target; the completion value of the last
// expression statement stands in for it here.
func TestRoundTrip_RawEvaluationWhenDisabled(t *testing.T) {
	box := newEnclave(t, enclave.Options{
		Validate:  boolPtr(false),
		Transform: boolPtr(false),
	})
	result := box.Run(context.Background(), "1+1", noopHandler)

	require.True(t, result.Success)
	assert.Equal(t, int64(2), result.Value)
}
