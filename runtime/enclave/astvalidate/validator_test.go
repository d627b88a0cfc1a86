package astvalidate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/goa-ai/runtime/enclave/astvalidate"
)

func newValidator() *astvalidate.Validator {
	return astvalidate.New(astvalidate.Options{
		AllowedGlobals: []string{"callTool", "console", "input", "Math", "JSON"},
	})
}

func TestValidate_AllowsPlainProgram(t *testing.T) {
	issues, err := newValidator().Validate(`
		let total = 0;
		for (let i = 0; i < input.items.length; i++) {
			total += input.items[i].amount;
		}
		console.log(total);
	`)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidate_RejectsDisallowedGlobal(t *testing.T) {
	issues, err := newValidator().Validate(`process.exit(1);`)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, astvalidate.CodeGlobalNotAllowed, issues[0].Code)
}

func TestValidate_RejectsConstructorAccess(t *testing.T) {
	issues, err := newValidator().Validate(`let f = input.constructor;`)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, astvalidate.CodeConstructorAccess, issues[0].Code)
}

func TestValidate_RejectsComputedConstructorAccess(t *testing.T) {
	issues, err := newValidator().Validate(`let f = input["constr" + "uctor"];`)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, astvalidate.CodeConstructorAccess, issues[0].Code)
}

func TestValidate_AllowsNonConstantComputedAccess(t *testing.T) {
	issues, err := newValidator().Validate(`let key = input.key; let v = input[key];`)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidate_RejectsEval(t *testing.T) {
	issues, err := newValidator().Validate(`eval("1+1");`)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, astvalidate.CodeDynamicCode, issues[0].Code)
}

func TestValidate_RejectsReservedPrefixDeclaration(t *testing.T) {
	issues, err := newValidator().Validate(`let __safe_callTool = 1;`)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, astvalidate.CodeReservedPrefix, issues[0].Code)
}

func TestValidate_LocalsDoNotTriggerGlobalCheck(t *testing.T) {
	issues, err := newValidator().Validate(`
		function sum(items) {
			let total = 0;
			for (const item of items) {
				total += item.amount;
			}
			return total;
		}
		console.log(sum(input.items));
	`)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
