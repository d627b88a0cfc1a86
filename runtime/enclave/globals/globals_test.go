package globals_test

import (
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
	"goa.design/goa-ai/runtime/enclave/globals"
)

func TestValidate_AcceptsPlainValues(t *testing.T) {
	v := globals.New()
	err := v.Validate(map[string]any{"shared": "enclave1", "count": 3})
	assert.NoError(t, err)
}

func TestValidate_RejectsEmptyName(t *testing.T) {
	v := globals.New()
	err := v.Validate(map[string]any{"": "x"})
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeValidation))
}

func TestValidate_RejectsReservedPrefix(t *testing.T) {
	v := globals.New()
	err := v.Validate(map[string]any{"__safe_thing": 1})
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeValidation))
}

func TestValidate_RejectsFunctionsByDefault(t *testing.T) {
	v := globals.New()
	err := v.Validate(map[string]any{"handler": func() {}})
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeValidation))
}

func TestValidate_AllowsFunctionsWhenOptedIn(t *testing.T) {
	v := globals.New(globals.AllowFunctions(true))
	err := v.Validate(map[string]any{"handler": func() {}})
	assert.NoError(t, err)
}

func TestValidate_RejectsDenylistedFunctionNameEvenWhenAllowed(t *testing.T) {
	v := globals.New(globals.AllowFunctions(true))
	err := v.Validate(map[string]any{"exec": func() {}})
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeValidation))
}

func TestValidate_RejectsNestedFunctionInMap(t *testing.T) {
	v := globals.New(globals.AllowFunctions(true))
	err := v.Validate(map[string]any{
		"tools": map[string]any{"handler": func() {}},
	})
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeValidation))
}

func TestValidate_RejectsNestedFunctionInStruct(t *testing.T) {
	type bundle struct {
		Handler func()
	}
	v := globals.New(globals.AllowFunctions(true))
	err := v.Validate(map[string]any{"bundle": bundle{Handler: func() {}}})
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeValidation))
}

func TestValidate_AllowsNestedNonFunctionValues(t *testing.T) {
	v := globals.New()
	err := v.Validate(map[string]any{
		"config": map[string]any{"retries": 3, "labels": []any{"a", "b"}},
	})
	assert.NoError(t, err)
}

func TestValidate_EnforcesSchemaWhenConfigured(t *testing.T) {
	compiler := jsonschema.NewCompiler()
	require.NoError(t, compiler.AddResource("schema.json", map[string]any{
		"type":    "integer",
		"minimum": 0,
	}))
	schema, err := compiler.Compile("schema.json")
	require.NoError(t, err)

	v := globals.New(globals.WithSchema("count", schema))

	assert.NoError(t, v.Validate(map[string]any{"count": 3}))

	err = v.Validate(map[string]any{"count": -1})
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeValidation))
}
