// Package globals implements the Globals Validator: a reflection-based
// check over caller-supplied globals that runs before they are injected
// into the sandbox, rejecting shapes the Safe Runtime cannot safely expose.
package globals

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// dangerousPatterns names the substrings a function binding's identifier or
// resolved Go symbol name must not contain, even when functions are allowed
// at this security level, per spec.md §4.6.
var dangerousPatterns = []string{
	"require", "eval", "Function", "process", "Buffer", "child_process", "spawn", "exec",
}

// defaultMaxDepth bounds the nested-object walk when the caller does not set
// WithMaxDepth, protecting against cyclic or pathological global shapes.
const defaultMaxDepth = 10

// Validator checks a caller's global map against naming and shape rules,
// with an additive, optional JSON Schema check per name.
type Validator struct {
	allowFunctions bool
	maxDepth       int
	schemas        map[string]*jsonschema.Schema
}

// Option configures a Validator.
type Option func(*Validator)

// WithSchema validates the named global's exported value against schema
// before injection (skipped for function-typed globals, which Schema
// validation does not apply to).
func WithSchema(name string, schema *jsonschema.Schema) Option {
	return func(v *Validator) { v.schemas[name] = schema }
}

// AllowFunctions permits function-typed global values. Defaults to false,
// matching SecurityLevel strict/standard; relaxed callers pass this.
func AllowFunctions(allow bool) Option {
	return func(v *Validator) { v.allowFunctions = allow }
}

// WithMaxDepth bounds how far the nested-object walk descends into maps,
// structs, slices, and pointers looking for function bindings. Defaults to
// defaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(v *Validator) { v.maxDepth = depth }
}

// New constructs a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{schemas: map[string]*jsonschema.Schema{}, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every entry in globalValues, returning an
// *enclaveerrors.Error (CodeValidation) describing the first violation
// found, or nil if all entries are acceptable.
func (v *Validator) Validate(globalValues map[string]any) error {
	for name, value := range globalValues {
		if err := v.validateName(name); err != nil {
			return err
		}
		if err := v.validateValue(name, value); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateName(name string) error {
	if name == "" {
		return enclaveerrors.New(enclaveerrors.CodeValidation, "global name must not be empty")
	}
	if strings.HasPrefix(name, "__ag_") || strings.HasPrefix(name, "__safe_") {
		return enclaveerrors.Newf(enclaveerrors.CodeValidation, "global name %q uses a reserved prefix", name)
	}
	return nil
}

func (v *Validator) validateValue(name string, value any) error {
	rv := reflect.ValueOf(value)
	if err := v.checkNested(name, rv, 0); err != nil {
		return err
	}

	if rv.IsValid() && rv.Kind() == reflect.Func {
		return nil
	}
	if schema, ok := v.schemas[name]; ok {
		if err := schema.Validate(value); err != nil {
			return enclaveerrors.Wrap(enclaveerrors.CodeValidation, fmt.Errorf("global %q failed schema validation: %w", name, err))
		}
	}
	return nil
}

// checkNested walks rv looking for function bindings, at the top level and
// at every nested position within maps, structs, slices/arrays, and
// pointers/interfaces, up to v.maxDepth. Every function found (top-level or
// nested) is subject to the same allowFunctions and denylist rules.
func (v *Validator) checkNested(path string, rv reflect.Value, depth int) error {
	if !rv.IsValid() {
		return nil
	}
	if depth > v.maxDepth {
		return enclaveerrors.Newf(enclaveerrors.CodeValidation, "global %q exceeds max nesting depth %d", path, v.maxDepth)
	}

	switch rv.Kind() {
	case reflect.Func:
		return v.checkFunction(path, rv)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return v.checkNested(path, rv.Elem(), depth+1)
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			if err := v.checkNested(path+"."+key, iter.Value(), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			if err := v.checkNested(path+"."+field.Name, rv.Field(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := v.checkNested(fmt.Sprintf("%s[%d]", path, i), rv.Index(i), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkFunction applies the allowFunctions gate and the dangerous-pattern
// denylist to a single function binding, checked against both the
// identifier it is bound under (path) and its resolved Go symbol name.
func (v *Validator) checkFunction(path string, fn reflect.Value) error {
	if !v.allowFunctions {
		return enclaveerrors.Newf(enclaveerrors.CodeValidation,
			"global %q is a function, which is not allowed at this security level", path)
	}

	symbol := ""
	if !fn.IsNil() {
		if pc := fn.Pointer(); pc != 0 {
			if fi := runtime.FuncForPC(pc); fi != nil {
				symbol = fi.Name()
			}
		}
	}
	if pattern, ok := matchesDenylist(path, symbol); ok {
		return enclaveerrors.Newf(enclaveerrors.CodeValidation,
			"global %q is a function matching denylisted pattern %q", path, pattern)
	}
	return nil
}

// matchesDenylist reports whether name or symbol contains any dangerousPattern.
func matchesDenylist(name, symbol string) (string, bool) {
	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) || strings.Contains(symbol, pattern) {
			return pattern, true
		}
	}
	return "", false
}
