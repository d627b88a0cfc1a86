// Package asttransform rewrites parsed AgentScript source into the form the
// Safe Runtime expects: every capability that must be metered or audited at
// runtime (tool calls, loop iterations, string concatenation, template
// interpolation, console output, and optionally large string literals) is
// rewritten to call a `__safe_*` host binding instead of the native
// construct. The AST Validator then runs on this rewritten source, never on
// the original.
package asttransform

import (
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// entryFunctionName is the synthetic top-level wrapper every transform
// produces. Its presence makes the transform idempotent: re-running it on
// already-transformed source is a no-op.
const entryFunctionName = "__ag_main"

// LiteralStore abstracts the Reference Sidecar for rewrite 7 (conditional
// extraction). Store returns the reference id to substitute for value, and
// ok=false when the literal is under threshold or no sidecar is attached.
type LiteralStore func(value string) (ref string, ok bool)

// Options configures a single Transform call.
type Options struct {
	// ExtractionThreshold is the minimum string literal length (in UTF-16
	// code units, approximated here by rune count) that triggers sidecar
	// extraction. Zero disables rewrite 7 regardless of Store.
	ExtractionThreshold int
	// Store persists a literal and returns its reference id. Required when
	// ExtractionThreshold > 0.
	Store LiteralStore
}

// Transform parses source, applies the seven rewrites in spec order, and
// returns the re-serialized JavaScript text. Source that already contains a
// top-level __ag_main function declaration is returned unchanged.
func Transform(source string, opts Options) (string, error) {
	program, err := parser.ParseFile(nil, "agentscript.js", source, 0)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	if alreadyTransformed(program) {
		return source, nil
	}

	r := &renderer{opts: opts}
	var body strings.Builder
	for _, stmt := range program.Body {
		body.WriteString(r.renderStatement(stmt, loopCtx{}))
	}

	var out strings.Builder
	out.WriteString("function ")
	out.WriteString(entryFunctionName)
	out.WriteString("() {\n")
	out.WriteString(body.String())
	out.WriteString("}\n")
	out.WriteString(entryFunctionName)
	out.WriteString("();\n")
	return out.String(), nil
}

// alreadyTransformed reports whether program already declares a top-level
// __ag_main function, the idempotency marker.
func alreadyTransformed(program *ast.Program) bool {
	for _, stmt := range program.Body {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
			if fd.Function != nil && fd.Function.Name != nil && string(fd.Function.Name.Name) == entryFunctionName {
				return true
			}
		}
	}
	return false
}
