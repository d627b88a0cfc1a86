package astvalidate

import (
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// foldConstantKey attempts to statically determine the string value of a
// computed member expression's key (the "b" in a["b"]). Only a narrow,
// enumerated set of shapes fold: anything else is treated as non-constant
// and is allowed through this specific check, since the Safe Runtime's
// get/set interception is the backstop for computed access the Validator
// cannot prove is safe — when in doubt here, the Validator does not reject,
// it defers.
//
// Recognized shapes:
//   - a string literal: a["constructor"]
//   - a template literal with no substitutions: a[`constructor`]
//   - a binary `+` over two recursively-foldable operands: a["constr" + "uctor"]
//   - a string literal containing a unicode escape that decodes to a
//     denylisted name, e.g. a["constructor"]
func foldConstantKey(expr ast.Expression) (string, bool) {
	switch e := expr.(type) {
	case *ast.StringLiteral:
		return decodeUnicodeEscapes(string(e.Value)), true
	case *ast.TemplateLiteral:
		if len(e.Expressions) > 0 {
			return "", false
		}
		var sb strings.Builder
		for _, el := range e.Elements {
			sb.WriteString(el.Literal)
		}
		return decodeUnicodeEscapes(sb.String()), true
	case *ast.BinaryExpression:
		if e.Operator != token.PLUS {
			return "", false
		}
		left, ok := foldConstantKey(e.Left)
		if !ok {
			return "", false
		}
		right, ok := foldConstantKey(e.Right)
		if !ok {
			return "", false
		}
		return left + right, true
	default:
		return "", false
	}
}

// decodeUnicodeEscapes expands \uXXXX sequences the parser left literal in
// a string's Value. goja's lexer already resolves standard escapes into
// Value, but defends here in case a future parser version preserves them
// raw; strconv.Unquote on a synthesized double-quoted form is the simplest
// correct decoder for this narrow case.
func decodeUnicodeEscapes(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	if decoded, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return decoded
	}
	return s
}
