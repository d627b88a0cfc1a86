// Package astvalidate implements the AST Validator: a static, allow/deny
// analysis pass over parsed AgentScript source that runs before any
// transformation or execution. It never executes the candidate source.
package astvalidate

import "fmt"

// Code classifies why the Validator rejected a piece of source.
type Code string

// Validator issue codes.
const (
	CodeGlobalNotAllowed Code = "GLOBAL_NOT_ALLOWED"
	CodeConstructorAccess Code = "CONSTRUCTOR_ACCESS"
	CodePrototypeAccess  Code = "PROTOTYPE_ACCESS"
	CodeSymbolAccess     Code = "SYMBOL_ACCESS"
	CodeReservedPrefix   Code = "RESERVED_PREFIX"
	CodeDynamicCode      Code = "DYNAMIC_CODE"
	CodeUnsafeConstruct  Code = "UNSAFE_CONSTRUCT"
)

// Issue is a single validation failure, positioned within the source.
type Issue struct {
	Code    Code
	Message string
	Line    int
	Column  int
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", i.Code, i.Line, i.Column, i.Message)
}

func issuef(code Code, line, col int, format string, args ...any) Issue {
	return Issue{Code: code, Message: fmt.Sprintf(format, args...), Line: line, Column: col}
}
