package astvalidate

import (
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// reservedIdentifierPrefix marks names the Safe Runtime injects into scope
// (the __safe_* and __ag_* families); AgentScript authors may not reference
// or declare anything under it directly.
const reservedIdentifierPrefix = "__"

// denylistedProperties are property names that, however reached (dot or
// computed access), let a script escape its object graph into constructor
// chains or VM internals.
var denylistedProperties = map[string]Code{
	"constructor":        CodeConstructorAccess,
	"__proto__":          CodePrototypeAccess,
	"prototype":          CodePrototypeAccess,
	"__defineGetter__":   CodePrototypeAccess,
	"__defineSetter__":   CodePrototypeAccess,
}

// denylistedCallees are identifiers that, when called directly, perform
// dynamic code execution or otherwise bypass the AST's static guarantees.
var denylistedCallees = map[string]Code{
	"eval":     CodeDynamicCode,
	"Function": CodeDynamicCode,
}

// Options configures a Validator's allow-list.
type Options struct {
	// AllowedGlobals names the identifiers a script may reference as free
	// variables (i.e. not bound by a local declaration or parameter). Any
	// other free identifier is rejected with CodeGlobalNotAllowed.
	AllowedGlobals []string
	// AllowSymbolAccess permits member access to "Symbol" and well-known
	// symbol properties. Defaults to false.
	AllowSymbolAccess bool
}

// Validator performs a single static pass over AgentScript source.
type Validator struct {
	allowed map[string]bool
	opts    Options
}

// New constructs a Validator from Options.
func New(opts Options) *Validator {
	allowed := make(map[string]bool, len(opts.AllowedGlobals))
	for _, name := range opts.AllowedGlobals {
		allowed[name] = true
	}
	return &Validator{allowed: allowed, opts: opts}
}

// Validate parses source and walks its AST, returning every Issue found. A
// nil/empty slice with a nil error means source passed validation. A parse
// error is returned as-is (wrapped by the caller into the Enclave's error
// taxonomy); it is not itself an Issue since the source never produced an AST
// to check.
func (v *Validator) Validate(source string) ([]Issue, error) {
	program, err := parser.ParseFile(nil, "agentscript.js", source, 0)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	w := &walker{v: v, scopes: []scope{newScope(nil)}}
	for _, stmt := range program.Body {
		w.walkStatement(stmt)
	}
	return w.issues, nil
}

// scope tracks locally-bound names (parameters, var/let/const declarations,
// function names) so free-identifier checks don't flag legitimate locals.
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(parent *scope) scope {
	return scope{parent: parent, names: map[string]bool{}}
}

func (s *scope) bind(name string) { s.names[name] = true }

func (s *scope) resolves(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

type walker struct {
	v      *Validator
	issues []Issue
	scopes []scope
}

func (w *walker) current() *scope { return &w.scopes[len(w.scopes)-1] }

func (w *walker) push() { w.scopes = append(w.scopes, newScope(w.current())) }
func (w *walker) pop()  { w.scopes = w.scopes[:len(w.scopes)-1] }

func (w *walker) report(code Code, idx int, format string, args ...any) {
	w.issues = append(w.issues, issuef(code, 0, idx, format, args...))
}

func (w *walker) checkIdentifierName(name string, idx int) {
	if strings.HasPrefix(name, reservedIdentifierPrefix) {
		w.report(CodeReservedPrefix, idx, "identifier %q uses the reserved __ prefix", name)
	}
}

func (w *walker) checkFreeIdentifier(name string, idx int) {
	if name == "undefined" || name == "NaN" || name == "Infinity" {
		return
	}
	if w.current().resolves(name) {
		return
	}
	if w.v.allowed[name] {
		return
	}
	w.report(CodeGlobalNotAllowed, idx, "identifier %q is not an allowed global", name)
}

func (w *walker) checkPropertyName(name string, idx int) {
	if code, bad := denylistedProperties[name]; bad {
		w.report(code, idx, "access to %q is not allowed", name)
	}
	if !w.v.opts.AllowSymbolAccess && name == "Symbol" {
		w.report(CodeSymbolAccess, idx, "access to Symbol is not allowed")
	}
}

// walkStatement dispatches on concrete statement type. Unknown/unhandled
// statement kinds are silently skipped rather than rejected: the allow-list
// model means only expressions can reach disallowed capability, and every
// statement kind that can contain expressions is covered below.
func (w *walker) walkStatement(stmt ast.Statement) {
	if stmt == nil {
		return
	}
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		w.walkExpression(s.Expression)
	case *ast.VariableStatement:
		for _, b := range s.List {
			w.bindTarget(b.Target)
			w.walkExpression(b.Initializer)
		}
	case *ast.LexicalDeclaration:
		for _, b := range s.List {
			w.bindTarget(b.Target)
			w.walkExpression(b.Initializer)
		}
	case *ast.BlockStatement:
		w.push()
		for _, st := range s.List {
			w.walkStatement(st)
		}
		w.pop()
	case *ast.IfStatement:
		w.walkExpression(s.Test)
		w.walkStatement(s.Consequent)
		w.walkStatement(s.Alternate)
	case *ast.ForStatement:
		w.push()
		if s.Initializer != nil {
			w.walkForLoopInitializer(s.Initializer)
		}
		w.walkExpression(s.Test)
		w.walkExpression(s.Update)
		w.walkStatement(s.Body)
		w.pop()
	case *ast.ForInStatement:
		w.push()
		w.bindForInto(s.Into)
		w.walkExpression(s.Source)
		w.walkStatement(s.Body)
		w.pop()
	case *ast.ForOfStatement:
		w.push()
		w.bindForInto(s.Into)
		w.walkExpression(s.Source)
		w.walkStatement(s.Body)
		w.pop()
	case *ast.WhileStatement:
		w.walkExpression(s.Test)
		w.walkStatement(s.Body)
	case *ast.DoWhileStatement:
		w.walkExpression(s.Test)
		w.walkStatement(s.Body)
	case *ast.ReturnStatement:
		w.walkExpression(s.Argument)
	case *ast.ThrowStatement:
		w.walkExpression(s.Argument)
	case *ast.TryStatement:
		w.walkStatement(s.Body)
		if s.Catch != nil {
			w.push()
			if s.Catch.Parameter != nil {
				w.bindTarget(s.Catch.Parameter)
			}
			w.walkStatement(s.Catch.Body)
			w.pop()
		}
		w.walkStatement(s.Finally)
	case *ast.SwitchStatement:
		w.walkExpression(s.Discriminant)
		for _, c := range s.Body {
			w.walkExpression(c.Test)
			for _, st := range c.Consequent {
				w.walkStatement(st)
			}
		}
	case *ast.FunctionDeclaration:
		if s.Function != nil && s.Function.Name != nil {
			w.checkIdentifierName(string(s.Function.Name.Name), int(s.Function.Name.Idx))
			w.current().bind(string(s.Function.Name.Name))
		}
		w.walkFunctionLiteral(s.Function)
	case *ast.LabelledStatement:
		w.walkStatement(s.Statement)
	}
}

func (w *walker) walkForLoopInitializer(init ast.ForLoopInitializer) {
	switch i := init.(type) {
	case *ast.ForLoopInitializerExpression:
		w.walkExpression(i.Expression)
	case *ast.ForLoopInitializerVarDeclList:
		for _, b := range i.List {
			w.bindTarget(b.Target)
			w.walkExpression(b.Initializer)
		}
	case *ast.ForLoopInitializerLexicalDecl:
		for _, b := range i.LexicalDeclaration.List {
			w.bindTarget(b.Target)
			w.walkExpression(b.Initializer)
		}
	}
}

func (w *walker) bindForInto(into ast.ForInto) {
	switch i := into.(type) {
	case *ast.ForIntoExpression:
		w.bindTarget(i.Expression)
	case *ast.ForIntoVar:
		w.bindTarget(i.Binding.Target)
	case *ast.ForDeclaration:
		w.bindTarget(i.Target)
	}
}

// bindTarget records every identifier a binding target introduces, without
// descending into computed member access (assignment targets like a.b or
// a[b] are not new bindings and are validated as ordinary expressions when
// the enclosing assignment is walked).
func (w *walker) bindTarget(target ast.Expression) {
	switch t := target.(type) {
	case *ast.Identifier:
		name := string(t.Name)
		w.checkIdentifierName(name, int(t.Idx))
		w.current().bind(name)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			w.bindTarget(el)
		}
		if t.Rest != nil {
			w.bindTarget(t.Rest)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			switch pp := p.(type) {
			case *ast.PropertyShort:
				w.bindTarget(&pp.Name)
				if pp.Initializer != nil {
					w.walkExpression(pp.Initializer)
				}
			case *ast.PropertyKeyed:
				// {key: target} destructuring: key names an existing
				// property, not a new binding; target is.
				w.bindTarget(pp.Value)
			}
		}
		if t.Rest != nil {
			w.bindTarget(t.Rest)
		}
	case *ast.AssignPattern:
		w.bindTarget(t.Left)
		w.walkExpression(t.Right)
	}
}

// walkFunctionLiteral handles both declarations and expressions: it pushes a
// scope, binds the function's own name and parameters, then walks the body.
func (w *walker) walkFunctionLiteral(fn *ast.FunctionLiteral) {
	if fn == nil {
		return
	}
	w.push()
	if fn.Name != nil {
		w.checkIdentifierName(string(fn.Name.Name), int(fn.Name.Idx))
		w.current().bind(string(fn.Name.Name))
	}
	if fn.ParameterList != nil {
		for _, p := range fn.ParameterList.List {
			w.bindTarget(p.Target)
		}
	}
	if fn.Body != nil {
		for _, st := range fn.Body.List {
			w.walkStatement(st)
		}
	}
	w.pop()
}

// walkExpression dispatches on concrete expression type, the core of the
// allow/deny analysis: every capability check in this package happens here.
func (w *walker) walkExpression(expr ast.Expression) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.Identifier:
		w.checkFreeIdentifier(string(e.Name), int(e.Idx))
	case *ast.DotExpression:
		w.walkExpression(e.Left)
		w.checkPropertyName(string(e.Identifier.Name), int(e.Identifier.Idx))
	case *ast.BracketExpression:
		w.walkExpression(e.Left)
		w.walkExpression(e.Member)
		if name, ok := foldConstantKey(e.Member); ok {
			w.checkPropertyName(name, int(e.LeftBracket))
		}
	case *ast.CallExpression:
		if id, ok := e.Callee.(*ast.Identifier); ok {
			if code, bad := denylistedCallees[string(id.Name)]; bad {
				w.report(code, int(id.Idx), "call to %q is not allowed", id.Name)
			}
		}
		w.walkExpression(e.Callee)
		for _, arg := range e.ArgumentList {
			w.walkExpression(arg)
		}
	case *ast.NewExpression:
		if id, ok := e.Callee.(*ast.Identifier); ok && string(id.Name) == "Function" {
			w.report(CodeUnsafeConstruct, int(id.Idx), "new Function(...) is not allowed")
		}
		w.walkExpression(e.Callee)
		for _, arg := range e.ArgumentList {
			w.walkExpression(arg)
		}
	case *ast.AssignExpression:
		w.walkExpression(e.Left)
		w.walkExpression(e.Right)
	case *ast.BinaryExpression:
		w.walkExpression(e.Left)
		w.walkExpression(e.Right)
	case *ast.UnaryExpression:
		w.walkExpression(e.Operand)
	case *ast.ConditionalExpression:
		w.walkExpression(e.Test)
		w.walkExpression(e.Consequent)
		w.walkExpression(e.Alternate)
	case *ast.SequenceExpression:
		for _, sub := range e.Sequence {
			w.walkExpression(sub)
		}
	case *ast.ArrayLiteral:
		for _, v := range e.Value {
			w.walkExpression(v)
		}
	case *ast.ObjectLiteral:
		for _, p := range e.Value {
			if pk, ok := p.(*ast.PropertyKeyed); ok {
				w.walkExpression(pk.Value)
			}
		}
	case *ast.TemplateLiteral:
		for _, sub := range e.Expressions {
			w.walkExpression(sub)
		}
	case *ast.FunctionLiteral:
		w.walkFunctionLiteral(e)
	case *ast.ArrowFunctionLiteral:
		w.push()
		if e.ParameterList != nil {
			for _, p := range e.ParameterList.List {
				w.bindTarget(p.Target)
			}
		}
		switch body := e.Body.(type) {
		case *ast.BlockStatement:
			for _, st := range body.List {
				w.walkStatement(st)
			}
		case ast.Expression:
			w.walkExpression(body)
		}
		w.pop()
	case *ast.SpreadElement:
		w.walkExpression(e.Expression)
	}
}
