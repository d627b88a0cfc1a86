package asttransform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// loopCtx tracks whether the statement currently being rendered is a direct
// (unlabeled) member of the loop body under transformation. It is cleared
// when descending into a nested loop (which gets its own rewrite and thus
// its own break/continue target) or a switch statement (whose break targets
// the switch, not an enclosing loop).
type loopCtx struct {
	inLoop bool
}

const breakSentinel = `"__ag_break__"`

type renderer struct {
	opts Options
}

// renderStatement renders a single statement, applying rewrites recursively.
func (r *renderer) renderStatement(stmt ast.Statement, lc loopCtx) string {
	if stmt == nil {
		return ""
	}
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return r.renderExpr(s.Expression) + ";\n"
	case *ast.VariableStatement:
		return r.renderBindings("var", s.List) + ";\n"
	case *ast.LexicalDeclaration:
		kw := "let"
		if s.Token == token.CONST {
			kw = "const"
		}
		return r.renderBindings(kw, s.List) + ";\n"
	case *ast.BlockStatement:
		var sb strings.Builder
		sb.WriteString("{\n")
		for _, st := range s.List {
			sb.WriteString(r.renderStatement(st, lc))
		}
		sb.WriteString("}\n")
		return sb.String()
	case *ast.IfStatement:
		var sb strings.Builder
		sb.WriteString("if (")
		sb.WriteString(r.renderExpr(s.Test))
		sb.WriteString(") ")
		sb.WriteString(r.renderBranch(s.Consequent, lc))
		if s.Alternate != nil {
			sb.WriteString(" else ")
			sb.WriteString(r.renderBranch(s.Alternate, lc))
		}
		return sb.String()
	case *ast.ReturnStatement:
		if s.Argument == nil {
			return "return;\n"
		}
		return "return " + r.renderExpr(s.Argument) + ";\n"
	case *ast.ThrowStatement:
		return "throw " + r.renderExpr(s.Argument) + ";\n"
	case *ast.BranchStatement:
		if lc.inLoop && s.Label == nil {
			if s.Token == token.BREAK {
				return "return " + breakSentinel + ";\n"
			}
			return "return;\n"
		}
		if s.Token == token.BREAK {
			if s.Label != nil {
				return "break " + string(s.Label.Name) + ";\n"
			}
			return "break;\n"
		}
		if s.Label != nil {
			return "continue " + string(s.Label.Name) + ";\n"
		}
		return "continue;\n"
	case *ast.TryStatement:
		var sb strings.Builder
		sb.WriteString("try ")
		sb.WriteString(r.renderStatement(s.Body, lc))
		if s.Catch != nil {
			sb.WriteString("catch (")
			if s.Catch.Parameter != nil {
				sb.WriteString(r.renderExpr(s.Catch.Parameter))
			}
			sb.WriteString(") ")
			sb.WriteString(r.renderStatement(s.Catch.Body, lc))
		}
		if s.Finally != nil {
			sb.WriteString("finally ")
			sb.WriteString(r.renderStatement(s.Finally, lc))
		}
		return sb.String()
	case *ast.SwitchStatement:
		var sb strings.Builder
		sb.WriteString("switch (")
		sb.WriteString(r.renderExpr(s.Discriminant))
		sb.WriteString(") {\n")
		switchLc := loopCtx{inLoop: false}
		for _, c := range s.Body {
			if c.Test != nil {
				sb.WriteString("case ")
				sb.WriteString(r.renderExpr(c.Test))
				sb.WriteString(":\n")
			} else {
				sb.WriteString("default:\n")
			}
			for _, st := range c.Consequent {
				sb.WriteString(r.renderStatement(st, switchLc))
			}
		}
		sb.WriteString("}\n")
		return sb.String()
	case *ast.FunctionDeclaration:
		return r.renderFunctionLiteral(s.Function, true) + "\n"
	case *ast.EmptyStatement:
		return ";\n"
	case *ast.LabelledStatement:
		return string(s.Label.Name) + ": " + r.renderStatement(s.Statement, lc)

	case *ast.ForStatement:
		return r.renderFor(s)
	case *ast.WhileStatement:
		return r.renderWhile(s)
	case *ast.DoWhileStatement:
		return r.renderDoWhile(s)
	case *ast.ForOfStatement:
		return r.renderForOf(s)
	case *ast.ForInStatement:
		// for-in is not part of the AgentScript grammar (spec.md enumerates
		// for/while/do-while/for-of only); reject at render time rather than
		// silently passing it through unmetered.
		return "/* for-in is not supported by this sandbox */;\n"
	}
	return ""
}

// renderBranch renders a statement used as an if/else branch, wrapping a
// bare (non-block) statement in braces so injected sentinel returns are
// always inside a block.
func (r *renderer) renderBranch(stmt ast.Statement, lc loopCtx) string {
	if _, ok := stmt.(*ast.BlockStatement); ok {
		return r.renderStatement(stmt, lc)
	}
	return "{\n" + r.renderStatement(stmt, lc) + "}\n"
}

func (r *renderer) renderBindings(keyword string, list []*ast.Binding) string {
	parts := make([]string, 0, len(list))
	for _, b := range list {
		target := r.renderExpr(b.Target)
		if b.Initializer != nil {
			parts = append(parts, target+" = "+r.renderExpr(b.Initializer))
		} else {
			parts = append(parts, target)
		}
	}
	return keyword + " " + strings.Join(parts, ", ")
}

// renderLoopBodyFunction renders a loop body as a zero-argument function
// expression suitable for passing to a __safe_* helper, with direct
// break/continue rewritten to sentinel returns.
func (r *renderer) renderLoopBodyFunction(body ast.Statement, params string) string {
	lc := loopCtx{inLoop: true}
	var inner string
	if block, ok := body.(*ast.BlockStatement); ok {
		var sb strings.Builder
		for _, st := range block.List {
			sb.WriteString(r.renderStatement(st, lc))
		}
		inner = sb.String()
	} else {
		inner = r.renderStatement(body, lc)
	}
	return "function(" + params + ") {\n" + inner + "}"
}

func (r *renderer) renderFor(s *ast.ForStatement) string {
	init := "undefined"
	if s.Initializer != nil {
		init = r.renderForLoopInitializer(s.Initializer)
	}
	test := "undefined"
	if s.Test != nil {
		test = r.renderExpr(s.Test)
	}
	update := "undefined"
	if s.Update != nil {
		update = r.renderExpr(s.Update)
	}
	return fmt.Sprintf(
		"__safe_for(function() { %s; }, function() { return %s; }, function() { %s; }, %s);\n",
		init, test, update, r.renderLoopBodyFunction(s.Body, ""),
	)
}

func (r *renderer) renderForLoopInitializer(init ast.ForLoopInitializer) string {
	switch i := init.(type) {
	case *ast.ForLoopInitializerExpression:
		return r.renderExpr(i.Expression)
	case *ast.ForLoopInitializerVarDeclList:
		return r.renderBindings("var", i.List)
	case *ast.ForLoopInitializerLexicalDecl:
		kw := "let"
		if i.LexicalDeclaration.Token == token.CONST {
			kw = "const"
		}
		return r.renderBindings(kw, i.LexicalDeclaration.List)
	}
	return "undefined"
}

func (r *renderer) renderWhile(s *ast.WhileStatement) string {
	return fmt.Sprintf(
		"__safe_while(function() { return %s; }, %s);\n",
		r.renderExpr(s.Test), r.renderLoopBodyFunction(s.Body, ""),
	)
}

func (r *renderer) renderDoWhile(s *ast.DoWhileStatement) string {
	return fmt.Sprintf(
		"__safe_doWhile(function() { return %s; }, %s);\n",
		r.renderExpr(s.Test), r.renderLoopBodyFunction(s.Body, ""),
	)
}

func (r *renderer) renderForOf(s *ast.ForOfStatement) string {
	param := r.renderForInto(s.Into)
	return fmt.Sprintf(
		"__safe_forOf(%s, %s);\n",
		r.renderExpr(s.Source), r.renderLoopBodyFunction(s.Body, param),
	)
}

func (r *renderer) renderForInto(into ast.ForInto) string {
	switch i := into.(type) {
	case *ast.ForIntoExpression:
		return r.renderExpr(i.Expression)
	case *ast.ForIntoVar:
		return r.renderExpr(i.Binding.Target)
	case *ast.ForDeclaration:
		return r.renderExpr(i.Target)
	}
	return "_item"
}

func (r *renderer) renderFunctionLiteral(fn *ast.FunctionLiteral, declaration bool) string {
	if fn == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("function")
	if declaration && fn.Name != nil {
		sb.WriteString(" " + string(fn.Name.Name))
	}
	sb.WriteString("(")
	if fn.ParameterList != nil {
		parts := make([]string, 0, len(fn.ParameterList.List))
		for _, p := range fn.ParameterList.List {
			parts = append(parts, r.renderExpr(p.Target))
		}
		sb.WriteString(strings.Join(parts, ", "))
	}
	sb.WriteString(") {\n")
	lc := loopCtx{inLoop: false}
	if fn.Body != nil {
		for _, st := range fn.Body.List {
			sb.WriteString(r.renderStatement(st, lc))
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// renderExpr renders a single expression, applying rewrites 2 (callTool), 4
// (concat), 5 (template), 6 (console), and 7 (sidecar extraction).
func (r *renderer) renderExpr(expr ast.Expression) string {
	if expr == nil {
		return ""
	}
	switch e := expr.(type) {
	case *ast.Identifier:
		if string(e.Name) == "console" {
			return "__safe_console"
		}
		return string(e.Name)
	case *ast.StringLiteral:
		return r.renderStringLiteral(string(e.Value))
	case *ast.NumberLiteral:
		return e.Literal
	case *ast.BooleanLiteral:
		if e.Value {
			return "true"
		}
		return "false"
	case *ast.NullLiteral:
		return "null"
	case *ast.ThisExpression:
		return "this"
	case *ast.DotExpression:
		return r.renderExpr(e.Left) + "." + string(e.Identifier.Name)
	case *ast.BracketExpression:
		return r.renderExpr(e.Left) + "[" + r.renderExpr(e.Member) + "]"
	case *ast.CallExpression:
		if id, ok := e.Callee.(*ast.Identifier); ok && string(id.Name) == "callTool" {
			return "__safe_callTool(" + r.renderArgs(e.ArgumentList) + ")"
		}
		if id, ok := e.Callee.(*ast.Identifier); ok && string(id.Name) == "parallel" {
			return "__safe_parallel(" + r.renderArgs(e.ArgumentList) + ")"
		}
		return r.renderExpr(e.Callee) + "(" + r.renderArgs(e.ArgumentList) + ")"
	case *ast.NewExpression:
		return "new " + r.renderExpr(e.Callee) + "(" + r.renderArgs(e.ArgumentList) + ")"
	case *ast.AssignExpression:
		return r.renderExpr(e.Left) + " " + e.Operator.String() + " " + r.renderExpr(e.Right)
	case *ast.BinaryExpression:
		if e.Operator == token.PLUS {
			return "__safe_concat(" + r.renderExpr(e.Left) + ", " + r.renderExpr(e.Right) + ")"
		}
		return "(" + r.renderExpr(e.Left) + " " + e.Operator.String() + " " + r.renderExpr(e.Right) + ")"
	case *ast.UnaryExpression:
		if e.Postfix {
			return r.renderExpr(e.Operand) + e.Operator.String()
		}
		return e.Operator.String() + r.renderExpr(e.Operand)
	case *ast.ConditionalExpression:
		return "(" + r.renderExpr(e.Test) + " ? " + r.renderExpr(e.Consequent) + " : " + r.renderExpr(e.Alternate) + ")"
	case *ast.SequenceExpression:
		parts := make([]string, 0, len(e.Sequence))
		for _, sub := range e.Sequence {
			parts = append(parts, r.renderExpr(sub))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.ArrayLiteral:
		parts := make([]string, 0, len(e.Value))
		for _, v := range e.Value {
			parts = append(parts, r.renderExpr(v))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.ObjectLiteral:
		parts := make([]string, 0, len(e.Value))
		for _, p := range e.Value {
			switch pk := p.(type) {
			case *ast.PropertyKeyed:
				var key string
				if pk.Computed {
					key = "[" + r.renderExpr(pk.Key) + "]"
				} else {
					key = r.renderExpr(pk.Key)
				}
				parts = append(parts, key+": "+r.renderExpr(pk.Value))
			case *ast.PropertyShort:
				name := string(pk.Name.Name)
				if pk.Initializer != nil {
					parts = append(parts, name+" = "+r.renderExpr(pk.Initializer))
				} else {
					parts = append(parts, name)
				}
			case *ast.PropertySpread:
				parts = append(parts, "..."+r.renderExpr(pk.Expression))
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ast.TemplateLiteral:
		return r.renderTemplate(e)
	case *ast.FunctionLiteral:
		return r.renderFunctionLiteral(e, false)
	case *ast.ArrowFunctionLiteral:
		return r.renderArrow(e)
	case *ast.SpreadElement:
		return "..." + r.renderExpr(e.Expression)
	case *ast.ArrayPattern:
		return r.renderArrayPattern(e)
	case *ast.ObjectPattern:
		return r.renderObjectPattern(e)
	case *ast.AssignPattern:
		return r.renderExpr(e.Left) + " = " + r.renderExpr(e.Right)
	}
	return ""
}

// renderArrayPattern renders an array destructuring target, e.g. [a, , ...rest].
func (r *renderer) renderArrayPattern(e *ast.ArrayPattern) string {
	parts := make([]string, 0, len(e.Elements)+1)
	for _, el := range e.Elements {
		parts = append(parts, r.renderExpr(el))
	}
	if e.Rest != nil {
		parts = append(parts, "..."+r.renderExpr(e.Rest))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// renderObjectPattern renders an object destructuring target, e.g. {a, b: c, ...rest}.
func (r *renderer) renderObjectPattern(e *ast.ObjectPattern) string {
	parts := make([]string, 0, len(e.Properties)+1)
	for _, p := range e.Properties {
		switch pp := p.(type) {
		case *ast.PropertyShort:
			name := string(pp.Name.Name)
			if pp.Initializer != nil {
				parts = append(parts, name+" = "+r.renderExpr(pp.Initializer))
			} else {
				parts = append(parts, name)
			}
		case *ast.PropertyKeyed:
			var key string
			if pp.Computed {
				key = "[" + r.renderExpr(pp.Key) + "]"
			} else {
				key = r.renderExpr(pp.Key)
			}
			parts = append(parts, key+": "+r.renderExpr(pp.Value))
		}
	}
	if e.Rest != nil {
		parts = append(parts, "..."+r.renderExpr(e.Rest))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (r *renderer) renderArrow(e *ast.ArrowFunctionLiteral) string {
	var sb strings.Builder
	sb.WriteString("(")
	if e.ParameterList != nil {
		parts := make([]string, 0, len(e.ParameterList.List))
		for _, p := range e.ParameterList.List {
			parts = append(parts, r.renderExpr(p.Target))
		}
		sb.WriteString(strings.Join(parts, ", "))
	}
	sb.WriteString(") => ")
	lc := loopCtx{inLoop: false}
	switch body := e.Body.(type) {
	case *ast.BlockStatement:
		sb.WriteString("{\n")
		for _, st := range body.List {
			sb.WriteString(r.renderStatement(st, lc))
		}
		sb.WriteString("}")
	case ast.Expression:
		sb.WriteString(r.renderExpr(body))
	}
	return sb.String()
}

func (r *renderer) renderArgs(args []ast.Expression) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, r.renderExpr(a))
	}
	return strings.Join(parts, ", ")
}

// renderStringLiteral applies rewrite 7: if a sidecar store is configured
// and the literal's length meets the extraction threshold, the literal is
// replaced with a call to __safe_resolveRef.
func (r *renderer) renderStringLiteral(value string) string {
	if r.opts.ExtractionThreshold > 0 && r.opts.Store != nil && len([]rune(value)) >= r.opts.ExtractionThreshold {
		if ref, ok := r.opts.Store(value); ok {
			return "__safe_resolveRef(" + strconv.Quote(ref) + ")"
		}
	}
	return strconv.Quote(value)
}

// renderTemplate applies rewrite 5, turning every template literal into a
// __safe_template call carrying its quasis as a string array followed by
// its substitution expressions.
func (r *renderer) renderTemplate(e *ast.TemplateLiteral) string {
	quasis := make([]string, 0, len(e.Elements))
	for _, el := range e.Elements {
		quasis = append(quasis, r.renderStringLiteral(el.Literal))
	}
	args := []string{"[" + strings.Join(quasis, ", ") + "]"}
	for _, sub := range e.Expressions {
		args = append(args, r.renderExpr(sub))
	}
	return "__safe_template(" + strings.Join(args, ", ") + ")"
}
