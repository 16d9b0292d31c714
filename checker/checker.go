// Package checker assigns a type to every expression in the AST and reports
// every type error discoverable in a single pass.
//
// Checking is bottom-up: operand types are computed first, then combined by
// the rules of each operator. Mixed numeric operands widen to the more
// general type in the order i32 -> i64 -> f32 -> f64. Assignments permit
// only one implicit conversion: an integer literal may widen to the target's
// numeric type. Everything else must match exactly.
//
// Like the parser, the checker accumulates diagnostics rather than stopping
// at the first, so one compile attempt reports as much as possible.
package checker

import (
	"math"
	"strings"

	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/token"
	"github.com/lumalang/luma/types"
)

// Option is a configuration function for a Checker.
type Option func(*Checker)

// WithSource provides the original source code, used to attach source line
// context to diagnostics.
func WithSource(source string) Option {
	return func(c *Checker) {
		c.lines = strings.Split(source, "\n")
	}
}

// WithFilename sets the file name used in diagnostics.
func WithFilename(filename string) Option {
	return func(c *Checker) {
		c.filename = filename
	}
}

// Checker validates and annotates a parsed program.
type Checker struct {
	diags    []*errors.Diagnostic
	scope    *Scope
	current  *ast.Func // function whose body is being checked
	loops    int       // nesting depth of enclosing loops
	lines    []string
	filename string
}

// Check type-checks the program, annotating every expression node in place.
// The returned error combines every diagnostic found; a nil error means the
// program is well typed.
func Check(program *ast.Program, options ...Option) error {
	c := &Checker{scope: NewScope(nil)}
	for _, opt := range options {
		opt(c)
	}

	// Pass 1: register all top-level function signatures so that functions
	// can call other functions declared later in the source.
	for _, fn := range program.Funcs() {
		c.declareFunc(fn)
	}

	// Pass 2: check every statement.
	for _, stmt := range program.Stmts {
		c.checkStmt(stmt)
	}
	return errors.Combine(c.diags)
}

// declareFunc resolves a function's declared parameter and return types and
// registers its signature in the module scope.
func (c *Checker) declareFunc(fn *ast.Func) {
	params := make([]*types.Type, 0, len(fn.Params))
	for _, p := range fn.Params {
		t, ok := types.Lookup(p.TypeName)
		if !ok {
			c.errorAt(errors.E3002, p.TypePos, "unknown type %q", p.TypeName)
			t = types.Invalid
		}
		params = append(params, t)
	}
	var result *types.Type
	if fn.ReturnName != "" {
		t, ok := types.Lookup(fn.ReturnName)
		if !ok {
			c.errorAt(errors.E3002, fn.ReturnPos, "unknown type %q", fn.ReturnName)
			t = types.Invalid
		}
		result = t
	}
	fn.Sig = types.Function(params, result)
	if !c.scope.Declare(&Symbol{Name: fn.Name.Name, Type: fn.Sig, IsFunc: true}) {
		c.errorAt(errors.E3005, fn.Name.Pos(), "%q is already declared", fn.Name.Name)
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Func:
		c.checkFunc(s)
	case *ast.Let:
		c.checkLet(s)
	case *ast.Return:
		c.checkReturn(s)
	case *ast.Block:
		c.pushScope()
		for _, inner := range s.Stmts {
			c.checkStmt(inner)
		}
		c.popScope()
	case *ast.If:
		c.checkCondition(s.Condition, "if")
		c.checkStmt(s.Then)
		if s.Else != nil {
			c.checkStmt(s.Else)
		}
	case *ast.While:
		c.checkCondition(s.Condition, "while")
		c.loops++
		c.checkStmt(s.Body)
		c.loops--
	case *ast.For:
		// The init clause's declaration is scoped to the loop.
		c.pushScope()
		if s.Init != nil {
			c.checkStmt(s.Init)
		}
		if s.Cond != nil {
			c.checkCondition(s.Cond, "for")
		}
		if s.Post != nil {
			c.checkExpr(s.Post)
		}
		c.loops++
		c.checkStmt(s.Body)
		c.loops--
		c.popScope()
	case *ast.Break:
		if c.loops == 0 {
			c.errorAt(errors.E3004, s.Pos(), "break outside of a loop")
		}
	case *ast.Continue:
		if c.loops == 0 {
			c.errorAt(errors.E3004, s.Pos(), "continue outside of a loop")
		}
	case *ast.ExprStmt:
		c.checkExpr(s.Expr)
	case *ast.BadStmt:
		// Parser already reported it.
	}
}

func (c *Checker) checkFunc(fn *ast.Func) {
	if fn.Sig == nil {
		// Nested function declarations are not registered by pass 1.
		c.errorAt(errors.E3004, fn.Pos(), "function %q must be declared at the top level", fn.Name.Name)
		return
	}
	prev := c.current
	c.current = fn
	c.pushScope()
	for i, p := range fn.Params {
		if !c.scope.Declare(&Symbol{Name: p.Name.Name, Type: fn.Sig.Params[i]}) {
			c.errorAt(errors.E3005, p.Name.Pos(), "duplicate parameter %q", p.Name.Name)
		}
		p.Name.SetType(fn.Sig.Params[i])
	}
	// The body's own scope nests inside the parameter scope.
	c.checkStmt(fn.Body)
	c.popScope()
	c.current = prev
}

func (c *Checker) checkLet(s *ast.Let) {
	valueType := c.checkExpr(s.Value)
	declType := valueType
	if s.TypeName != "" {
		t, ok := types.Lookup(s.TypeName)
		if !ok {
			c.errorAt(errors.E3002, s.TypePos, "unknown type %q", s.TypeName)
			t = types.Invalid
		}
		declType = t
		if !c.assignable(valueType, declType, s.Value) {
			c.errorAt(errors.E3001, s.Value.Pos(),
				"cannot initialize %q (%s) with a value of type %s",
				s.Name.Name, declType, valueType)
		}
	}
	if declType == nil {
		c.errorAt(errors.E3001, s.Value.Pos(), "cannot declare %q with no value", s.Name.Name)
		declType = types.Invalid
	}
	s.Name.SetType(declType)
	if !c.scope.Declare(&Symbol{Name: s.Name.Name, Type: declType}) {
		c.errorAt(errors.E3005, s.Name.Pos(), "%q is already declared in this scope", s.Name.Name)
	}
}

func (c *Checker) checkReturn(s *ast.Return) {
	if c.current == nil {
		c.errorAt(errors.E3004, s.Pos(), "return outside of a function")
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
		return
	}
	want := c.current.Sig.Result
	if s.Value == nil {
		if want != nil {
			c.errorAt(errors.E3001, s.Pos(),
				"function %q must return %s", c.current.Name.Name, want)
		}
		return
	}
	got := c.checkExpr(s.Value)
	if want == nil {
		c.errorAt(errors.E3001, s.Value.Pos(),
			"function %q does not return a value", c.current.Name.Name)
		return
	}
	if !c.assignable(got, want, s.Value) {
		c.errorAt(errors.E3001, s.Value.Pos(),
			"cannot return %s from function %q returning %s",
			got, c.current.Name.Name, want)
	}
}

func (c *Checker) checkCondition(cond ast.Expr, construct string) {
	t := c.checkExpr(cond)
	if t != nil && t != types.Invalid && t.Kind != types.BoolKind {
		c.errorAt(errors.E3001, cond.Pos(),
			"%s condition must be bool, found %s", construct, t)
	}
}

// checkExpr computes and annotates the type of an expression, returning it.
// Errors yield types.Invalid, which is deliberately compatible with
// everything to avoid cascading diagnostics.
func (c *Checker) checkExpr(expr ast.Expr) *types.Type {
	t := c.typeOf(expr)
	expr.SetType(t)
	return t
}

func (c *Checker) typeOf(expr ast.Expr) *types.Type {
	switch e := expr.(type) {
	case *ast.Int:
		// Literals default to i32; ones that do not fit are i64.
		if e.Value > math.MaxInt32 || e.Value < math.MinInt32 {
			return types.I64
		}
		return types.I32
	case *ast.Float:
		return types.F64
	case *ast.Bool:
		return types.Bool
	case *ast.String:
		return types.String
	case *ast.Null:
		return types.Null
	case *ast.Ident:
		sym, ok := c.scope.Resolve(e.Name)
		if !ok {
			c.errorAt(errors.E3002, e.Pos(), "undefined: %q", e.Name)
			return types.Invalid
		}
		if sym.IsFunc {
			c.errorAt(errors.E3004, e.Pos(), "function %q is not a value", e.Name)
			return types.Invalid
		}
		return sym.Type
	case *ast.Prefix:
		return c.checkPrefix(e)
	case *ast.Infix:
		return c.checkInfix(e)
	case *ast.Assign:
		return c.checkAssign(e)
	case *ast.Call:
		return c.checkCall(e)
	case *ast.BadExpr:
		return types.Invalid
	}
	return types.Invalid
}

func (c *Checker) checkPrefix(e *ast.Prefix) *types.Type {
	operand := c.checkExpr(e.Operand)
	if operand == types.Invalid {
		return types.Invalid
	}
	switch e.Op {
	case token.MINUS:
		if !operand.IsNumeric() {
			c.errorAt(errors.E3004, e.Operand.Pos(), "operator - requires a numeric operand, found %s", operand)
			return types.Invalid
		}
		return operand
	case token.BANG:
		if operand.Kind != types.BoolKind {
			c.errorAt(errors.E3004, e.Operand.Pos(), "operator ! requires a bool operand, found %s", operand)
			return types.Invalid
		}
		return types.Bool
	case token.TILDE:
		if !operand.IsInteger() {
			c.errorAt(errors.E3004, e.Operand.Pos(), "operator ~ requires an integer operand, found %s", operand)
			return types.Invalid
		}
		return operand
	}
	return types.Invalid
}

func (c *Checker) checkInfix(e *ast.Infix) *types.Type {
	left := c.checkExpr(e.Left)
	right := c.checkExpr(e.Right)
	if left == types.Invalid || right == types.Invalid {
		return types.Invalid
	}
	return c.binaryOpType(e.Op, left, right, e)
}

// binaryOpType applies the operator type rules to two operand types,
// reporting an error at the node's position when they are incompatible.
func (c *Checker) binaryOpType(op token.Type, left, right *types.Type, e *ast.Infix) *types.Type {
	switch op {
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.POW:
		if left.IsNumeric() && right.IsNumeric() {
			widened, _ := types.Widen(left, right)
			return widened
		}
	case token.MOD:
		if left.IsInteger() && right.IsInteger() {
			widened, _ := types.Widen(left, right)
			return widened
		}
	case token.AMPERSAND, token.PIPE, token.CARET, token.LT_LT, token.GT_GT:
		if left.IsInteger() && right.IsInteger() {
			widened, _ := types.Widen(left, right)
			return widened
		}
	case token.LT, token.LT_EQUALS, token.GT, token.GT_EQUALS:
		if left.IsNumeric() && right.IsNumeric() {
			return types.Bool
		}
	case token.EQ, token.NOT_EQ:
		if left.IsNumeric() && right.IsNumeric() {
			return types.Bool
		}
		if left.Kind == types.BoolKind && right.Kind == types.BoolKind {
			return types.Bool
		}
	case token.AND, token.OR:
		if left.Kind == types.BoolKind && right.Kind == types.BoolKind {
			return types.Bool
		}
	}
	c.errorAt(errors.E3001, e.OpPos,
		"operator %s is not defined for %s and %s", op, left, right)
	return types.Invalid
}

func (c *Checker) checkAssign(e *ast.Assign) *types.Type {
	sym, ok := c.scope.Resolve(e.Name.Name)
	if !ok {
		c.errorAt(errors.E3002, e.Name.Pos(), "undefined: %q", e.Name.Name)
		c.checkExpr(e.Value)
		return types.Invalid
	}
	if sym.IsFunc {
		c.errorAt(errors.E3004, e.Name.Pos(), "cannot assign to function %q", e.Name.Name)
		c.checkExpr(e.Value)
		return types.Invalid
	}
	e.Name.SetType(sym.Type)
	valueType := c.checkExpr(e.Value)
	if valueType == types.Invalid {
		return types.Invalid
	}
	if binOp, isCompound := token.BinaryOp(e.Op); isCompound {
		// x += v checks like x = x + v.
		result := c.binaryOpType(binOp, sym.Type, valueType,
			&ast.Infix{Left: e.Name, OpPos: e.OpPos, Op: binOp, Right: e.Value})
		if result == types.Invalid {
			return types.Invalid
		}
		if !types.Equal(result, sym.Type) {
			c.errorAt(errors.E3001, e.OpPos,
				"operator %s would widen %q from %s to %s", e.Op, e.Name.Name, sym.Type, result)
			return types.Invalid
		}
		return sym.Type
	}
	if !c.assignable(valueType, sym.Type, e.Value) {
		c.errorAt(errors.E3001, e.Value.Pos(),
			"cannot assign %s to %q (%s)", valueType, e.Name.Name, sym.Type)
		return types.Invalid
	}
	return sym.Type
}

func (c *Checker) checkCall(e *ast.Call) *types.Type {
	sym, ok := c.scope.Resolve(e.Fn.Name)
	if !ok {
		c.errorAt(errors.E3002, e.Fn.Pos(), "undefined: %q", e.Fn.Name)
		for _, arg := range e.Args {
			c.checkExpr(arg)
		}
		return types.Invalid
	}
	if !sym.IsFunc {
		c.errorAt(errors.E3004, e.Fn.Pos(), "%q is not a function", e.Fn.Name)
		for _, arg := range e.Args {
			c.checkExpr(arg)
		}
		return types.Invalid
	}
	sig := sym.Type
	e.Fn.SetType(sig)
	if len(e.Args) != len(sig.Params) {
		c.errorAt(errors.E3003, e.Pos(),
			"function %q takes %d arguments, found %d", e.Fn.Name, len(sig.Params), len(e.Args))
	}
	for i, arg := range e.Args {
		argType := c.checkExpr(arg)
		if i >= len(sig.Params) || argType == types.Invalid {
			continue
		}
		if !c.assignable(argType, sig.Params[i], arg) {
			c.errorAt(errors.E3001, arg.Pos(),
				"argument %d of %q must be %s, found %s", i+1, e.Fn.Name, sig.Params[i], argType)
		}
	}
	if sig.Result == nil {
		return types.Null
	}
	return sig.Result
}

// assignable reports whether a value of type `from` may be stored into a
// location of type `to`. Identical types always match. The only implicit
// conversions are literal adoptions: an integer literal widens to a more
// general numeric type, and a float literal takes on the float type of its
// context. Adopted literals are re-annotated with the target type so the
// generator emits them directly at the right width.
func (c *Checker) assignable(from, to *types.Type, value ast.Expr) bool {
	if from == types.Invalid || to == types.Invalid {
		return true // already reported
	}
	if types.Equal(from, to) {
		return true
	}
	if lit, ok := value.(*ast.Int); ok && types.Widens(from, to) {
		lit.SetType(to)
		return true
	}
	// A float literal adopts any float context, so f32 locations are
	// initializable from literal text that would otherwise default to f64.
	if lit, ok := value.(*ast.Float); ok && to.IsFloat() {
		lit.SetType(to)
		return true
	}
	return false
}

func (c *Checker) pushScope() {
	c.scope = NewScope(c.scope)
}

func (c *Checker) popScope() {
	c.scope = c.scope.Parent()
}

// errorAt records a diagnostic at the given source position.
func (c *Checker) errorAt(code errors.ErrorCode, pos token.Position, format string, args ...any) {
	loc := errors.SourceLocation{
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}
	if pos.File != "" {
		loc.Filename = pos.File
	}
	if pos.Line < len(c.lines) {
		loc.Source = c.lines[pos.Line]
	}
	c.diags = append(c.diags, errors.NewAt(code, loc, format, args...))
}
