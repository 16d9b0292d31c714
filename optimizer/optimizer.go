// Package optimizer rewrites a type-checked AST into a cheaper equivalent.
//
// Four passes run repeatedly until none of them changes the tree, capped at
// a fixed iteration count: constant folding, power unrolling, strength
// reduction, and dead code elimination. Each pass is pure. It builds new
// nodes carrying the same type annotations and never mutates the input tree,
// so the caller's program remains valid if optimization is abandoned.
//
// Folding uses run-time numeric semantics: integer division truncates toward
// zero and shift counts are masked to the operand width. An integer division
// by a literal zero is never folded; it is reported as a diagnostic since
// it can only trap.
package optimizer

import (
	"math"
	"strconv"
	"strings"

	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/token"
	"github.com/lumalang/luma/types"
)

// DefaultMaxIterations bounds the fixed-point loop. Passes only shrink the
// tree, so in practice two or three iterations suffice; the cap is a guard
// against a rewrite cycle introduced by a future pass.
const DefaultMaxIterations = 10

// MaxUnrollExponent is the largest constant integer exponent that power
// unrolling expands into a multiply chain.
const MaxUnrollExponent = 8

// Option is a configuration function for the optimizer.
type Option func(*Optimizer)

// WithMaxIterations overrides the fixed-point iteration cap.
func WithMaxIterations(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithSource provides the original source code, used to attach source line
// context to diagnostics.
func WithSource(source string) Option {
	return func(o *Optimizer) {
		o.lines = strings.Split(source, "\n")
	}
}

// WithFilename sets the file name used in diagnostics.
func WithFilename(filename string) Option {
	return func(o *Optimizer) {
		o.filename = filename
	}
}

// Optimizer holds state shared by the passes for one Optimize call.
type Optimizer struct {
	maxIterations int
	diags         []*errors.Diagnostic
	reported      map[token.Position]bool // positions already diagnosed
	lines         []string
	filename      string
}

// Optimize applies all passes to a type-checked program until a fixed point
// is reached. It returns the optimized program, which shares no rewritten
// nodes with the input. The error combines any diagnostics found, currently
// only integer division by a literal zero; the returned program is still
// usable when the error is non-nil.
func Optimize(program *ast.Program, options ...Option) (*ast.Program, error) {
	o := &Optimizer{
		maxIterations: DefaultMaxIterations,
		reported:      map[token.Position]bool{},
	}
	for _, opt := range options {
		opt(o)
	}

	passes := []func(*ast.Program) (*ast.Program, bool){
		o.foldConstants,
		o.unrollPowers,
		o.reduceStrength,
		o.eliminateDeadCode,
	}
	for i := 0; i < o.maxIterations; i++ {
		changed := false
		for _, pass := range passes {
			var ch bool
			program, ch = pass(program)
			changed = changed || ch
		}
		if !changed {
			break
		}
	}
	return program, errors.Combine(o.diags)
}

// foldConstants evaluates operators whose operands are all literals. The
// result literal carries the type annotation of the folded expression, so
// an i32 literal that the checker widened into an i64 context folds into an
// i64 result.
func (o *Optimizer) foldConstants(program *ast.Program) (*ast.Program, bool) {
	return rewriteProgram(program, transform{exprFn: o.foldExpr})
}

func (o *Optimizer) foldExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case *ast.Prefix:
		return o.foldPrefix(e)
	case *ast.Infix:
		return o.foldInfix(e)
	}
	return expr
}

func (o *Optimizer) foldPrefix(e *ast.Prefix) ast.Expr {
	switch operand := e.Operand.(type) {
	case *ast.Int:
		switch e.Op {
		case token.MINUS:
			return o.newInt(e, -operand.Value)
		case token.TILDE:
			return o.newInt(e, ^operand.Value)
		}
	case *ast.Float:
		if e.Op == token.MINUS {
			return o.newFloat(e, -operand.Value)
		}
	case *ast.Bool:
		if e.Op == token.BANG {
			return o.newBool(e, !operand.Value)
		}
	}
	return e
}

func (o *Optimizer) foldInfix(e *ast.Infix) ast.Expr {
	left, leftOk := literalValue(e.Left)
	right, rightOk := literalValue(e.Right)

	// A literal zero divisor is diagnosed even when the dividend is not
	// constant.
	if rightOk && right.kind == intLit && right.i == 0 &&
		e.Type() != nil && e.Type().IsInteger() {
		switch e.Op {
		case token.SLASH:
			o.errorOnce(errors.E5005, e.Right.Pos(), "integer division by zero")
			return e
		case token.MOD:
			o.errorOnce(errors.E5005, e.Right.Pos(), "integer modulo by zero")
			return e
		}
	}

	if !leftOk || !rightOk {
		return e
	}

	switch {
	case left.kind == boolLit && right.kind == boolLit:
		return o.foldBools(e, left.b, right.b)
	case e.Type() != nil && e.Type().IsInteger():
		return o.foldInts(e, left.i, right.i)
	case e.Type() == types.Bool:
		// A comparison; operand types decide integer vs float compare.
		if e.Left.Type() != nil && e.Left.Type().IsFloat() || e.Right.Type() != nil && e.Right.Type().IsFloat() {
			return o.foldFloatCompare(e, left.float(), right.float())
		}
		if left.kind == floatLit || right.kind == floatLit {
			return o.foldFloatCompare(e, left.float(), right.float())
		}
		return o.foldIntCompare(e, left.i, right.i)
	case e.Type() != nil && e.Type().IsFloat():
		return o.foldFloats(e, left.float(), right.float())
	}
	return e
}

func (o *Optimizer) foldInts(e *ast.Infix, left, right int64) ast.Expr {
	width := int64(64)
	if e.Type() == types.I32 {
		width = 32
	}
	var value int64
	switch e.Op {
	case token.PLUS:
		value = left + right
	case token.MINUS:
		value = left - right
	case token.ASTERISK:
		value = left * right
	case token.SLASH:
		if right == 0 {
			o.errorOnce(errors.E5005, e.Right.Pos(), "integer division by zero")
			return e
		}
		value = left / right // truncates toward zero
	case token.MOD:
		if right == 0 {
			o.errorOnce(errors.E5005, e.Right.Pos(), "integer modulo by zero")
			return e
		}
		value = left % right
	case token.AMPERSAND:
		value = left & right
	case token.PIPE:
		value = left | right
	case token.CARET:
		value = left ^ right
	case token.LT_LT:
		value = left << (uint64(right) % uint64(width))
	case token.GT_GT:
		value = left >> (uint64(right) % uint64(width))
	case token.POW:
		v, ok := intPow(left, right)
		if !ok {
			return e
		}
		value = v
	default:
		return e
	}
	if width == 32 {
		value = int64(int32(value))
	}
	return o.newInt(e, value)
}

func (o *Optimizer) foldFloats(e *ast.Infix, left, right float64) ast.Expr {
	var value float64
	switch e.Op {
	case token.PLUS:
		value = left + right
	case token.MINUS:
		value = left - right
	case token.ASTERISK:
		value = left * right
	case token.SLASH:
		value = left / right // IEEE 754: may produce Inf or NaN
	case token.POW:
		value = math.Pow(left, right)
	default:
		return e
	}
	if e.Type() == types.F32 {
		value = float64(float32(value))
	}
	return o.newFloat(e, value)
}

func (o *Optimizer) foldIntCompare(e *ast.Infix, left, right int64) ast.Expr {
	var value bool
	switch e.Op {
	case token.EQ:
		value = left == right
	case token.NOT_EQ:
		value = left != right
	case token.LT:
		value = left < right
	case token.LT_EQUALS:
		value = left <= right
	case token.GT:
		value = left > right
	case token.GT_EQUALS:
		value = left >= right
	default:
		return e
	}
	return o.newBool(e, value)
}

func (o *Optimizer) foldFloatCompare(e *ast.Infix, left, right float64) ast.Expr {
	var value bool
	switch e.Op {
	case token.EQ:
		value = left == right
	case token.NOT_EQ:
		value = left != right
	case token.LT:
		value = left < right
	case token.LT_EQUALS:
		value = left <= right
	case token.GT:
		value = left > right
	case token.GT_EQUALS:
		value = left >= right
	default:
		return e
	}
	return o.newBool(e, value)
}

func (o *Optimizer) foldBools(e *ast.Infix, left, right bool) ast.Expr {
	var value bool
	switch e.Op {
	case token.AND:
		value = left && right
	case token.OR:
		value = left || right
	case token.EQ:
		value = left == right
	case token.NOT_EQ:
		value = left != right
	default:
		return e
	}
	return o.newBool(e, value)
}

// unrollPowers expands x ** k into a chain of multiplies when k is a
// non-negative constant integer no larger than MaxUnrollExponent and the
// base is pure, so duplicating it cannot duplicate a side effect. Constant
// bases are left to the folding pass.
func (o *Optimizer) unrollPowers(program *ast.Program) (*ast.Program, bool) {
	return rewriteProgram(program, transform{exprFn: unrollPower})
}

func unrollPower(expr ast.Expr) ast.Expr {
	e, ok := expr.(*ast.Infix)
	if !ok || e.Op != token.POW {
		return expr
	}
	exp, ok := e.Right.(*ast.Int)
	if !ok || exp.Value < 0 || exp.Value > MaxUnrollExponent {
		return expr
	}
	if !isPure(e.Left) {
		return expr
	}
	if e.Type() == nil {
		return expr
	}

	if exp.Value == 0 {
		if e.Type().IsFloat() {
			one := &ast.Float{ValuePos: e.Pos(), Literal: "1.0", Value: 1}
			one.SetType(e.Type())
			return one
		}
		one := &ast.Int{ValuePos: e.Pos(), Literal: "1", Value: 1}
		one.SetType(e.Type())
		return one
	}

	chain := e.Left
	for i := int64(1); i < exp.Value; i++ {
		mul := &ast.Infix{Left: chain, OpPos: e.OpPos, Op: token.ASTERISK, Right: e.Left}
		mul.SetType(e.Type())
		chain = mul
	}
	return chain
}

// reduceStrength replaces integer multiplication and division by a
// power-of-two constant with a shift. Multiplication commutes, so the
// constant may be on either side; for division only a constant divisor
// qualifies. A factor of two or more is required, so x * 1 is untouched.
func (o *Optimizer) reduceStrength(program *ast.Program) (*ast.Program, bool) {
	return rewriteProgram(program, transform{exprFn: reduceExpr})
}

func reduceExpr(expr ast.Expr) ast.Expr {
	e, ok := expr.(*ast.Infix)
	if !ok || e.Type() == nil || !e.Type().IsInteger() {
		return expr
	}
	width := int64(64)
	if e.Type() == types.I32 {
		width = 32
	}

	switch e.Op {
	case token.ASTERISK:
		if shift, other, ok := powerOfTwoOperand(e.Left, e.Right); ok && shift < width {
			return shiftNode(e, token.LT_LT, other, shift)
		}
	case token.SLASH:
		if lit, ok := e.Right.(*ast.Int); ok {
			if shift, ok := log2(lit.Value); ok && shift > 0 && shift < width {
				return shiftNode(e, token.GT_GT, e.Left, shift)
			}
		}
	}
	return expr
}

// powerOfTwoOperand finds a power-of-two integer literal among the two
// multiply operands. It returns the shift amount and the other operand.
// Shifting by zero gains nothing, so a literal 1 does not qualify.
func powerOfTwoOperand(left, right ast.Expr) (int64, ast.Expr, bool) {
	if lit, ok := right.(*ast.Int); ok {
		if shift, ok := log2(lit.Value); ok && shift > 0 {
			return shift, left, true
		}
	}
	if lit, ok := left.(*ast.Int); ok {
		if shift, ok := log2(lit.Value); ok && shift > 0 {
			return shift, right, true
		}
	}
	return 0, nil, false
}

func shiftNode(e *ast.Infix, op token.Type, operand ast.Expr, shift int64) ast.Expr {
	amount := &ast.Int{ValuePos: e.OpPos, Literal: strconv.FormatInt(shift, 10), Value: shift}
	amount.SetType(e.Type())
	node := &ast.Infix{Left: operand, OpPos: e.OpPos, Op: op, Right: amount}
	node.SetType(e.Type())
	return node
}

// eliminateDeadCode removes statements that can never execute: branches of
// an if with a constant condition, while loops whose condition is false,
// and statements following a return, break, or continue in the same block.
func (o *Optimizer) eliminateDeadCode(program *ast.Program) (*ast.Program, bool) {
	return rewriteProgram(program, transform{stmtFn: eliminateStmt, blockFn: pruneBlock})
}

func eliminateStmt(stmt ast.Stmt) ast.Stmt {
	switch s := stmt.(type) {
	case *ast.If:
		cond, ok := s.Condition.(*ast.Bool)
		if !ok {
			return s
		}
		if cond.Value {
			return s.Then
		}
		if s.Else != nil {
			return s.Else
		}
		return nil
	case *ast.While:
		if cond, ok := s.Condition.(*ast.Bool); ok && !cond.Value {
			return nil
		}
	}
	return stmt
}

func pruneBlock(block *ast.Block) *ast.Block {
	if pruned, ok := pruneAfterTerminator(block.Stmts); ok {
		out := *block
		out.Stmts = pruned
		return &out
	}
	return block
}

// pruneAfterTerminator truncates a statement list after the first return,
// break, or continue. It reports whether anything was removed.
func pruneAfterTerminator(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	for i, stmt := range stmts {
		switch stmt.(type) {
		case *ast.Return, *ast.Break, *ast.Continue:
			if i+1 < len(stmts) {
				return stmts[:i+1], true
			}
			return stmts, false
		}
	}
	return stmts, false
}

// isPure reports whether evaluating the expression twice is indistinguishable
// from evaluating it once. Calls and assignments are impure; everything built
// from literals and variable reads is pure.
func isPure(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Int, *ast.Float, *ast.Bool, *ast.Ident:
		return true
	case *ast.Prefix:
		return isPure(e.Operand)
	case *ast.Infix:
		return isPure(e.Left) && isPure(e.Right)
	}
	return false
}

type literalKind int

const (
	intLit literalKind = iota
	floatLit
	boolLit
)

type literal struct {
	kind literalKind
	i    int64
	f    float64
	b    bool
}

func (l literal) float() float64 {
	if l.kind == intLit {
		return float64(l.i)
	}
	return l.f
}

func literalValue(expr ast.Expr) (literal, bool) {
	switch e := expr.(type) {
	case *ast.Int:
		return literal{kind: intLit, i: e.Value}, true
	case *ast.Float:
		return literal{kind: floatLit, f: e.Value}, true
	case *ast.Bool:
		return literal{kind: boolLit, b: e.Value}, true
	}
	return literal{}, false
}

// intPow computes base**exp for a non-negative exponent. Overflow wraps, the
// same as repeated multiplication would at run time.
func intPow(base, exp int64) (int64, bool) {
	if exp < 0 {
		return 0, false
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result, true
}

// log2 returns the exponent if v is a positive power of two.
func log2(v int64) (int64, bool) {
	if v <= 0 || v&(v-1) != 0 {
		return 0, false
	}
	var n int64
	for v > 1 {
		v >>= 1
		n++
	}
	return n, true
}

func (o *Optimizer) newInt(from ast.Expr, value int64) ast.Expr {
	node := &ast.Int{
		ValuePos: from.Pos(),
		Literal:  strconv.FormatInt(value, 10),
		Value:    value,
	}
	node.SetType(from.Type())
	return node
}

func (o *Optimizer) newFloat(from ast.Expr, value float64) ast.Expr {
	node := &ast.Float{
		ValuePos: from.Pos(),
		Literal:  strconv.FormatFloat(value, 'g', -1, 64),
		Value:    value,
	}
	node.SetType(from.Type())
	return node
}

func (o *Optimizer) newBool(from ast.Expr, value bool) ast.Expr {
	node := &ast.Bool{ValuePos: from.Pos(), Value: value}
	node.SetType(from.Type())
	return node
}

// errorOnce records a diagnostic for a position at most once, since the
// fixed-point loop revisits unfolded nodes on every iteration.
func (o *Optimizer) errorOnce(code errors.ErrorCode, pos token.Position, format string, args ...any) {
	if o.reported[pos] {
		return
	}
	o.reported[pos] = true
	loc := errors.SourceLocation{
		Filename: o.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}
	if pos.File != "" {
		loc.Filename = pos.File
	}
	if pos.Line < len(o.lines) {
		loc.Source = o.lines[pos.Line]
	}
	o.diags = append(o.diags, errors.NewAt(code, loc, format, args...))
}
