// Package compiler translates a type-checked, optimized AST into a WASM
// module.
//
// Lowering is post-order: operands are emitted before their operator, so the
// generated code runs on the value stack with no temporaries beyond the
// declared locals. Control flow is structured rather than jump-based: if,
// while, and for become WASM block/loop/if frames and break/continue become
// branches to an enclosing frame.
//
// The checker has already rejected ill-typed programs, so type errors found
// here indicate values that have no machine representation: strings stay in
// the host runtime and a power operator surviving the optimizer has a
// non-constant exponent. Both are reported as diagnostics, not panics.
package compiler

import (
	"strings"

	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/mem"
	"github.com/lumalang/luma/op"
	"github.com/lumalang/luma/token"
	"github.com/lumalang/luma/types"
	"github.com/lumalang/luma/wasm"
)

// Option is a configuration function for the compiler.
type Option func(*Compiler)

// WithMaxPages sets the memory limit, in 64 KiB pages, declared in the
// generated module.
func WithMaxPages(pages uint32) Option {
	return func(c *Compiler) {
		if pages > 0 {
			c.maxPages = pages
		}
	}
}

// WithSource provides the original source code, used to attach source line
// context to diagnostics.
func WithSource(source string) Option {
	return func(c *Compiler) {
		c.lines = strings.Split(source, "\n")
	}
}

// WithFilename sets the file name used in diagnostics.
func WithFilename(filename string) Option {
	return func(c *Compiler) {
		c.filename = filename
	}
}

// Compiler generates a wasm.Module from a program.
type Compiler struct {
	maxPages uint32
	lines    []string
	filename string
	diags    []*errors.Diagnostic

	module      *wasm.Module
	funcIndexes map[string]uint32
	funcDecls   map[string]*ast.Func
}

// Compile generates a WASM module for the program. The program must have
// been type-checked first. Every top-level function is exported under its
// own name, and the linear memory is exported as "memory".
func Compile(program *ast.Program, options ...Option) (*wasm.Module, error) {
	c := &Compiler{
		maxPages:    mem.DefaultMaxPages,
		module:      &wasm.Module{},
		funcIndexes: map[string]uint32{},
		funcDecls:   map[string]*ast.Func{},
	}
	for _, opt := range options {
		opt(c)
	}

	funcs := program.Funcs()

	// Declare every function before compiling any body, so calls can refer
	// to functions declared later in the source.
	for _, fn := range funcs {
		sig, ok := c.signature(fn)
		if !ok {
			continue
		}
		index := uint32(len(c.module.Funcs))
		typeIndex := c.module.AddType(sig)
		c.module.Funcs = append(c.module.Funcs, wasm.Function{TypeIndex: typeIndex})
		c.funcIndexes[fn.Name.Name] = index
		c.funcDecls[fn.Name.Name] = fn
	}

	for _, fn := range funcs {
		index, ok := c.funcIndexes[fn.Name.Name]
		if !ok {
			continue
		}
		locals, body := c.compileFunc(fn)
		c.module.Funcs[index].Locals = locals
		c.module.Funcs[index].Body = body
		c.module.Exports = append(c.module.Exports, wasm.Export{
			Name:  fn.Name.Name,
			Kind:  wasm.KindFunc,
			Index: index,
		})
	}

	c.module.Memory = &wasm.Memory{Min: 1, Max: c.maxPages, HasMax: true}
	c.module.Exports = append(c.module.Exports, wasm.Export{
		Name: "memory",
		Kind: wasm.KindMemory,
	})

	if err := errors.Combine(c.diags); err != nil {
		return nil, err
	}
	return c.module, nil
}

// signature maps a function's checked type to a WASM signature.
func (c *Compiler) signature(fn *ast.Func) (wasm.FuncType, bool) {
	var sig wasm.FuncType
	for i, param := range fn.Sig.Params {
		vt, ok := c.valType(param, fn.Params[i].Name.Pos())
		if !ok {
			return sig, false
		}
		sig.Params = append(sig.Params, vt)
	}
	if fn.Sig.Result != nil {
		vt, ok := c.valType(fn.Sig.Result, fn.ReturnPos)
		if !ok {
			return sig, false
		}
		sig.Results = []wasm.ValType{vt}
	}
	return sig, true
}

// valType maps a source type to its machine representation. Booleans lower
// as i32. Strings have no representation in compiled code.
func (c *Compiler) valType(t *types.Type, pos token.Position) (wasm.ValType, bool) {
	switch t {
	case types.I32, types.Bool:
		return wasm.I32, true
	case types.I64:
		return wasm.I64, true
	case types.F32:
		return wasm.F32, true
	case types.F64:
		return wasm.F64, true
	case types.String:
		c.errorAt(errors.E4002, pos, "string values cannot appear in compiled code")
		return 0, false
	}
	c.errorAt(errors.E4002, pos, "type %s is not representable in compiled code", t)
	return 0, false
}

// loopFrame records the branch targets of one enclosing loop.
type loopFrame struct {
	breakLevel    int
	continueLevel int
}

// funcCompiler holds the state for one function body.
type funcCompiler struct {
	c       *Compiler
	fn      *ast.Func
	emit    *emitter
	symbols *symbolTable
	locals  []wasm.ValType
	loops   []loopFrame
}

func (c *Compiler) compileFunc(fn *ast.Func) ([]wasm.ValType, []byte) {
	fc := &funcCompiler{
		c:       c,
		fn:      fn,
		emit:    &emitter{},
		symbols: newSymbolTable(),
	}
	for i, param := range fn.Params {
		fc.symbols.define(param.Name.Name, fn.Sig.Params[i])
	}
	for _, stmt := range fn.Body.Stmts {
		fc.compileStmt(stmt)
	}
	return fc.locals, fc.emit.buf
}

func (fc *funcCompiler) compileStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Let:
		fc.compileLet(s)
	case *ast.Return:
		fc.compileReturn(s)
	case *ast.Block:
		fc.symbols.push()
		for _, inner := range s.Stmts {
			fc.compileStmt(inner)
		}
		fc.symbols.pop()
	case *ast.If:
		fc.compileIf(s)
	case *ast.While:
		fc.compileWhile(s)
	case *ast.For:
		fc.compileFor(s)
	case *ast.Break:
		if len(fc.loops) == 0 {
			fc.c.errorAt(errors.E4002, s.Pos(), "break outside of a loop")
			return
		}
		fc.emit.br(fc.loops[len(fc.loops)-1].breakLevel)
	case *ast.Continue:
		if len(fc.loops) == 0 {
			fc.c.errorAt(errors.E4002, s.Pos(), "continue outside of a loop")
			return
		}
		fc.emit.br(fc.loops[len(fc.loops)-1].continueLevel)
	case *ast.ExprStmt:
		fc.compileExprStmt(s.Expr)
	case *ast.Func:
		fc.c.errorAt(errors.E4002, s.Pos(), "nested function declarations are not supported")
	case *ast.BadStmt:
		fc.c.errorAt(errors.E4002, s.Pos(), "cannot generate code for invalid syntax")
	}
}

// defineLocal allocates a slot for a variable and records its machine type
// in the function's local declarations.
func (fc *funcCompiler) defineLocal(name string, typ *types.Type, pos token.Position) (*local, bool) {
	vt, ok := fc.c.valType(typ, pos)
	if !ok {
		return nil, false
	}
	fc.locals = append(fc.locals, vt)
	return fc.symbols.define(name, typ), true
}

func (fc *funcCompiler) compileLet(s *ast.Let) {
	varType := s.Value.Type()
	if s.TypeName != "" {
		if declared, ok := types.Lookup(s.TypeName); ok {
			varType = declared
		}
	}
	fc.compileExprAs(s.Value, varType)
	sym, ok := fc.defineLocal(s.Name.Name, varType, s.Name.Pos())
	if !ok {
		return
	}
	fc.emit.opIndex(op.LocalSet, sym.Slot)
}

func (fc *funcCompiler) compileReturn(s *ast.Return) {
	if s.Value != nil {
		fc.compileExprAs(s.Value, fc.fn.Sig.Result)
	}
	fc.emit.op(op.Return)
}

func (fc *funcCompiler) compileIf(s *ast.If) {
	fc.compileExpr(s.Condition)
	fc.emit.openBlock(op.If, wasm.BlockVoid)
	fc.compileStmt(s.Then)
	if s.Else != nil {
		fc.emit.elseBranch()
		fc.compileStmt(s.Else)
	}
	fc.emit.closeBlock()
}

// compileWhile lowers "while (cond) body" to:
//
//	block
//	  loop
//	    cond  i32.eqz  br_if 1
//	    body
//	    br 0
//	  end
//	end
func (fc *funcCompiler) compileWhile(s *ast.While) {
	breakLevel := fc.emit.openBlock(op.Block, wasm.BlockVoid)
	loopLevel := fc.emit.openBlock(op.Loop, wasm.BlockVoid)

	fc.compileExpr(s.Condition)
	fc.emit.op(op.I32Eqz)
	fc.emit.brIf(breakLevel)

	fc.loops = append(fc.loops, loopFrame{breakLevel: breakLevel, continueLevel: loopLevel})
	fc.compileStmt(s.Body)
	fc.loops = fc.loops[:len(fc.loops)-1]

	fc.emit.br(loopLevel)
	fc.emit.closeBlock()
	fc.emit.closeBlock()
}

// compileFor lowers "for (init; cond; post) body". The body sits inside an
// extra block so that continue branches past the remaining body but still
// runs the post expression:
//
//	init
//	block
//	  loop
//	    cond  i32.eqz  br_if 1
//	    block
//	      body        ; continue -> br 0
//	    end
//	    post
//	    br 0
//	  end
//	end
func (fc *funcCompiler) compileFor(s *ast.For) {
	fc.symbols.push() // the init declaration scopes to the loop
	if s.Init != nil {
		fc.compileStmt(s.Init)
	}

	breakLevel := fc.emit.openBlock(op.Block, wasm.BlockVoid)
	loopLevel := fc.emit.openBlock(op.Loop, wasm.BlockVoid)
	if s.Cond != nil {
		fc.compileExpr(s.Cond)
		fc.emit.op(op.I32Eqz)
		fc.emit.brIf(breakLevel)
	}

	continueLevel := fc.emit.openBlock(op.Block, wasm.BlockVoid)
	fc.loops = append(fc.loops, loopFrame{breakLevel: breakLevel, continueLevel: continueLevel})
	fc.compileStmt(s.Body)
	fc.loops = fc.loops[:len(fc.loops)-1]
	fc.emit.closeBlock()

	if s.Post != nil {
		fc.compileExprStmt(s.Post)
	}
	fc.emit.br(loopLevel)
	fc.emit.closeBlock()
	fc.emit.closeBlock()
	fc.symbols.pop()
}

// compileExprStmt compiles an expression in statement position: assignments
// store without leaving a value, and any other produced value is dropped.
func (fc *funcCompiler) compileExprStmt(expr ast.Expr) {
	if assign, ok := expr.(*ast.Assign); ok {
		fc.compileAssign(assign, false)
		return
	}
	t := fc.compileExpr(expr)
	if t != nil && t != types.Null {
		fc.emit.op(op.Drop)
	}
}

// compileExpr emits code leaving the expression's value on the stack and
// returns its type. A nil result means a diagnostic was recorded and no
// value was produced.
func (fc *funcCompiler) compileExpr(expr ast.Expr) *types.Type {
	switch e := expr.(type) {
	case *ast.Int:
		return fc.compileInt(e)
	case *ast.Float:
		if e.Type() == types.F32 {
			fc.emit.f32Const(float32(e.Value))
			return types.F32
		}
		fc.emit.f64Const(e.Value)
		return types.F64
	case *ast.Bool:
		if e.Value {
			fc.emit.i32Const(1)
		} else {
			fc.emit.i32Const(0)
		}
		return types.Bool
	case *ast.String:
		fc.c.errorAt(errors.E4002, e.Pos(), "string values cannot appear in compiled code")
		return nil
	case *ast.Null:
		fc.c.errorAt(errors.E4002, e.Pos(), "null has no machine representation")
		return nil
	case *ast.Ident:
		sym, ok := fc.symbols.resolve(e.Name)
		if !ok {
			fc.c.errorAt(errors.E4001, e.Pos(), "undefined variable %q", e.Name)
			return nil
		}
		fc.emit.opIndex(op.LocalGet, sym.Slot)
		return sym.Type
	case *ast.Prefix:
		return fc.compilePrefix(e)
	case *ast.Infix:
		return fc.compileInfix(e)
	case *ast.Assign:
		return fc.compileAssign(e, true)
	case *ast.Call:
		return fc.compileCall(e)
	case *ast.BadExpr:
		fc.c.errorAt(errors.E4002, e.Pos(), "cannot generate code for invalid syntax")
		return nil
	}
	fc.c.errorAt(errors.E4002, expr.Pos(), "unsupported expression")
	return nil
}

// compileInt emits an integer literal in the width the checker assigned.
// A literal that widened into a float context is emitted as a float
// constant directly rather than converted at run time.
func (fc *funcCompiler) compileInt(e *ast.Int) *types.Type {
	switch e.Type() {
	case types.I64:
		fc.emit.i64Const(e.Value)
		return types.I64
	case types.F32:
		fc.emit.f32Const(float32(e.Value))
		return types.F32
	case types.F64:
		fc.emit.f64Const(float64(e.Value))
		return types.F64
	}
	fc.emit.i32Const(int32(e.Value))
	return types.I32
}

// compileExprAs compiles the expression and widens the result to the wanted
// type if it differs.
func (fc *funcCompiler) compileExprAs(expr ast.Expr, want *types.Type) {
	actual := fc.compileExpr(expr)
	if actual == nil || want == nil {
		return
	}
	fc.convert(actual, want, expr.Pos())
}

// convert emits the widening instruction from one numeric type to another.
// Anything other than a widening step is a bug upstream and is reported as
// a conversion error.
func (fc *funcCompiler) convert(from, to *types.Type, pos token.Position) {
	if from == to {
		return
	}
	// Booleans are already i32 on the machine level.
	if from == types.Bool && to == types.I32 {
		return
	}
	switch {
	case from == types.I32 && to == types.I64:
		fc.emit.op(op.I64ExtendI32S)
	case from == types.I32 && to == types.F32:
		fc.emit.op(op.F32ConvertI32S)
	case from == types.I32 && to == types.F64:
		fc.emit.op(op.F64ConvertI32S)
	case from == types.I64 && to == types.F32:
		fc.emit.op(op.F32ConvertI64S)
	case from == types.I64 && to == types.F64:
		fc.emit.op(op.F64ConvertI64S)
	case from == types.F32 && to == types.F64:
		fc.emit.op(op.F64PromoteF32)
	default:
		fc.c.errorAt(errors.E4003, pos, "cannot convert %s to %s", from, to)
	}
}

func (fc *funcCompiler) compilePrefix(e *ast.Prefix) *types.Type {
	t := e.Type()
	switch e.Op {
	case token.MINUS:
		if t.IsFloat() {
			fc.compileExpr(e.Operand)
			if t == types.F32 {
				fc.emit.op(op.F32Neg)
			} else {
				fc.emit.op(op.F64Neg)
			}
			return t
		}
		// Integers negate as 0 - x.
		if t == types.I64 {
			fc.emit.i64Const(0)
			fc.compileExpr(e.Operand)
			fc.emit.op(op.I64Sub)
		} else {
			fc.emit.i32Const(0)
			fc.compileExpr(e.Operand)
			fc.emit.op(op.I32Sub)
		}
		return t
	case token.BANG:
		fc.compileExpr(e.Operand)
		fc.emit.op(op.I32Eqz)
		return types.Bool
	case token.TILDE:
		fc.compileExpr(e.Operand)
		if t == types.I64 {
			fc.emit.i64Const(-1)
			fc.emit.op(op.I64Xor)
		} else {
			fc.emit.i32Const(-1)
			fc.emit.op(op.I32Xor)
		}
		return t
	}
	fc.c.errorAt(errors.E4002, e.Pos(), "unsupported operator %s", e.Op)
	return nil
}

func (fc *funcCompiler) compileInfix(e *ast.Infix) *types.Type {
	switch e.Op {
	case token.AND, token.OR:
		return fc.compileShortCircuit(e)
	case token.POW:
		fc.c.errorAt(errors.E4002, e.OpPos, "power operator requires a constant integer exponent")
		return nil
	case token.EQ, token.NOT_EQ, token.LT, token.LT_EQUALS, token.GT, token.GT_EQUALS:
		return fc.compileComparison(e)
	}

	t := e.Type()
	fc.compileExprAs(e.Left, t)
	fc.compileExprAs(e.Right, t)
	code, ok := arithOpcode(t, e.Op)
	if !ok {
		fc.c.errorAt(errors.E4002, e.OpPos, "operator %s is not supported for %s", e.Op, t)
		return nil
	}
	fc.emit.op(code)
	return t
}

// compileShortCircuit lowers && and || to an if block producing an i32, so
// the right operand only evaluates when it can still affect the result.
func (fc *funcCompiler) compileShortCircuit(e *ast.Infix) *types.Type {
	fc.compileExpr(e.Left)
	fc.emit.openBlock(op.If, byte(wasm.I32))
	if e.Op == token.AND {
		fc.compileExpr(e.Right)
		fc.emit.elseBranch()
		fc.emit.i32Const(0)
	} else {
		fc.emit.i32Const(1)
		fc.emit.elseBranch()
		fc.compileExpr(e.Right)
	}
	fc.emit.closeBlock()
	return types.Bool
}

// compileComparison widens both operands to their common type and compares
// in that type; the node's own type is bool.
func (fc *funcCompiler) compileComparison(e *ast.Infix) *types.Type {
	operandType := e.Left.Type()
	if wider, ok := types.Widen(e.Left.Type(), e.Right.Type()); ok {
		operandType = wider
	}
	if operandType == types.Bool {
		operandType = types.I32 // booleans compare as i32
	}
	fc.compileExprAs(e.Left, operandType)
	fc.compileExprAs(e.Right, operandType)
	code, ok := compareOpcode(operandType, e.Op)
	if !ok {
		fc.c.errorAt(errors.E4002, e.OpPos, "operator %s is not supported for %s", e.Op, operandType)
		return nil
	}
	fc.emit.op(code)
	return types.Bool
}

// compileAssign stores into a local. With wantValue the stored value also
// remains on the stack (local.tee), which makes chained assignment work.
func (fc *funcCompiler) compileAssign(e *ast.Assign, wantValue bool) *types.Type {
	sym, ok := fc.symbols.resolve(e.Name.Name)
	if !ok {
		fc.c.errorAt(errors.E4001, e.Name.Pos(), "undefined variable %q", e.Name.Name)
		return nil
	}

	if binOp, isCompound := token.BinaryOp(e.Op); isCompound {
		fc.emit.opIndex(op.LocalGet, sym.Slot)
		fc.compileExprAs(e.Value, sym.Type)
		code, opOk := arithOpcode(sym.Type, binOp)
		if !opOk {
			fc.c.errorAt(errors.E4002, e.OpPos, "operator %s is not supported for %s", binOp, sym.Type)
			return nil
		}
		fc.emit.op(code)
	} else {
		fc.compileExprAs(e.Value, sym.Type)
	}

	if wantValue {
		fc.emit.opIndex(op.LocalTee, sym.Slot)
	} else {
		fc.emit.opIndex(op.LocalSet, sym.Slot)
	}
	return sym.Type
}

func (fc *funcCompiler) compileCall(e *ast.Call) *types.Type {
	index, ok := fc.c.funcIndexes[e.Fn.Name]
	if !ok {
		fc.c.errorAt(errors.E4001, e.Fn.Pos(), "undefined function %q", e.Fn.Name)
		return nil
	}
	decl := fc.c.funcDecls[e.Fn.Name]
	if len(e.Args) != len(decl.Sig.Params) {
		fc.c.errorAt(errors.E4002, e.Pos(), "wrong number of arguments for %q", e.Fn.Name)
		return nil
	}
	for i, arg := range e.Args {
		fc.compileExprAs(arg, decl.Sig.Params[i])
	}
	fc.emit.opIndex(op.Call, index)
	return decl.Sig.Result
}

func arithOpcode(t *types.Type, tok token.Type) (op.Code, bool) {
	type key struct {
		t   *types.Type
		tok token.Type
	}
	table := map[key]op.Code{
		{types.I32, token.PLUS}:      op.I32Add,
		{types.I32, token.MINUS}:     op.I32Sub,
		{types.I32, token.ASTERISK}:  op.I32Mul,
		{types.I32, token.SLASH}:     op.I32DivS,
		{types.I32, token.MOD}:       op.I32RemS,
		{types.I32, token.AMPERSAND}: op.I32And,
		{types.I32, token.PIPE}:      op.I32Or,
		{types.I32, token.CARET}:     op.I32Xor,
		{types.I32, token.LT_LT}:     op.I32Shl,
		{types.I32, token.GT_GT}:     op.I32ShrS,
		{types.I64, token.PLUS}:      op.I64Add,
		{types.I64, token.MINUS}:     op.I64Sub,
		{types.I64, token.ASTERISK}:  op.I64Mul,
		{types.I64, token.SLASH}:     op.I64DivS,
		{types.I64, token.MOD}:       op.I64RemS,
		{types.I64, token.AMPERSAND}: op.I64And,
		{types.I64, token.PIPE}:      op.I64Or,
		{types.I64, token.CARET}:     op.I64Xor,
		{types.I64, token.LT_LT}:     op.I64Shl,
		{types.I64, token.GT_GT}:     op.I64ShrS,
		{types.F32, token.PLUS}:      op.F32Add,
		{types.F32, token.MINUS}:     op.F32Sub,
		{types.F32, token.ASTERISK}:  op.F32Mul,
		{types.F32, token.SLASH}:     op.F32Div,
		{types.F64, token.PLUS}:      op.F64Add,
		{types.F64, token.MINUS}:     op.F64Sub,
		{types.F64, token.ASTERISK}:  op.F64Mul,
		{types.F64, token.SLASH}:     op.F64Div,
	}
	code, ok := table[key{t, tok}]
	return code, ok
}

func compareOpcode(t *types.Type, tok token.Type) (op.Code, bool) {
	type key struct {
		t   *types.Type
		tok token.Type
	}
	table := map[key]op.Code{
		{types.I32, token.EQ}:        op.I32Eq,
		{types.I32, token.NOT_EQ}:    op.I32Ne,
		{types.I32, token.LT}:        op.I32LtS,
		{types.I32, token.LT_EQUALS}: op.I32LeS,
		{types.I32, token.GT}:        op.I32GtS,
		{types.I32, token.GT_EQUALS}: op.I32GeS,
		{types.I64, token.EQ}:        op.I64Eq,
		{types.I64, token.NOT_EQ}:    op.I64Ne,
		{types.I64, token.LT}:        op.I64LtS,
		{types.I64, token.LT_EQUALS}: op.I64LeS,
		{types.I64, token.GT}:        op.I64GtS,
		{types.I64, token.GT_EQUALS}: op.I64GeS,
		{types.F32, token.EQ}:        op.F32Eq,
		{types.F32, token.NOT_EQ}:    op.F32Ne,
		{types.F32, token.LT}:        op.F32Lt,
		{types.F32, token.LT_EQUALS}: op.F32Le,
		{types.F32, token.GT}:        op.F32Gt,
		{types.F32, token.GT_EQUALS}: op.F32Ge,
		{types.F64, token.EQ}:        op.F64Eq,
		{types.F64, token.NOT_EQ}:    op.F64Ne,
		{types.F64, token.LT}:        op.F64Lt,
		{types.F64, token.LT_EQUALS}: op.F64Le,
		{types.F64, token.GT}:        op.F64Gt,
		{types.F64, token.GT_EQUALS}: op.F64Ge,
	}
	code, ok := table[key{t, tok}]
	return code, ok
}

func (c *Compiler) errorAt(code errors.ErrorCode, pos token.Position, format string, args ...any) {
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
