package optimizer

import (
	"github.com/lumalang/luma/ast"
)

// transform is a bottom-up rewrite applied by a pass. Each hook receives a
// node whose children have already been rewritten; returning a different
// node replaces it. stmtFn may return a nil statement to delete the
// statement entirely. blockFn runs on every block, including function and
// loop bodies that stmtFn never sees as bare statements.
type transform struct {
	exprFn  func(ast.Expr) ast.Expr
	stmtFn  func(ast.Stmt) ast.Stmt
	blockFn func(*ast.Block) *ast.Block
}

// rewriteProgram rebuilds a program by applying the transform to every node.
// Unchanged subtrees are reused; nothing is mutated in place.
func rewriteProgram(p *ast.Program, t transform) (*ast.Program, bool) {
	stmts, changed := rewriteStmts(p.Stmts, t)
	if !changed {
		return p, false
	}
	return &ast.Program{Stmts: stmts}, true
}

func rewriteStmts(stmts []ast.Stmt, t transform) ([]ast.Stmt, bool) {
	out := make([]ast.Stmt, 0, len(stmts))
	changed := false
	for _, stmt := range stmts {
		rewritten, ch := rewriteStmt(stmt, t)
		changed = changed || ch
		if rewritten != nil {
			out = append(out, rewritten)
		} else {
			changed = true
		}
	}
	return out, changed
}

func rewriteStmt(stmt ast.Stmt, t transform) (ast.Stmt, bool) {
	var result ast.Stmt
	changed := false

	switch s := stmt.(type) {
	case *ast.Func:
		body, ch := rewriteBlock(s.Body, t)
		if ch {
			fn := *s
			fn.Body = body
			result, changed = &fn, true
		} else {
			result = s
		}
	case *ast.Let:
		value, ch := rewriteExpr(s.Value, t)
		if ch {
			let := *s
			let.Value = value
			result, changed = &let, true
		} else {
			result = s
		}
	case *ast.Return:
		if s.Value == nil {
			result = s
			break
		}
		value, ch := rewriteExpr(s.Value, t)
		if ch {
			ret := *s
			ret.Value = value
			result, changed = &ret, true
		} else {
			result = s
		}
	case *ast.Block:
		block, ch := rewriteBlock(s, t)
		result, changed = block, ch
	case *ast.If:
		cond, ch1 := rewriteExpr(s.Condition, t)
		then, ch2 := rewriteBlock(s.Then, t)
		var alt ast.Stmt
		var ch3 bool
		if s.Else != nil {
			alt, ch3 = rewriteStmt(s.Else, t)
		}
		if ch1 || ch2 || ch3 {
			ifStmt := *s
			ifStmt.Condition = cond
			ifStmt.Then = then
			ifStmt.Else = alt
			result, changed = &ifStmt, true
		} else {
			result = s
		}
	case *ast.While:
		cond, ch1 := rewriteExpr(s.Condition, t)
		body, ch2 := rewriteBlock(s.Body, t)
		if ch1 || ch2 {
			loop := *s
			loop.Condition = cond
			loop.Body = body
			result, changed = &loop, true
		} else {
			result = s
		}
	case *ast.For:
		var init ast.Stmt
		var ch1 bool
		if s.Init != nil {
			init, ch1 = rewriteStmt(s.Init, t)
		}
		var cond, post ast.Expr
		var ch2, ch3 bool
		if s.Cond != nil {
			cond, ch2 = rewriteExpr(s.Cond, t)
		}
		if s.Post != nil {
			post, ch3 = rewriteExpr(s.Post, t)
		}
		body, ch4 := rewriteBlock(s.Body, t)
		if ch1 || ch2 || ch3 || ch4 {
			loop := *s
			loop.Init = init
			loop.Cond = cond
			loop.Post = post
			loop.Body = body
			result, changed = &loop, true
		} else {
			result = s
		}
	case *ast.ExprStmt:
		expr, ch := rewriteExpr(s.Expr, t)
		if ch {
			result, changed = &ast.ExprStmt{Expr: expr}, true
		} else {
			result = s
		}
	default:
		result = stmt
	}

	if result != nil && t.stmtFn != nil {
		replaced := t.stmtFn(result)
		if replaced != result {
			return replaced, true
		}
	}
	return result, changed
}

func rewriteBlock(block *ast.Block, t transform) (*ast.Block, bool) {
	stmts, changed := rewriteStmts(block.Stmts, t)
	result := block
	if changed {
		out := *block
		out.Stmts = stmts
		result = &out
	}
	if t.blockFn != nil {
		if replaced := t.blockFn(result); replaced != result {
			return replaced, true
		}
	}
	return result, changed
}

func rewriteExpr(expr ast.Expr, t transform) (ast.Expr, bool) {
	var result ast.Expr
	changed := false

	switch e := expr.(type) {
	case *ast.Prefix:
		operand, ch := rewriteExpr(e.Operand, t)
		if ch {
			prefix := *e
			prefix.Operand = operand
			result, changed = &prefix, true
		} else {
			result = e
		}
	case *ast.Infix:
		left, ch1 := rewriteExpr(e.Left, t)
		right, ch2 := rewriteExpr(e.Right, t)
		if ch1 || ch2 {
			infix := *e
			infix.Left = left
			infix.Right = right
			result, changed = &infix, true
		} else {
			result = e
		}
	case *ast.Assign:
		value, ch := rewriteExpr(e.Value, t)
		if ch {
			assign := *e
			assign.Value = value
			result, changed = &assign, true
		} else {
			result = e
		}
	case *ast.Call:
		args := make([]ast.Expr, len(e.Args))
		ch := false
		for i, arg := range e.Args {
			rewritten, argCh := rewriteExpr(arg, t)
			args[i] = rewritten
			ch = ch || argCh
		}
		if ch {
			call := *e
			call.Args = args
			result, changed = &call, true
		} else {
			result = e
		}
	default:
		result = expr
	}

	if t.exprFn != nil {
		replaced := t.exprFn(result)
		if replaced != result {
			return replaced, true
		}
	}
	return result, changed
}
