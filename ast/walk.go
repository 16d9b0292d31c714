package ast

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Stmts {
			Walk(v, stmt)
		}

	// Statements
	case *Let:
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *Return:
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *Block:
		for _, stmt := range n.Stmts {
			Walk(v, stmt)
		}
	case *If:
		Walk(v, n.Condition)
		Walk(v, n.Then)
		if n.Else != nil {
			Walk(v, n.Else)
		}
	case *While:
		Walk(v, n.Condition)
		Walk(v, n.Body)
	case *For:
		if n.Init != nil {
			Walk(v, n.Init)
		}
		if n.Cond != nil {
			Walk(v, n.Cond)
		}
		if n.Post != nil {
			Walk(v, n.Post)
		}
		Walk(v, n.Body)
	case *ExprStmt:
		Walk(v, n.Expr)
	case *Func:
		Walk(v, n.Body)

	// Expressions
	case *Prefix:
		Walk(v, n.Operand)
	case *Infix:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *Assign:
		Walk(v, n.Name)
		Walk(v, n.Value)
	case *Call:
		Walk(v, n.Fn)
		for _, arg := range n.Args {
			Walk(v, arg)
		}
	}
}

// inspector is a Visitor adapter for a plain callback function.
type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the AST in depth-first order, calling f for each node.
// If f returns false, the children of the node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
