// Package census implements component F: a usage counter that builds an
// identifier-reference histogram, excluding declaration sites (a
// declarator's or function's id slot, a parameter at its declaration
// position) and excluding a MemberExpression's non-computed property
// name, which is a field label rather than a variable reference.
//
// The traversal is hand-written rather than routed through ast.Walk's
// generic recursion, in the same style as rename's renamer.go, because
// several node kinds need asymmetric treatment of their children (count
// this child, skip that one) that a single default-recurse policy can't
// express.
package census

import "github.com/robfig/jsdeobfuscate/ast"

// Count walks prog once and returns a multiset of Identifier names seen
// at referential use sites, keyed by the name as it appears in the tree
// (callers run this after renaming so counts are keyed by the renamed
// name, per spec.md §9's guidance on pass ordering).
func Count(prog *ast.Program) map[string]int {
	c := &counter{counts: map[string]int{}}
	for _, s := range prog.Body {
		c.stmt(s)
	}
	return c.counts
}

type counter struct {
	counts map[string]int
}

func (c *counter) stmt(node ast.Node) {
	switch n := node.(type) {
	case nil:
	case *ast.VariableDeclaration:
		for _, d := range n.Declarations {
			if d.Init != nil {
				c.expr(d.Init)
			}
			// d.Id is a declaration site, never counted.
		}
	case *ast.FunctionDeclaration:
		// n.Id and n.Params are declaration sites, never counted.
		for _, s := range n.Body.Body {
			c.stmt(s)
		}
	case *ast.BlockStatement:
		for _, s := range n.Body {
			c.stmt(s)
		}
	case *ast.ExpressionStatement:
		c.expr(n.Expression)
	case *ast.IfStatement:
		c.expr(n.Test)
		c.stmt(n.Consequent)
		c.stmt(n.Alternate)
	case *ast.ReturnStatement:
		c.expr(n.Argument)
	case *ast.ForStatement:
		c.stmt(n.Init)
		c.expr(n.Test)
		c.expr(n.Update)
		c.stmt(n.Body)
	case *ast.WhileStatement:
		c.expr(n.Test)
		c.stmt(n.Body)
	case *ast.ThrowStatement:
		c.expr(n.Argument)
	case *ast.TryStatement:
		c.stmt(n.Block)
		if n.Handler != nil {
			// Handler.Param is a declaration site, never counted.
			c.stmt(n.Handler.Body)
		}
		if n.Finalizer != nil {
			c.stmt(n.Finalizer)
		}
	case *ast.SwitchStatement:
		c.expr(n.Discriminant)
		for _, cs := range n.Cases {
			c.expr(cs.Test)
			for _, s := range cs.Consequent {
				c.stmt(s)
			}
		}
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.EmptyStatement:
	default:
		c.expr(node)
	}
}

func (c *counter) expr(node ast.Node) {
	switch n := node.(type) {
	case nil:
	case *ast.Identifier:
		c.counts[n.Name]++
	case *ast.Literal:
	case *ast.BinaryExpression:
		c.expr(n.Left)
		c.expr(n.Right)
	case *ast.UnaryExpression:
		c.expr(n.Argument)
	case *ast.UpdateExpression:
		c.expr(n.Argument)
	case *ast.ConditionalExpression:
		c.expr(n.Test)
		c.expr(n.Consequent)
		c.expr(n.Alternate)
	case *ast.AssignmentExpression:
		c.expr(n.Left)
		c.expr(n.Right)
	case *ast.SequenceExpression:
		for _, e := range n.Expressions {
			c.expr(e)
		}
	case *ast.CallExpression:
		c.expr(n.Callee)
		for _, a := range n.Arguments {
			c.expr(a)
		}
	case *ast.NewExpression:
		c.expr(n.Callee)
		for _, a := range n.Arguments {
			c.expr(a)
		}
	case *ast.MemberExpression:
		c.expr(n.Object)
		if n.Computed {
			c.expr(n.Property)
		}
		// Non-computed property is a field label, not a reference.
	case *ast.ArrayExpression:
		for _, e := range n.Elements {
			c.expr(e)
		}
	case *ast.ObjectExpression:
		for _, p := range n.Properties {
			if p.Computed {
				c.expr(p.Key)
			}
			c.expr(p.Value)
		}
	case *ast.FunctionExpression:
		// n.Id and n.Params are declaration sites, never counted.
		for _, s := range n.Body.Body {
			c.stmt(s)
		}
	default:
	}
}
