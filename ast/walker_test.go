package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robfig/jsdeobfuscate/ast"
)

func TestWalkDocumentOrder(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "a"}},
		&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "b"}},
	}}

	var seen []string
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			seen = append(seen, id.Name)
		}
		return true
	})

	if diff := cmp.Diff([]string{"a", "b"}, seen); diff != "" {
		t.Errorf("document order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkRefreshesParent(t *testing.T) {
	inner := &ast.Identifier{Name: "x"}
	stmt := &ast.ExpressionStatement{Expression: inner}
	prog := &ast.Program{Body: []ast.Node{stmt}}

	ast.Walk(prog, func(ast.Node) bool { return true })

	if inner.Parent != stmt {
		t.Errorf("expected inner.Parent == stmt, got %#v", inner.Parent)
	}
	if stmt.Parent != prog {
		t.Errorf("expected stmt.Parent == prog, got %#v", stmt.Parent)
	}
}

func TestRewriteDeleteFromList(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "keep"}},
		&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "drop"}},
	}}

	out := ast.Rewrite(prog, func(n ast.Node) interface{} {
		if es, ok := n.(*ast.ExpressionStatement); ok {
			if id, ok := es.Expression.(*ast.Identifier); ok && id.Name == "drop" {
				return nil
			}
		}
		return n
	}).(*ast.Program)

	if len(out.Body) != 1 {
		t.Fatalf("expected 1 statement after deletion, got %d", len(out.Body))
	}
	es := out.Body[0].(*ast.ExpressionStatement)
	if es.Expression.(*ast.Identifier).Name != "keep" {
		t.Errorf("wrong statement survived deletion")
	}
}

func TestRewriteSpliceList(t *testing.T) {
	prog := &ast.Program{Body: []ast.Node{
		&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "splice-me"}},
	}}

	out := ast.Rewrite(prog, func(n ast.Node) interface{} {
		if es, ok := n.(*ast.ExpressionStatement); ok {
			if id, ok := es.Expression.(*ast.Identifier); ok && id.Name == "splice-me" {
				return []ast.Node{
					&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "one"}},
					&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "two"}},
				}
			}
		}
		return n
	}).(*ast.Program)

	if len(out.Body) != 2 {
		t.Fatalf("expected 2 statements after splice, got %d", len(out.Body))
	}
}

func TestRewriteBottomUp(t *testing.T) {
	// (1+2) nested inside a unary should see the inner BinaryExpression
	// already folded by the time the outer handler runs.
	expr := &ast.UnaryExpression{
		Operator: "-",
		Argument: &ast.BinaryExpression{
			Operator: "+",
			Left:     &ast.Literal{Value: int64(1)},
			Right:    &ast.Literal{Value: int64(2)},
		},
	}

	var sawFoldedChild bool
	out := ast.Rewrite(expr, func(n ast.Node) interface{} {
		switch v := n.(type) {
		case *ast.BinaryExpression:
			return &ast.Literal{Value: int64(3)}
		case *ast.UnaryExpression:
			if lit, ok := v.Argument.(*ast.Literal); ok && lit.Value == int64(3) {
				sawFoldedChild = true
			}
		}
		return n
	})

	if !sawFoldedChild {
		t.Error("expected the UnaryExpression handler to observe its already-folded child")
	}
	if out == nil {
		t.Error("expected a non-nil result")
	}
}
