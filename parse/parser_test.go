package parse_test

import (
	"errors"
	"testing"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/errortypes"
	"github.com/robfig/jsdeobfuscate/parse"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog
}

func TestParseVariableDeclaration(t *testing.T) {
	prog := mustParse(t, `var a=["Hello","World"];`)
	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected *ast.VariableDeclaration, got %T", prog.Body[0])
	}
	if decl.Kind != "var" || len(decl.Declarations) != 1 {
		t.Fatalf("unexpected declaration shape: %+v", decl)
	}
	arr, ok := decl.Declarations[0].Init.(*ast.ArrayExpression)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("expected a 2-element array initializer, got %#v", decl.Declarations[0].Init)
	}
	lit := arr.Elements[0].(*ast.Literal)
	if lit.Value != "Hello" {
		t.Errorf("expected Hello, got %v", lit.Value)
	}
}

func TestParseFunctionAndCall(t *testing.T) {
	prog := mustParse(t, `function f(i){return a[i];}console.log(f(0)+" "+f(1));`)
	if len(prog.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Body))
	}
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok || fn.Id.Name != "f" || len(fn.Params) != 1 {
		t.Fatalf("unexpected function shape: %#v", prog.Body[0])
	}
	retStmt := fn.Body.Body[0].(*ast.ReturnStatement)
	member := retStmt.Argument.(*ast.MemberExpression)
	if !member.Computed {
		t.Error("expected computed member access a[i]")
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog := mustParse(t, `var s=1+2*3;`)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	bin := decl.Declarations[0].Init.(*ast.BinaryExpression)
	if bin.Operator != "+" {
		t.Fatalf("expected top-level '+', got %q", bin.Operator)
	}
	right := bin.Right.(*ast.BinaryExpression)
	if right.Operator != "*" {
		t.Fatalf("expected nested '*', got %q", right.Operator)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := mustParse(t, `if(true){x=1;}else{x=2;}`)
	ifStmt := prog.Body[0].(*ast.IfStatement)
	if ifStmt.Alternate == nil {
		t.Fatal("expected an else branch")
	}
	test := ifStmt.Test.(*ast.Literal)
	if test.Value != true {
		t.Errorf("expected literal true test, got %v", test.Value)
	}
}

func TestParseTypeofAndString(t *testing.T) {
	prog := mustParse(t, `typeof "x" === "string";`)
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	bin := stmt.Expression.(*ast.BinaryExpression)
	if bin.Operator != "===" {
		t.Fatalf("expected ===, got %q", bin.Operator)
	}
	un := bin.Left.(*ast.UnaryExpression)
	if un.Operator != "typeof" {
		t.Fatalf("expected typeof, got %q", un.Operator)
	}
}

func TestParseMemberComputedStringConcat(t *testing.T) {
	prog := mustParse(t, `obj["a"+"b"];`)
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	member := stmt.Expression.(*ast.MemberExpression)
	if !member.Computed {
		t.Fatal("expected computed member access")
	}
	bin := member.Property.(*ast.BinaryExpression)
	if bin.Operator != "+" {
		t.Fatalf("expected '+' inside computed property, got %q", bin.Operator)
	}
}

func TestParseForWhileTry(t *testing.T) {
	src := `
	for (var i = 0; i < 3; i++) { x = i; }
	while (x) { x--; }
	try { f(); } catch (e) { g(e); } finally { h(); }
	`
	prog := mustParse(t, src)
	if len(prog.Body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Body))
	}
	if _, ok := prog.Body[0].(*ast.ForStatement); !ok {
		t.Errorf("expected ForStatement, got %T", prog.Body[0])
	}
	if _, ok := prog.Body[1].(*ast.WhileStatement); !ok {
		t.Errorf("expected WhileStatement, got %T", prog.Body[1])
	}
	try, ok := prog.Body[2].(*ast.TryStatement)
	if !ok {
		t.Fatalf("expected TryStatement, got %T", prog.Body[2])
	}
	if try.Handler == nil || try.Finalizer == nil {
		t.Error("expected both a catch handler and a finally block")
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := parse.Program("bad", `var = ;`, true)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var pf *errortypes.ParseFailure
	if !errors.As(err, &pf) {
		t.Fatalf("expected *errortypes.ParseFailure, got %T", err)
	}
	if pf.Line != 1 || pf.Col != 5 {
		t.Errorf("error position = %d:%d, want 1:5 (the '=' token)", pf.Line, pf.Col)
	}
}
