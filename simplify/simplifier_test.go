package simplify_test

import (
	"testing"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/gen"
	"github.com/robfig/jsdeobfuscate/parse"
	"github.com/robfig/jsdeobfuscate/simplify"
)

func run(t *testing.T, src string) string {
	t.Helper()
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	out := simplify.Simplify(prog)
	return gen.Generate(out)
}

func TestSimplifyArithmetic(t *testing.T) {
	cases := map[string]string{
		`x = 1 + 2;`:         `x = 3;`,
		`x = 5 - 7;`:         `x = -2;`,
		`x = 2 * 3;`:         `x = 6;`,
		`x = 6 / 3;`:         `x = 2;`,
		`x = 1 / 0;`:         `x = Infinity;`,
		`x = 7 % 3;`:         `x = 1;`,
		`x = 1 < 2;`:         `x = true;`,
		`x = "a" + "b";`:     `x = "ab";`,
		`x = 1 + "2";`:       `x = "12";`,
	}
	for src, want := range cases {
		if got := run(t, src); got != want {
			t.Errorf("Simplify(%q) = %q, want %q", src, got, want)
		}
	}
}

func TestSimplifyTypeofString(t *testing.T) {
	got := run(t, `typeof "x" === "string";`)
	want := `true;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimplifyNestedMemberFold(t *testing.T) {
	got := run(t, `obj["a" + "b"];`)
	want := `obj.ab;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimplifyMemberNonIdentifierStaysComputed(t *testing.T) {
	got := run(t, `obj["a-b"];`)
	want := `obj["a-b"];`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimplifyConditionalLiteralTest(t *testing.T) {
	got := run(t, `x = true ? 1 : 2;`)
	want := `x = 1;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimplifyNegativeResultUsesUnaryMinus(t *testing.T) {
	prog, err := parse.Program("test", `x = 2 - 9;`, true)
	if err != nil {
		t.Fatal(err)
	}
	out := simplify.Simplify(prog)
	stmt := out.Body[0].(*ast.ExpressionStatement)
	assign := stmt.Expression.(*ast.AssignmentExpression)
	un, ok := assign.Right.(*ast.UnaryExpression)
	if !ok || un.Operator != "-" {
		t.Fatalf("expected a UnaryExpression('-', ...) fold, got %#v", assign.Right)
	}
	lit := un.Argument.(*ast.Literal)
	if lit.Value != int64(7) {
		t.Errorf("expected abs value 7, got %v", lit.Value)
	}
	if got := gen.Generate(out); got != `x = -7;` {
		t.Errorf("got %q, want %q", got, `x = -7;`)
	}
}
