package gen_test

import (
	"testing"

	"github.com/robfig/jsdeobfuscate/gen"
	"github.com/robfig/jsdeobfuscate/parse"
)

func TestGenerateRoundTrip(t *testing.T) {
	tests := []string{
		`var a = ["Hello", "World"];`,
		`function f(i) { return a[i]; }`,
		`x = 1 + 2 * 3;`,
		`x = (1 + 2) * 3;`,
		`if (true) { x = 1; } else { x = 2; }`,
		`for (var i = 0; i < 3; i++) { x = i; }`,
		`while (x) { x--; }`,
		`try { f(); } catch (e) { g(e); } finally { h(); }`,
		`obj["a" + "b"];`,
		`obj.ab;`,
	}
	for _, src := range tests {
		prog, err := parse.Program("test", src, true)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		out := gen.Generate(prog)
		reparsed, err := parse.Program("regen", out, true)
		if err != nil {
			t.Fatalf("generated source %q from %q failed to reparse: %v", out, src, err)
		}
		again := gen.Generate(reparsed)
		if out != again {
			t.Errorf("generation is not stable: %q (from %q) regenerated as %q", out, src, again)
		}
	}
}

func TestGenerateParenthesizesByPrecedence(t *testing.T) {
	prog, err := parse.Program("test", `x = (1 + 2) * 3;`, true)
	if err != nil {
		t.Fatal(err)
	}
	out := gen.Generate(prog)
	if out != `x = (1 + 2) * 3;` {
		t.Errorf("expected parens preserved around lower-precedence left operand, got %q", out)
	}
}

func TestBeautifyIndentsBlocks(t *testing.T) {
	out := gen.Beautify(`if(x){y=1;}else{y=2;}`)
	want := "if(x){\n  y=1;\n}else{\n  y=2;\n}"
	if out != want {
		t.Errorf("Beautify() = %q, want %q", out, want)
	}
}

func TestBeautifyCollapsesEmptyBlock(t *testing.T) {
	out := gen.Beautify(`function f(){}`)
	want := "function f(){\n}"
	if out != want {
		t.Errorf("Beautify() = %q, want %q", out, want)
	}
}
