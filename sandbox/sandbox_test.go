package sandbox_test

import (
	"testing"

	"github.com/robfig/jsdeobfuscate/gen"
	"github.com/robfig/jsdeobfuscate/parse"
	"github.com/robfig/jsdeobfuscate/sandbox"
)

func TestPrimeTriggersLazyDecoderInstallation(t *testing.T) {
	src := `
var g;
function decode(n) { if (!g) { g = function(x) { return "dec-" + x; }; } return g(n); }
var result = decode(5);
decode(0);`
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	r, err := sandbox.New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	out := r.Resolve(prog)
	got := gen.Generate(out)
	want := `var g;function decode(n) {if (!g) {g = function (x) {return "dec-" + x;};}return g(n);}var result = "dec-5";decode(0);`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveReplacesTopLevelDecoderCallWithLiteral(t *testing.T) {
	src := `
function decode(n) { return "value-" + n; }
var x = decode(3);`
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	r, err := sandbox.New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	out := r.Resolve(prog)
	got := gen.Generate(out)
	want := `function decode(n) {return "value-" + n;}var x = "value-3";`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveSkipsCallsInsideFunctionDeclarations(t *testing.T) {
	src := `
function decode(n) { return "value-" + n; }
function wrapper() { return decode(9); }`
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	r, err := sandbox.New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	out := r.Resolve(prog)
	got := gen.Generate(out)
	want := `function decode(n) {return "value-" + n;}function wrapper() {return decode(9);}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveConvertsComputedMemberToDotAccess(t *testing.T) {
	src := `
function key() { return "prop"; }
var x = obj[key()];`
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	r, err := sandbox.New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	out := r.Resolve(prog)
	got := gen.Generate(out)
	want := `function key() {return "prop";}var x = obj.prop;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveLeavesNonFunctionCalleeAlone(t *testing.T) {
	src := `var x = notDefinedAnywhere(1);`
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	r, err := sandbox.New(prog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	out := r.Resolve(prog)
	got := gen.Generate(out)
	want := `var x = notDefinedAnywhere(1);`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
