package rename_test

import (
	"testing"

	"github.com/robfig/jsdeobfuscate/gen"
	"github.com/robfig/jsdeobfuscate/parse"
	"github.com/robfig/jsdeobfuscate/rename"
)

func mustParse(t *testing.T, src string) string {
	t.Helper()
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	rename.Rename(prog)
	return gen.Generate(prog)
}

func TestRenameHexTagIdentifiers(t *testing.T) {
	out := mustParse(t, `var _0x1a=1,_0x1b=2;var s=_0x1a+_0x1b;`)
	want := `var var_0 = 1, var_1 = 2;var var_2 = var_0 + var_1;`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenameLeavesWhitelistedShortNames(t *testing.T) {
	out := mustParse(t, `var i=0,t=1;i=i+t;`)
	want := `var i = 0, t = 1;i = i + t;`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenameShortNonWhitelistedIdentifier(t *testing.T) {
	out := mustParse(t, `var q=1;q=q+1;`)
	want := `var var_0 = 1;var_0 = var_0 + 1;`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenameNeverTouchesNonComputedProperty(t *testing.T) {
	out := mustParse(t, `var _0x1a={};_0x1a.q=1;`)
	want := `var var_0 = {};var_0.q = 1;`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenameFunctionDeclarationHoistsToEnclosingScope(t *testing.T) {
	out := mustParse(t, `function _0x1(a){return a;}_0x1(1);`)
	want := `function var_0(a) {return a;}var_0(1);`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenameResolvesForwardReferenceToHoistedFunction(t *testing.T) {
	// The call precedes its own declaration in source order, the pattern
	// JS hoisting makes legal and obfuscators rely on; the renamer must
	// resolve the call to the same mapping the declaration gets, not
	// leave it pointing at the pre-rename name.
	out := mustParse(t, `_0x1(1);function _0x1(a){return a;}`)
	want := `var_0(1);function var_0(a) {return a;}`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenameScopesShadowIndependently(t *testing.T) {
	// "f" is itself short and non-whitelisted, so it qualifies for renaming
	// too, and as a hoisted function name it is numbered first; the outer
	// and inner "q" each get their own var_<n>.
	out := mustParse(t, `var q=1;function f(q){return q;}`)
	want := `var var_1 = 1;function var_0(var_2) {return var_2;}`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
