package deadcode_test

import (
	"testing"

	"github.com/robfig/jsdeobfuscate/census"
	"github.com/robfig/jsdeobfuscate/deadcode"
	"github.com/robfig/jsdeobfuscate/gen"
	"github.com/robfig/jsdeobfuscate/parse"
)

func eliminate(t *testing.T, src string) string {
	t.Helper()
	prog, err := parse.Program("test", src, true)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	counts := census.Count(prog)
	out := deadcode.Eliminate(prog, counts)
	return gen.Generate(out)
}

func TestEliminateFoldsIfLiteralTrue(t *testing.T) {
	got := eliminate(t, `if(true){x=1;}else{x=2;}`)
	want := `x = 1;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateDropsIfFalseWithNoElse(t *testing.T) {
	got := eliminate(t, `if(false){x=1;}`)
	want := ``
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateDropsUnreferencedFunctionDeclaration(t *testing.T) {
	got := eliminate(t, `function unused(){return 1;}x=1;`)
	want := `x = 1;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateDropsUnreferencedVariableDeclarator(t *testing.T) {
	got := eliminate(t, `var u=1;x=2;`)
	want := `x = 2;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateKeepsCallInitializerDespiteZeroReferences(t *testing.T) {
	got := eliminate(t, `var u=sideEffect();`)
	want := `var u = sideEffect();`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateDropsOnlyUnreferencedDeclaratorsFromMultiDeclaration(t *testing.T) {
	got := eliminate(t, `var u=1,v=2;x=v;`)
	want := `var v = 2;x = v;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateNeverDropsReservedGlobal(t *testing.T) {
	got := eliminate(t, `var console=1;`)
	want := `var console = 1;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateFoldsWhileLiteralFalse(t *testing.T) {
	got := eliminate(t, `while(false){x=1;}y=2;`)
	want := `y = 2;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEliminateFoldsForLiteralFalse(t *testing.T) {
	got := eliminate(t, `for(;false;){x=1;}y=2;`)
	want := `y = 2;`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
