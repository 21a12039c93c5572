// Package pipeline orchestrates the full deobfuscation run: parse, the
// optional contextual resolver, string-array inlining, renaming,
// constant folding, and the dead-code elimination fixpoint, finishing
// with generation and best-effort beautification.
//
// The builder is modeled on soy's bundle.go: With*-prefixed methods
// chain on a *Pipeline, deferring any setup error to the terminal call
// (bundle.go's Compile, here Run) rather than returning it eagerly from
// every link in the chain.
package pipeline

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/census"
	"github.com/robfig/jsdeobfuscate/deadcode"
	"github.com/robfig/jsdeobfuscate/gen"
	"github.com/robfig/jsdeobfuscate/parse"
	"github.com/robfig/jsdeobfuscate/rename"
	"github.com/robfig/jsdeobfuscate/sandbox"
	"github.com/robfig/jsdeobfuscate/simplify"
	"github.com/robfig/jsdeobfuscate/stringarray"
)

// Logger prints diagnostics that do not abort the run, such as a
// disabled sandbox after a SandboxInitFailure.
var Logger = log.New(os.Stderr, "[deobfuscate] ", 0)

// defaultMaxIterations bounds the census -> eliminate -> regenerate
// fixpoint loop (spec.md §5, §9).
const defaultMaxIterations = 16

// Pipeline configures a deobfuscation run. The zero value is not usable;
// construct with New.
type Pipeline struct {
	useSandbox     bool
	sandboxTimeout time.Duration
	maxIterations  int
	withReport     bool
	err            error
}

// New returns a Pipeline with the fixpoint loop's default cap and the
// contextual resolver and report both off, matching the cheapest,
// purely-static configuration.
func New() *Pipeline {
	return &Pipeline{maxIterations: defaultMaxIterations}
}

// WithSandbox enables or disables the contextual resolver (component H).
// It is opt-in per spec.md §5's note that running a live interpreter
// over untrusted input is inherently unsafe.
func (p *Pipeline) WithSandbox(enabled bool) *Pipeline {
	p.useSandbox = enabled
	return p
}

// WithSandboxTimeout overrides the per-call budget the contextual
// resolver gives each dynamic resolution (sandbox.CallTimeout's
// default). Zero leaves the default in place.
func (p *Pipeline) WithSandboxTimeout(d time.Duration) *Pipeline {
	p.sandboxTimeout = d
	return p
}

// WithMaxIterations overrides the eliminator fixpoint's iteration cap.
// Values less than 1 are ignored, leaving the previous cap in place.
func (p *Pipeline) WithMaxIterations(n int) *Pipeline {
	if n > 0 {
		p.maxIterations = n
	}
	return p
}

// WithReport enables prefixing Run's output with the spec.md §6 summary
// comment block.
func (p *Pipeline) WithReport(enabled bool) *Pipeline {
	p.withReport = enabled
	return p
}

// Run deobfuscates src (named filename for diagnostics) and returns the
// regenerated, beautified source text. Pass order follows spec.md §4.I:
// parse, then the contextual resolver if enabled (it must run before the
// renamer, or it would be resolving calls to identifiers the renamer
// already changed), then the string-array resolver, then the renamer,
// then the simplifier (so inlined literals participate in folding), then
// the census -> eliminate -> regenerate fixpoint loop.
//
// ctx is checked at each pass boundary; a cancelled context aborts the
// run and discards partial results, per spec.md §5. The sandbox (if
// created) is always torn down before Run returns, on every exit path.
func (p *Pipeline) Run(ctx context.Context, filename, src string) (string, error) {
	if p.err != nil {
		return "", p.err
	}

	prog, err := parse.Program(filename, src, true)
	if err != nil {
		return "", err
	}

	var report Report
	var resolver *sandbox.Resolver
	if p.useSandbox {
		var opts []sandbox.Option
		if p.sandboxTimeout > 0 {
			opts = append(opts, sandbox.WithCallTimeout(p.sandboxTimeout))
		}
		resolver, err = sandbox.New(prog, opts...)
		if err != nil {
			Logger.Printf("contextual resolver disabled: %v", err)
			resolver = nil
		}
	}
	defer func() {
		if resolver != nil {
			resolver.Close()
		}
	}()

	if resolver != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		prog = resolver.Resolve(prog)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	facts := stringarray.Find(prog)
	var histogram map[int]int
	prog, histogram = stringarray.Resolve(prog, facts)
	report.StringHistogram = histogram

	if err := ctx.Err(); err != nil {
		return "", err
	}
	report.Renamed = rename.Rename(prog)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	before := countSimplifiable(prog)
	prog = simplify.Simplify(prog)
	report.SimplifiedCount = before - countSimplifiable(prog)

	ifBefore := countIfStatements(prog)
	symBefore := countDeclaredSymbols(prog)

	prog, out, err := p.eliminateToFixpoint(ctx, prog)
	if err != nil {
		return "", err
	}

	report.IfBranchesRemoved = ifBefore - countIfStatements(prog)
	report.SymbolsRemoved = symBefore - countDeclaredSymbols(prog)
	report.Counts = census.Count(prog)

	beautified := gen.Beautify(out)
	if !p.withReport {
		return beautified, nil
	}
	return report.Render() + beautified, nil
}

// eliminateToFixpoint runs census -> eliminate -> regenerate, stopping
// when the generated source stops changing or the iteration cap is hit
// (spec.md §9: bail out without loss rather than loop unboundedly). It
// returns the converged (or cap-exhausted) AST alongside its generated
// text, since the caller needs the AST for the report's node counts and
// the text to avoid regenerating it a second time.
func (p *Pipeline) eliminateToFixpoint(ctx context.Context, prog *ast.Program) (*ast.Program, string, error) {
	prev := gen.Generate(prog)
	for i := 0; i < p.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		counts := census.Count(prog)
		prog = deadcode.Eliminate(prog, counts)
		cur := gen.Generate(prog)
		if cur == prev {
			return prog, cur, nil
		}
		prev = cur
	}
	return prog, prev, nil
}
