package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/rename"
)

// Report summarizes what a Run call changed, rendered as the leading
// block comment spec.md §6 describes: variables renamed, expressions
// simplified, dead if-branches removed, unused symbols removed, per-name
// reference counts sorted by name, and the top-5 string-table indices by
// inlined use.
type Report struct {
	Renamed            []rename.Renamed
	SimplifiedCount     int
	IfBranchesRemoved   int
	SymbolsRemoved      int
	Counts              map[string]int
	StringHistogram     map[int]int
}

// Render formats the report as a /* ... */ block comment suitable to
// prefix the generated source text.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("/*\n")
	fmt.Fprintf(&b, " * variables renamed: %d\n", len(r.Renamed))
	for _, rn := range r.Renamed {
		fmt.Fprintf(&b, " *   %s -> %s\n", rn.Old, rn.New)
	}
	fmt.Fprintf(&b, " * expressions simplified: %d\n", r.SimplifiedCount)
	fmt.Fprintf(&b, " * dead if-branches removed: %d\n", r.IfBranchesRemoved)
	fmt.Fprintf(&b, " * unused symbols removed: %d\n", r.SymbolsRemoved)

	b.WriteString(" * reference counts:\n")
	names := make([]string, 0, len(r.Counts))
	for name := range r.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " *   %s: %d\n", name, r.Counts[name])
	}

	b.WriteString(" * top string-table indices by inlined use:\n")
	for _, idx := range topIndices(r.StringHistogram, 5) {
		fmt.Fprintf(&b, " *   [%d]: %d\n", idx, r.StringHistogram[idx])
	}
	b.WriteString(" */\n")
	return b.String()
}

// topIndices returns up to n keys of histogram ordered by descending
// value, breaking ties by ascending index for a deterministic report.
func topIndices(histogram map[int]int, n int) []int {
	indices := make([]int, 0, len(histogram))
	for idx := range histogram {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool {
		if histogram[indices[i]] != histogram[indices[j]] {
			return histogram[indices[i]] > histogram[indices[j]]
		}
		return indices[i] < indices[j]
	})
	if len(indices) > n {
		indices = indices[:n]
	}
	return indices
}

// countIfStatements reports how many IfStatement nodes remain in prog,
// used to diff before/after an elimination pass for the report's "dead
// if-branches removed" figure.
func countIfStatements(prog *ast.Program) int {
	n := 0
	ast.Walk(prog, func(node ast.Node) bool {
		if _, ok := node.(*ast.IfStatement); ok {
			n++
		}
		return true
	})
	return n
}

// countDeclaredSymbols reports how many FunctionDeclaration and
// VariableDeclarator nodes remain in prog, used the same way for the
// report's "unused symbols removed" figure.
func countDeclaredSymbols(prog *ast.Program) int {
	n := 0
	ast.Walk(prog, func(node ast.Node) bool {
		switch node.(type) {
		case *ast.FunctionDeclaration, *ast.VariableDeclarator:
			n++
		}
		return true
	})
	return n
}

// countSimplifiable reports how many nodes in prog are candidates the
// simplifier acts on: binary/unary/conditional expressions and computed
// member accesses. Diffing this count before and after Simplify gives
// the report's "expressions simplified" figure.
func countSimplifiable(prog *ast.Program) int {
	n := 0
	ast.Walk(prog, func(node ast.Node) bool {
		switch v := node.(type) {
		case *ast.BinaryExpression, *ast.UnaryExpression, *ast.ConditionalExpression:
			n++
		case *ast.MemberExpression:
			if v.Computed {
				n++
			}
		}
		return true
	})
	return n
}
