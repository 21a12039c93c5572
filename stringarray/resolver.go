package stringarray

import (
	"strconv"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/parse"
)

// Resolve rewrites the two call shapes the finder's facts make
// recognizable — `accessorName(N)` and `tableName[N]` — into inline
// Literal nodes wherever N is an in-range integer index. It returns a
// histogram counting how many times each table index was successfully
// inlined, used by the pipeline report's "top-5 string-table indices by
// inlined use" field.
func Resolve(prog *ast.Program, facts Facts) (*ast.Program, map[int]int) {
	if !facts.Found() {
		return prog, nil
	}
	histogram := make(map[int]int)
	result := ast.Rewrite(prog, func(n ast.Node) interface{} {
		if lit, idx, ok := resolveCall(n, facts); ok {
			histogram[idx]++
			return lit
		}
		if lit, idx, ok := resolveMember(n, facts); ok {
			histogram[idx]++
			return lit
		}
		return n
	})
	if len(histogram) == 0 {
		return prog, nil
	}
	return result.(*ast.Program), histogram
}

func resolveCall(n ast.Node, facts Facts) (*ast.Literal, int, bool) {
	if facts.AccessorName == "" {
		return nil, 0, false
	}
	call, ok := n.(*ast.CallExpression)
	if !ok || len(call.Arguments) != 1 {
		return nil, 0, false
	}
	callee, ok := call.Callee.(*ast.Identifier)
	if !ok || callee.Name != facts.AccessorName {
		return nil, 0, false
	}
	idx, ok := integerIndex(call.Arguments[0])
	if !ok || idx < 0 || idx >= len(facts.Table) {
		return nil, 0, false
	}
	return literalFor(facts.Table[idx], call.Pos), idx, true
}

func resolveMember(n ast.Node, facts Facts) (*ast.Literal, int, bool) {
	member, ok := n.(*ast.MemberExpression)
	if !ok || !member.Computed {
		return nil, 0, false
	}
	obj, ok := member.Object.(*ast.Identifier)
	if !ok || obj.Name != facts.TableName {
		return nil, 0, false
	}
	idx, ok := integerIndex(member.Property)
	if !ok || idx < 0 || idx >= len(facts.Table) {
		return nil, 0, false
	}
	return literalFor(facts.Table[idx], member.Pos), idx, true
}

func integerIndex(n ast.Node) (int, bool) {
	lit, ok := n.(*ast.Literal)
	if !ok {
		return 0, false
	}
	switch v := lit.Value.(type) {
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// literalFor builds a replacement Literal carrying value and a
// repr-compatible quoted Raw so the generator needs no special case for
// freshly-inlined entries.
func literalFor(value interface{}, pos ast.Pos) *ast.Literal {
	lit := &ast.Literal{Pos: pos, Value: value}
	switch v := value.(type) {
	case string:
		lit.Raw = parse.QuoteString(v)
	case bool:
		lit.Raw = strconv.FormatBool(v)
	case int64:
		lit.Raw = strconv.FormatInt(v, 10)
	case float64:
		lit.Raw = strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		lit.Raw = "null"
	}
	return lit
}
