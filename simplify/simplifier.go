// Package simplify implements component E: constant folding of
// literal-only binary and unary expressions, typeof, and computed member
// access that can be rewritten as a plain dotted property.
//
// Folding mirrors the teacher's tofu/eval.go dispatch style — a switch
// over operator strings with small int/float coercion helpers — adapted
// from Soy's data.Value arithmetic to JavaScript's looser numeric and
// string coercion rules.
package simplify

import (
	"fmt"
	"log"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/errortypes"
)

// Logger prints a diagnostic when a literal-operand expression can't be
// folded (an operator fold doesn't support, or an operand that doesn't
// coerce to a number). The node is left unchanged either way (spec.md
// §4.E); this only surfaces why, the same role pipeline.Logger plays for
// a disabled sandbox.
var Logger = log.New(os.Stderr, "[simplify] ", 0)

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Simplify folds every literal-only expression it can, bottom-up, so a
// nested fold (obj["a"+"b"] -> obj["ab"] -> obj.ab) completes in one
// pass: the BinaryExpression child is folded to a Literal before the
// enclosing MemberExpression's handler ever runs.
func Simplify(prog *ast.Program) *ast.Program {
	result := ast.Rewrite(prog, fold)
	return result.(*ast.Program)
}

func fold(n ast.Node) interface{} {
	switch v := n.(type) {
	case *ast.BinaryExpression:
		left, lok := v.Left.(*ast.Literal)
		right, rok := v.Right.(*ast.Literal)
		if lok && rok {
			if folded, ok := foldBinary(v.Operator, left, right, v.Pos); ok {
				return folded
			}
			logFoldingFailure(v.Operator, left.Value, right.Value)
		}
		return n
	case *ast.UnaryExpression:
		if arg, ok := v.Argument.(*ast.Literal); ok {
			if folded, ok := foldUnary(v.Operator, arg, v.Pos); ok {
				return folded
			}
			logFoldingFailure(v.Operator, arg.Value)
		}
		return n
	case *ast.MemberExpression:
		if v.Computed {
			if lit, ok := v.Property.(*ast.Literal); ok {
				if s, ok := lit.Value.(string); ok && identifierRe.MatchString(s) {
					return &ast.MemberExpression{
						Pos:      v.Pos,
						Object:   v.Object,
						Property: &ast.Identifier{Pos: lit.Pos, Name: s},
						Computed: false,
					}
				}
			}
		}
		return n
	case *ast.ConditionalExpression:
		// Additive beyond spec.md's literal §4.E list: an opaque-predicate
		// ternary with a literal test folds the same way an IfStatement
		// does in the eliminator, one level down in expression position.
		if lit, ok := v.Test.(*ast.Literal); ok {
			if truthy(lit.Value) {
				return v.Consequent
			}
			return v.Alternate
		}
		return n
	default:
		return n
	}
}

// logFoldingFailure reports an operator/operand combination fold() left
// untouched, wrapping it as a *errortypes.FoldingFailure the way
// sandbox.tryResolve wraps a failed eval: localized to one node, never
// escaping as an error the pass has to abort over.
func logFoldingFailure(op string, operands ...interface{}) {
	err := &errortypes.FoldingFailure{
		Operator: op,
		Err:      fmt.Errorf("no fold rule for operand(s) %v", operands),
	}
	Logger.Print(err)
}

func foldBinary(op string, left, right *ast.Literal, pos ast.Pos) (ast.Node, bool) {
	lv, rv := left.Value, right.Value
	switch op {
	case "+":
		if isString(lv) || isString(rv) {
			return stringLiteral(pos, toStr(lv)+toStr(rv)), true
		}
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, ln+rn), true
	case "-":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, ln-rn), true
	case "*":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, ln*rn), true
	case "/":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, ln/rn), true
	case "%":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, math.Mod(ln, rn)), true
	case "<", "<=", ">", ">=":
		b, ok := relational(op, lv, rv)
		if !ok {
			return nil, false
		}
		return boolLiteral(pos, b), true
	case "==":
		return boolLiteral(pos, looseEquals(lv, rv)), true
	case "!=":
		return boolLiteral(pos, !looseEquals(lv, rv)), true
	case "===":
		return boolLiteral(pos, strictEquals(lv, rv)), true
	case "!==":
		return boolLiteral(pos, !strictEquals(lv, rv)), true
	case "&&":
		if truthy(lv) {
			return &ast.Literal{Pos: pos, Value: rv}, true
		}
		return &ast.Literal{Pos: pos, Value: lv}, true
	case "||":
		if truthy(lv) {
			return &ast.Literal{Pos: pos, Value: lv}, true
		}
		return &ast.Literal{Pos: pos, Value: rv}, true
	case "&":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, float64(toInt32(ln)&toInt32(rn))), true
	case "|":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, float64(toInt32(ln)|toInt32(rn))), true
	case "^":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		return numericNode(pos, float64(toInt32(ln)^toInt32(rn))), true
	case "<<":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		shift := uint32(toInt32(rn)) & 31
		return numericNode(pos, float64(toInt32(ln)<<shift)), true
	case ">>":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		shift := uint32(toInt32(rn)) & 31
		return numericNode(pos, float64(toInt32(ln)>>shift)), true
	case ">>>":
		ln, lok := toNumber(lv)
		rn, rok := toNumber(rv)
		if !lok || !rok {
			return nil, false
		}
		shift := uint32(toInt32(rn)) & 31
		return numericNode(pos, float64(toUint32(ln)>>shift)), true
	default:
		return nil, false
	}
}

func foldUnary(op string, arg *ast.Literal, pos ast.Pos) (ast.Node, bool) {
	switch op {
	case "!":
		return boolLiteral(pos, !truthy(arg.Value)), true
	case "-":
		n, ok := toNumber(arg.Value)
		if !ok {
			return nil, false
		}
		return numericNode(pos, -n), true
	case "+":
		n, ok := toNumber(arg.Value)
		if !ok {
			return nil, false
		}
		return numericNode(pos, n), true
	case "~":
		n, ok := toNumber(arg.Value)
		if !ok {
			return nil, false
		}
		return numericNode(pos, float64(^toInt32(n))), true
	case "typeof":
		return stringLiteral(pos, typeofName(arg.Value)), true
	default:
		return nil, false
	}
}

func typeofName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "object"
	default:
		return "undefined"
	}
}

func isString(v interface{}) bool {
	_, ok := v.(string)
	return ok
}

// toNumber applies JS's ToNumber abstract operation to the literal kinds
// this pipeline's Literal.Value can hold.
func toNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case nil:
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), true
		}
		return n, true
	default:
		return 0, false
	}
}

func toStr(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return "null"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		switch {
		case math.IsNaN(x):
			return "NaN"
		case math.IsInf(x, 1):
			return "Infinity"
		case math.IsInf(x, -1):
			return "-Infinity"
		default:
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
	default:
		return ""
	}
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return false
	}
}

func kind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int64, float64:
		return "number"
	default:
		return "unknown"
	}
}

func strictEquals(a, b interface{}) bool {
	if kind(a) != kind(b) {
		return false
	}
	switch kind(a) {
	case "null":
		return true
	case "boolean":
		return a.(bool) == b.(bool)
	case "string":
		return a.(string) == b.(string)
	case "number":
		an, _ := toNumber(a)
		bn, _ := toNumber(b)
		if math.IsNaN(an) || math.IsNaN(bn) {
			return false
		}
		return an == bn
	default:
		return false
	}
}

// looseEquals approximates JS's Abstract Equality Comparison across the
// literal kinds this pipeline models (no undefined, no objects).
func looseEquals(a, b interface{}) bool {
	if kind(a) == kind(b) {
		return strictEquals(a, b)
	}
	if ab, ok := a.(bool); ok {
		n, _ := toNumber(ab)
		return looseEquals(n, b)
	}
	if bb, ok := b.(bool); ok {
		n, _ := toNumber(bb)
		return looseEquals(a, n)
	}
	if kind(a) == "number" && kind(b) == "string" {
		bn, ok := toNumber(b)
		an, _ := toNumber(a)
		return ok && !math.IsNaN(bn) && an == bn
	}
	if kind(a) == "string" && kind(b) == "number" {
		return looseEquals(b, a)
	}
	return false
}

func relational(op string, a, b interface{}) (bool, bool) {
	if isString(a) && isString(b) {
		as, bs := a.(string), b.(string)
		switch op {
		case "<":
			return as < bs, true
		case "<=":
			return as <= bs, true
		case ">":
			return as > bs, true
		case ">=":
			return as >= bs, true
		}
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok {
		return false, false
	}
	if math.IsNaN(an) || math.IsNaN(bn) {
		return false, true
	}
	switch op {
	case "<":
		return an < bn, true
	case "<=":
		return an <= bn, true
	case ">":
		return an > bn, true
	case ">=":
		return an >= bn, true
	}
	return false, false
}

func toInt32(v float64) int32 {
	return int32(toUint32(v))
}

func toUint32(v float64) uint32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Trunc(v)
	const twoTo32 = 4294967296
	m := math.Mod(v, twoTo32)
	if m < 0 {
		m += twoTo32
	}
	return uint32(m)
}

func boolLiteral(pos ast.Pos, b bool) *ast.Literal {
	return &ast.Literal{Pos: pos, Value: b}
}

func stringLiteral(pos ast.Pos, s string) *ast.Literal {
	return &ast.Literal{Pos: pos, Value: s}
}

// numericNode renders a folded numeric result, keeping negative values
// out of Literal.Value directly: JS source has no negative numeric
// literal token, so a negative fold becomes UnaryExpression('-', Literal
// (abs(v))), matching what a parser would have produced for that text
// in the first place.
func numericNode(pos ast.Pos, v float64) ast.Node {
	switch {
	case math.IsNaN(v):
		return &ast.Literal{Pos: pos, Value: v, Raw: "NaN"}
	case math.IsInf(v, 1):
		return &ast.Literal{Pos: pos, Value: v, Raw: "Infinity"}
	case math.IsInf(v, -1):
		return &ast.UnaryExpression{
			Pos:      pos,
			Operator: "-",
			Argument: &ast.Literal{Pos: pos, Value: math.Inf(1), Raw: "Infinity"},
		}
	case v < 0:
		return &ast.UnaryExpression{
			Pos:      pos,
			Operator: "-",
			Argument: literalFromFloat(pos, -v),
		}
	default:
		return literalFromFloat(pos, v)
	}
}

func literalFromFloat(pos ast.Pos, v float64) *ast.Literal {
	if v == math.Trunc(v) && math.Abs(v) < 1e18 {
		return &ast.Literal{Pos: pos, Value: int64(v)}
	}
	return &ast.Literal{Pos: pos, Value: v}
}
