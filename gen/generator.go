// Package gen turns an AST back into JavaScript source text and offers a
// minimal best-effort beautifier. spec.md treats both as externally
// supplied collaborators (a parser/generator pair, a downstream
// formatter); this package is the small, real implementation a
// self-contained module needs to exercise the pipeline end to end.
package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/parse"
)

// Generate renders node as JavaScript source text.
func Generate(node ast.Node) string {
	var b strings.Builder
	write(&b, node)
	return b.String()
}

func write(b *strings.Builder, node ast.Node) {
	switch n := node.(type) {
	case nil:
		return
	case *ast.Program:
		for _, s := range n.Body {
			writeStatement(b, s)
		}
	case *ast.Identifier:
		b.WriteString(n.Name)
	case *ast.Literal:
		b.WriteString(literalText(n))
	case *ast.BinaryExpression:
		writeParen(b, n.Left, precedence(n.Left) < binaryPrec(n.Operator))
		b.WriteString(" " + n.Operator + " ")
		writeParen(b, n.Right, precedence(n.Right) < binaryPrec(n.Operator))
	case *ast.UnaryExpression:
		if isWordOperator(n.Operator) {
			b.WriteString(n.Operator + " ")
		} else {
			b.WriteString(n.Operator)
		}
		writeParen(b, n.Argument, precedence(n.Argument) < 14)
	case *ast.UpdateExpression:
		if n.Prefix {
			b.WriteString(n.Operator)
			write(b, n.Argument)
		} else {
			write(b, n.Argument)
			b.WriteString(n.Operator)
		}
	case *ast.ConditionalExpression:
		write(b, n.Test)
		b.WriteString(" ? ")
		write(b, n.Consequent)
		b.WriteString(" : ")
		write(b, n.Alternate)
	case *ast.AssignmentExpression:
		write(b, n.Left)
		b.WriteString(" " + n.Operator + " ")
		write(b, n.Right)
	case *ast.SequenceExpression:
		for i, e := range n.Expressions {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, e)
		}
	case *ast.CallExpression:
		writeParen(b, n.Callee, isFunctionExpr(n.Callee))
		b.WriteString("(")
		writeArgs(b, n.Arguments)
		b.WriteString(")")
	case *ast.NewExpression:
		b.WriteString("new ")
		writeParen(b, n.Callee, isFunctionExpr(n.Callee))
		b.WriteString("(")
		writeArgs(b, n.Arguments)
		b.WriteString(")")
	case *ast.MemberExpression:
		writeParen(b, n.Object, isFunctionExpr(n.Object))
		if n.Computed {
			b.WriteString("[")
			write(b, n.Property)
			b.WriteString("]")
		} else {
			b.WriteString(".")
			write(b, n.Property)
		}
	case *ast.ArrayExpression:
		b.WriteString("[")
		for i, e := range n.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, e)
		}
		b.WriteString("]")
	case *ast.ObjectExpression:
		b.WriteString("{")
		for i, p := range n.Properties {
			if i > 0 {
				b.WriteString(", ")
			}
			if p.Computed {
				b.WriteString("[")
				write(b, p.Key)
				b.WriteString("]")
			} else {
				write(b, p.Key)
			}
			b.WriteString(": ")
			write(b, p.Value)
		}
		b.WriteString("}")
	case *ast.FunctionExpression:
		b.WriteString("function ")
		if n.Id != nil {
			b.WriteString(n.Id.Name)
		}
		writeParams(b, n.Params)
		b.WriteString(" ")
		write(b, n.Body)
	default:
		writeStatement(b, node)
	}
}

func writeStatement(b *strings.Builder, node ast.Node) {
	switch n := node.(type) {
	case *ast.VariableDeclaration:
		b.WriteString(n.Kind + " ")
		for i, d := range n.Declarations {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, d.Id)
			if d.Init != nil {
				b.WriteString(" = ")
				write(b, d.Init)
			}
		}
		b.WriteString(";")
	case *ast.FunctionDeclaration:
		b.WriteString("function ")
		if n.Id != nil {
			b.WriteString(n.Id.Name)
		}
		writeParams(b, n.Params)
		b.WriteString(" ")
		write(b, n.Body)
	case *ast.BlockStatement:
		b.WriteString("{")
		for _, s := range n.Body {
			writeStatement(b, s)
		}
		b.WriteString("}")
	case *ast.ExpressionStatement:
		write(b, n.Expression)
		b.WriteString(";")
	case *ast.IfStatement:
		b.WriteString("if (")
		write(b, n.Test)
		b.WriteString(") ")
		writeStatement(b, n.Consequent)
		if n.Alternate != nil {
			b.WriteString(" else ")
			writeStatement(b, n.Alternate)
		}
	case *ast.ReturnStatement:
		b.WriteString("return")
		if n.Argument != nil {
			b.WriteString(" ")
			write(b, n.Argument)
		}
		b.WriteString(";")
	case *ast.ForStatement:
		b.WriteString("for (")
		if _, ok := n.Init.(*ast.VariableDeclaration); ok {
			// The clause separator below supplies the ';' a declaration
			// statement would otherwise end with.
			b.WriteString(strings.TrimSuffix(Generate(n.Init), ";"))
		} else {
			write(b, n.Init)
		}
		b.WriteString("; ")
		write(b, n.Test)
		b.WriteString("; ")
		write(b, n.Update)
		b.WriteString(") ")
		writeStatement(b, n.Body)
	case *ast.WhileStatement:
		if n.Do {
			b.WriteString("do ")
			writeStatement(b, n.Body)
			b.WriteString(" while (")
			write(b, n.Test)
			b.WriteString(");")
		} else {
			b.WriteString("while (")
			write(b, n.Test)
			b.WriteString(") ")
			writeStatement(b, n.Body)
		}
	case *ast.BreakStatement:
		b.WriteString("break;")
	case *ast.ContinueStatement:
		b.WriteString("continue;")
	case *ast.ThrowStatement:
		b.WriteString("throw ")
		write(b, n.Argument)
		b.WriteString(";")
	case *ast.TryStatement:
		b.WriteString("try ")
		write(b, n.Block)
		if n.Handler != nil {
			b.WriteString(" catch (")
			if n.Handler.Param != nil {
				write(b, n.Handler.Param)
			}
			b.WriteString(") ")
			write(b, n.Handler.Body)
		}
		if n.Finalizer != nil {
			b.WriteString(" finally ")
			write(b, n.Finalizer)
		}
	case *ast.SwitchStatement:
		b.WriteString("switch (")
		write(b, n.Discriminant)
		b.WriteString(") {")
		for _, c := range n.Cases {
			if c.Test != nil {
				b.WriteString("case ")
				write(b, c.Test)
				b.WriteString(":")
			} else {
				b.WriteString("default:")
			}
			for _, s := range c.Consequent {
				writeStatement(b, s)
			}
		}
		b.WriteString("}")
	case *ast.EmptyStatement:
		b.WriteString(";")
	default:
		write(b, node)
	}
}

func writeParams(b *strings.Builder, params []ast.Node) {
	b.WriteString("(")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		write(b, p)
	}
	b.WriteString(")")
}

func writeArgs(b *strings.Builder, args []ast.Node) {
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		write(b, a)
	}
}

func writeParen(b *strings.Builder, node ast.Node, paren bool) {
	if paren {
		b.WriteString("(")
		write(b, node)
		b.WriteString(")")
		return
	}
	write(b, node)
}

func isFunctionExpr(n ast.Node) bool {
	_, ok := n.(*ast.FunctionExpression)
	return ok
}

func isWordOperator(op string) bool {
	return op == "typeof" || op == "void" || op == "delete"
}

// precedence reports the binding power of node's outermost operator, used
// to decide whether a child expression needs parenthesizing. Non-operator
// nodes bind tighter than anything.
func precedence(n ast.Node) int {
	switch v := n.(type) {
	case *ast.SequenceExpression:
		return 0
	case *ast.AssignmentExpression:
		return 1
	case *ast.ConditionalExpression:
		return 2
	case *ast.BinaryExpression:
		return binaryPrec(v.Operator)
	case *ast.UnaryExpression, *ast.UpdateExpression:
		return 14
	default:
		return 20
	}
}

var binaryPrecTable = map[string]int{
	"||": 3, "??": 3,
	"&&": 4,
	"|":  5,
	"^":  6,
	"&":  7,
	"==": 8, "!=": 8, "===": 8, "!==": 8,
	"<": 9, "<=": 9, ">": 9, ">=": 9, "instanceof": 9, "in": 9,
	"<<": 10, ">>": 10, ">>>": 10,
	"+": 11, "-": 11,
	"*": 12, "/": 12, "%": 12,
}

func binaryPrec(op string) int {
	if p, ok := binaryPrecTable[op]; ok {
		return p
	}
	return 20
}

// literalText renders a Literal's token text, preferring Raw when set (so
// inlined string-table entries keep a stable quoting convention) and
// falling back to deriving it from Value — used for freshly synthesized
// literals that never had source text, like folded constants.
func literalText(n *ast.Literal) string {
	if n.Raw != "" {
		return n.Raw
	}
	switch v := n.Value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return parse.QuoteString(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
