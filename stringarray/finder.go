// Package stringarray locates and inlines the encoded literal table that
// string-array obfuscators inject at the top of a program (components B
// and C): a single `VariableDeclarator` holding an array of string
// literals, and the accessor function obfuscated code calls to read it by
// index.
package stringarray

import (
	"strings"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/gen"
)

// Facts records what the finder discovered: the table itself and, if one
// was found, the name of the function wrapping access to it. AccessorName
// is empty when no wrapper is detected — the resolver then only inlines
// direct `tableName[N]` reads.
type Facts struct {
	TableName    string
	Table        []interface{}
	AccessorName string
	found        bool
}

// Found reports whether a table was located at all.
func (f Facts) Found() bool { return f.found }

// Find walks prog once, in document order, looking for the first
// VariableDeclarator whose initializer is an array of more than two
// literals, then for the first subsequent accessor-shaped declaration
// whose generated body mentions the table's name.
func Find(prog *ast.Program) Facts {
	var facts Facts
	ast.Walk(prog, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.VariableDeclarator:
			if !facts.found {
				if tryTable(&facts, v) {
					return true
				}
				return true
			}
			if facts.AccessorName == "" {
				if fe, ok := v.Init.(*ast.FunctionExpression); ok {
					if id, ok := v.Id.(*ast.Identifier); ok && mentionsTable(fe.Body, facts.TableName) {
						facts.AccessorName = id.Name
					}
				}
			}
			return true
		case *ast.FunctionDeclaration:
			if facts.found && facts.AccessorName == "" && v.Id != nil {
				if mentionsTable(v.Body, facts.TableName) {
					facts.AccessorName = v.Id.Name
				}
			}
			return true
		default:
			return true
		}
	})
	return facts
}

func tryTable(facts *Facts, v *ast.VariableDeclarator) bool {
	arr, ok := v.Init.(*ast.ArrayExpression)
	if !ok || len(arr.Elements) <= 2 {
		return false
	}
	values := make([]interface{}, len(arr.Elements))
	for i, e := range arr.Elements {
		lit, ok := e.(*ast.Literal)
		if !ok {
			return false
		}
		values[i] = lit.Value
	}
	id, ok := v.Id.(*ast.Identifier)
	if !ok {
		return false
	}
	facts.TableName = id.Name
	facts.Table = values
	facts.found = true
	return true
}

func mentionsTable(body *ast.BlockStatement, tableName string) bool {
	if body == nil || tableName == "" {
		return false
	}
	return strings.Contains(gen.Generate(body), tableName)
}
