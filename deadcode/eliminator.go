// Package deadcode implements component G: one rewrite pass that folds
// IfStatements whose test already reduced to a Literal, and drops
// declarations the usage census (package census) found unreferenced.
// The pipeline runs this pass in a census -> eliminate -> regenerate
// loop until the generated source stops changing (spec.md §4.G, §9).
package deadcode

import "github.com/robfig/jsdeobfuscate/ast"

// reserved names are treated as host-provided and are never removed even
// with a zero reference count, matching spec.md §4.G.
var reserved = map[string]bool{
	"console": true, "window": true, "document": true,
	"Array": true, "Object": true, "String": true,
	"Number": true, "Boolean": true, "Function": true,
}

// Eliminate removes dead if/while/for branches and unreferenced
// declarations, using counts (produced by census.Count on the tree
// before this pass ran) to decide what is unreferenced. It runs two
// bottom-up rewrites: one folding control-flow whose test is already a
// literal and dropping unreferenced FunctionDeclarations, a second
// dropping unreferenced VariableDeclarators (kept separate because a
// VariableDeclaration's fate depends on all its declarators at once, not
// one node at a time).
func Eliminate(prog *ast.Program, counts map[string]int) *ast.Program {
	result := ast.Rewrite(prog, func(n ast.Node) interface{} {
		switch v := n.(type) {
		case *ast.IfStatement:
			return foldIf(v)
		case *ast.FunctionDeclaration:
			if unreferenced(v.Id, counts) {
				return nil
			}
			return n
		case *ast.WhileStatement:
			return foldWhile(v)
		case *ast.ForStatement:
			return foldFor(v)
		default:
			return n
		}
	})
	return dropUnusedDeclarators(result.(*ast.Program), counts)
}

func foldIf(n *ast.IfStatement) interface{} {
	lit, ok := n.Test.(*ast.Literal)
	if !ok {
		return n
	}
	if truthy(lit.Value) {
		return unwrap(n.Consequent)
	}
	if n.Alternate != nil {
		return unwrap(n.Alternate)
	}
	return nil
}

// foldWhile and foldFor are an additive extension beyond spec.md's
// literal §4.G list: a loop whose test has already folded to a literal
// false never runs, the same reasoning the eliminator already applies to
// if-statements with a falsy literal test and no else branch.
func foldWhile(n *ast.WhileStatement) interface{} {
	if n.Do {
		return n
	}
	if lit, ok := n.Test.(*ast.Literal); ok && !truthy(lit.Value) {
		return nil
	}
	return n
}

func foldFor(n *ast.ForStatement) interface{} {
	if n.Test == nil {
		return n
	}
	if lit, ok := n.Test.(*ast.Literal); ok && !truthy(lit.Value) {
		return nil
	}
	return n
}

// unwrap turns a branch into the statement list that replaces the
// IfStatement in its parent's block: a BlockStatement unwraps to its own
// body so the braces don't survive as a pointless nested block, anything
// else is a single statement spliced in directly.
func unwrap(branch ast.Node) interface{} {
	if block, ok := branch.(*ast.BlockStatement); ok {
		return block.Body
	}
	return branch
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
		return x != 0
	default:
		return false
	}
}

func unreferenced(id *ast.Identifier, counts map[string]int) bool {
	if id == nil {
		return false
	}
	if reserved[id.Name] {
		return false
	}
	return counts[id.Name] == 0
}

// dropUnusedDeclarators walks every VariableDeclaration in the tree and
// drops declarators with a zero reference count, not reserved, and whose
// initializer is absent or not a CallExpression (the side-effect guard:
// a declarator initialized by a call might matter for what the call
// does, even if its result is never read). If every declarator in a
// VariableDeclaration is dropped, the statement itself is dropped.
func dropUnusedDeclarators(prog *ast.Program, counts map[string]int) *ast.Program {
	result := ast.Rewrite(prog, func(n ast.Node) interface{} {
		decl, ok := n.(*ast.VariableDeclaration)
		if !ok {
			return n
		}
		var kept []*ast.VariableDeclarator
		for _, d := range decl.Declarations {
			id, ok := d.Id.(*ast.Identifier)
			if !ok {
				kept = append(kept, d)
				continue
			}
			if reserved[id.Name] || counts[id.Name] != 0 {
				kept = append(kept, d)
				continue
			}
			if _, isCall := d.Init.(*ast.CallExpression); isCall {
				kept = append(kept, d)
				continue
			}
			// dropped: unreferenced, not reserved, no side-effecting init
		}
		if len(kept) == 0 {
			return nil
		}
		decl.Declarations = kept
		return decl
	})
	return result.(*ast.Program)
}
