package rename

import (
	"fmt"
	"regexp"

	"github.com/robfig/jsdeobfuscate/ast"
)

var (
	hexTag    = regexp.MustCompile(`^_0x[0-9a-fA-F]+$`)
	homoglyph = regexp.MustCompile(`^[Il1O0]+$`)
	whitelist = map[string]bool{
		"i": true, "j": true, "k": true, "t": true,
		"a": true, "b": true, "c": true,
		"x": true, "y": true, "z": true,
	}
)

// qualifies reports whether name looks obfuscator-generated rather than
// author-chosen, per spec.md §4.D's three rules.
func qualifies(name string) bool {
	if hexTag.MatchString(name) {
		return true
	}
	if len(name) <= 2 && !whitelist[name] {
		return true
	}
	if len(name) > 2 && homoglyph.MatchString(name) {
		return true
	}
	return false
}

// Renamed records one qualifying declaration's old and new name, in the
// order renaming happened, for the pipeline report.
type Renamed struct {
	Old string
	New string
}

// Renamer walks a program once, assigning var_<n> names to qualifying
// declarations (each statement list's FunctionDeclaration names first,
// by hoist, then the rest in document order) and rewriting every resolvable
// reference to match, using a scope stack (scope.go) pushed on function
// entry and popped on exit.
type Renamer struct {
	sc      *scope
	n       int
	Renamed []Renamed
}

// Rename renames prog in place and returns the list of renames applied,
// in assignment order, for reporting.
func Rename(prog *ast.Program) []Renamed {
	r := &Renamer{sc: newScope()}
	r.hoist(prog.Body)
	for _, s := range prog.Body {
		r.stmt(s)
	}
	return r.Renamed
}

// hoist declares every FunctionDeclaration's name into the
// current scope before any statement in body is processed, matching JS
// function hoisting: a call to _0xabc() preceding its own
// `function _0xabc(){}` must still resolve to the same mapping the
// declaration itself receives (spec.md §9). Declaring here is safe to
// repeat: when stmt later reaches the same FunctionDeclaration, declare
// finds the name already mapped in this scope and reuses it rather than
// minting a second var_<n>.
func (r *Renamer) hoist(body []ast.Node) {
	for _, s := range body {
		if fn, ok := s.(*ast.FunctionDeclaration); ok && fn.Id != nil {
			fn.Id.Name = r.declare(fn.Id.Name)
		}
	}
}

// declare assigns name a (possibly new) mapping in the current scope and
// returns the name to use going forward. Re-declaring the same name in
// the same scope reuses its existing mapping rather than minting a
// second var_<n>.
func (r *Renamer) declare(name string) string {
	if mapped, ok := r.sc.current(name); ok {
		return mapped
	}
	mapped := name
	if qualifies(name) {
		mapped = fmt.Sprintf("var_%d", r.n)
		r.n++
		r.Renamed = append(r.Renamed, Renamed{Old: name, New: mapped})
	}
	r.sc.declare(name, mapped)
	return mapped
}

// reference renames an Identifier used as a value reference, leaving it
// untouched if no enclosing scope declared it (an implicit global, or a
// name the static passes can't resolve).
func (r *Renamer) reference(id *ast.Identifier) {
	if mapped, ok := r.sc.lookup(id.Name); ok {
		id.Name = mapped
	}
}

func (r *Renamer) stmt(node ast.Node) {
	switch n := node.(type) {
	case nil:
	case *ast.VariableDeclaration:
		for _, d := range n.Declarations {
			if d.Init != nil {
				r.expr(d.Init)
			}
			if id, ok := d.Id.(*ast.Identifier); ok {
				id.Name = r.declare(id.Name)
			}
		}
	case *ast.FunctionDeclaration:
		// n.Id was already declared and renamed by hoist, which runs
		// before this statement list's first stmt call.
		r.enterFunction(n.Params, n.Body, nil)
	case *ast.BlockStatement:
		r.hoist(n.Body)
		for _, s := range n.Body {
			r.stmt(s)
		}
	case *ast.ExpressionStatement:
		r.expr(n.Expression)
	case *ast.IfStatement:
		r.expr(n.Test)
		r.stmt(n.Consequent)
		r.stmt(n.Alternate)
	case *ast.ReturnStatement:
		r.expr(n.Argument)
	case *ast.ForStatement:
		r.stmt(n.Init)
		r.expr(n.Test)
		r.expr(n.Update)
		r.stmt(n.Body)
	case *ast.WhileStatement:
		r.expr(n.Test)
		r.stmt(n.Body)
	case *ast.ThrowStatement:
		r.expr(n.Argument)
	case *ast.TryStatement:
		r.stmt(n.Block)
		if n.Handler != nil {
			if id, ok := n.Handler.Param.(*ast.Identifier); ok {
				id.Name = r.declare(id.Name)
			}
			r.stmt(n.Handler.Body)
		}
		if n.Finalizer != nil {
			r.stmt(n.Finalizer)
		}
	case *ast.SwitchStatement:
		r.expr(n.Discriminant)
		for _, c := range n.Cases {
			r.hoist(c.Consequent)
		}
		for _, c := range n.Cases {
			r.expr(c.Test)
			for _, s := range c.Consequent {
				r.stmt(s)
			}
		}
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.EmptyStatement:
		// no bindings, no references
	default:
		// An expression used where a statement is expected (ForStatement's
		// Init slot stores a bare expression, not an ExpressionStatement).
		r.expr(node)
	}
}

// enterFunction pushes a new scope, declares params and (if given) the
// function's own expression-local name, processes the body, then pops.
// exprName is only passed for FunctionExpression, whose name is
// visible solely inside its own body (spec.md §4.D).
func (r *Renamer) enterFunction(params []ast.Node, body *ast.BlockStatement, exprName *ast.Identifier) {
	r.sc.push()
	if exprName != nil {
		exprName.Name = r.declare(exprName.Name)
	}
	for _, p := range params {
		if id, ok := p.(*ast.Identifier); ok {
			id.Name = r.declare(id.Name)
		}
	}
	r.hoist(body.Body)
	for _, s := range body.Body {
		r.stmt(s)
	}
	r.sc.pop()
}

func (r *Renamer) expr(node ast.Node) {
	switch n := node.(type) {
	case nil:
	case *ast.Identifier:
		r.reference(n)
	case *ast.Literal:
	case *ast.BinaryExpression:
		r.expr(n.Left)
		r.expr(n.Right)
	case *ast.UnaryExpression:
		r.expr(n.Argument)
	case *ast.UpdateExpression:
		r.expr(n.Argument)
	case *ast.ConditionalExpression:
		r.expr(n.Test)
		r.expr(n.Consequent)
		r.expr(n.Alternate)
	case *ast.AssignmentExpression:
		r.expr(n.Left)
		r.expr(n.Right)
	case *ast.SequenceExpression:
		for _, e := range n.Expressions {
			r.expr(e)
		}
	case *ast.CallExpression:
		r.expr(n.Callee)
		for _, a := range n.Arguments {
			r.expr(a)
		}
	case *ast.NewExpression:
		r.expr(n.Callee)
		for _, a := range n.Arguments {
			r.expr(a)
		}
	case *ast.MemberExpression:
		r.expr(n.Object)
		if n.Computed {
			r.expr(n.Property)
		}
		// Non-computed property is a field name, not a variable reference:
		// never renamed.
	case *ast.ArrayExpression:
		for _, e := range n.Elements {
			r.expr(e)
		}
	case *ast.ObjectExpression:
		for _, p := range n.Properties {
			if p.Computed {
				r.expr(p.Key)
			}
			r.expr(p.Value)
		}
	case *ast.FunctionExpression:
		r.enterFunction(n.Params, n.Body, n.Id)
	default:
		// Not a recognized expression shape; leave it alone.
	}
}
