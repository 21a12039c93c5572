// Package sandbox implements component H, the contextual resolver: a pass
// that primes a sandboxed JavaScript interpreter with the obfuscated
// program's top-level declarations, then evaluates selected calls against
// it to recover values only a running interpreter can see (lazily
// installed decoders behind a first-invocation check).
//
// This component is net-new relative to the teacher, but the interpreter
// itself is the same otto VM the teacher drives directly in
// soyjs/exec_test.go; the halt-on-timeout pattern below is otto's own
// documented idiom for bounding a Run call.
package sandbox

import (
	"fmt"
	"time"

	"github.com/robertkrimen/otto"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/errortypes"
	"github.com/robfig/jsdeobfuscate/gen"
	"github.com/robfig/jsdeobfuscate/parse"
)

// PrimeTimeout and CallTimeout are spec.md §5's recommended defaults: 10s
// to run the priming call (which may itself trigger significant work) and
// 500ms per node evaluated during resolution.
const (
	PrimeTimeout = 10 * time.Second
	CallTimeout  = 500 * time.Millisecond
)

// halt is the sentinel panicked into the Interrupt channel to unwind a
// runaway Run call without taking down the process.
type halt struct{}

// Resolver owns one otto.Otto for the lifetime of a single pipeline run.
// It is not safe for concurrent use; each pipeline instance creates its
// own, per spec.md §5's single-owner sandbox policy.
type Resolver struct {
	vm           *otto.Otto
	primeTimeout time.Duration
	callTimeout  time.Duration
}

// Option configures a Resolver at construction. The zero value of New's
// options leaves PrimeTimeout/CallTimeout's package defaults in place.
type Option func(*Resolver)

// WithCallTimeout overrides CallTimeout for one Resolver, the budget
// tryResolve gives each individual dynamic-resolution call.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.callTimeout = d }
}

// New creates a sandbox with console.log stubbed to a no-op, matching
// spec.md §4.H, and primes it against prog. If priming fails, New returns
// a *errortypes.SandboxInitFailure and a nil *Resolver; callers are
// expected to disable §4.H and continue with the static passes only.
func New(prog *ast.Program, opts ...Option) (*Resolver, error) {
	vm := otto.New()
	if _, err := vm.Run(`var console = { log: function() {} };`); err != nil {
		return nil, &errortypes.SandboxInitFailure{Err: err}
	}
	r := &Resolver{vm: vm, primeTimeout: PrimeTimeout, callTimeout: CallTimeout}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.prime(prog); err != nil {
		return nil, &errortypes.SandboxInitFailure{Err: err}
	}
	return r, nil
}

// Close releases the sandbox. otto has no explicit teardown call; this
// drops the only reference to the VM so it becomes collectible, which is
// the native resource release spec.md §5 asks for on every exit path.
// Close is always safe to call, including after a failed New.
func (r *Resolver) Close() {
	if r == nil {
		return
	}
	r.vm = nil
}

// prime removes the final top-level statement (assumed to be the wrapper
// call that kicks off payload execution), evaluates everything before it
// to define the program's top-level functions, and — if that removed
// statement was a bare call to a named function — invokes it with no
// arguments once to force any lazily-installed decoder into existence.
// The removed statement is always restored so later passes still see it.
func (r *Resolver) prime(prog *ast.Program) error {
	if len(prog.Body) == 0 {
		return nil
	}
	last := len(prog.Body) - 1
	trigger := prog.Body[last]
	prog.Body = prog.Body[:last]
	defer func() { prog.Body = append(prog.Body, trigger) }()

	prelude := gen.Generate(&ast.Program{Body: prog.Body})
	if err := r.runWithTimeout(prelude, r.primeTimeout); err != nil {
		return err
	}

	name, ok := triggerName(trigger)
	if !ok {
		return nil
	}
	return r.runWithTimeout(name+"();", r.primeTimeout)
}

// triggerName reports the called identifier's name if stmt is
// ExpressionStatement(CallExpression(Identifier(name), ...)).
func triggerName(stmt ast.Node) (string, bool) {
	es, ok := stmt.(*ast.ExpressionStatement)
	if !ok {
		return "", false
	}
	call, ok := es.Expression.(*ast.CallExpression)
	if !ok {
		return "", false
	}
	id, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// Resolve walks prog once, replacing CallExpressions (and the index
// expression of a computed MemberExpression) whose callee types as
// "function" in the primed sandbox with the Literal the sandbox produces,
// skipping anything lexically inside a FunctionDeclaration or a
// FunctionExpression. Calls that are themselves a top-level ExpressionStatement are
// left alone: evaluating them again would duplicate whatever side effect
// the original program intended to run exactly once.
//
// The traversal is hand-written, in the style of rename and census,
// rather than routed through ast.Rewrite: it needs to track whether the
// current position is lexically inside a function and which
// node is the enclosing statement's top expression, state a single
// default-recurse policy can't thread through.
func (r *Resolver) Resolve(prog *ast.Program) *ast.Program {
	var inFunction int
	var topExpr ast.Node

	var walkStmt func(ast.Node)
	var rewriteExpr func(ast.Node) ast.Node

	walkStmt = func(node ast.Node) {
		switch n := node.(type) {
		case nil:
		case *ast.ExpressionStatement:
			prevTop := topExpr
			topExpr = n.Expression
			n.Expression = rewriteExpr(n.Expression)
			topExpr = prevTop
		case *ast.VariableDeclaration:
			for _, d := range n.Declarations {
				if d.Init != nil {
					d.Init = rewriteExpr(d.Init)
				}
			}
		case *ast.FunctionDeclaration:
			inFunction++
			for _, s := range n.Body.Body {
				walkStmt(s)
			}
			inFunction--
		case *ast.BlockStatement:
			for _, s := range n.Body {
				walkStmt(s)
			}
		case *ast.IfStatement:
			n.Test = rewriteExpr(n.Test)
			walkStmt(n.Consequent)
			walkStmt(n.Alternate)
		case *ast.ReturnStatement:
			n.Argument = rewriteExpr(n.Argument)
		case *ast.ForStatement:
			if decl, ok := n.Init.(*ast.VariableDeclaration); ok {
				walkStmt(decl)
			} else {
				n.Init = rewriteExpr(n.Init)
			}
			n.Test = rewriteExpr(n.Test)
			n.Update = rewriteExpr(n.Update)
			walkStmt(n.Body)
		case *ast.WhileStatement:
			n.Test = rewriteExpr(n.Test)
			walkStmt(n.Body)
		case *ast.ThrowStatement:
			n.Argument = rewriteExpr(n.Argument)
		case *ast.TryStatement:
			walkStmt(n.Block)
			if n.Handler != nil {
				walkStmt(n.Handler.Body)
			}
			if n.Finalizer != nil {
				walkStmt(n.Finalizer)
			}
		case *ast.SwitchStatement:
			n.Discriminant = rewriteExpr(n.Discriminant)
			for _, cs := range n.Cases {
				cs.Test = rewriteExpr(cs.Test)
				for i, s := range cs.Consequent {
					walkStmt(s)
					cs.Consequent[i] = s
				}
			}
		default:
		}
	}

	rewriteExpr = func(node ast.Node) ast.Node {
		if node == nil {
			return node
		}
		switch n := node.(type) {
		case *ast.CallExpression:
			n.Callee = rewriteExpr(n.Callee)
			for i, a := range n.Arguments {
				n.Arguments[i] = rewriteExpr(a)
			}
			if inFunction == 0 && node != topExpr {
				if lit, ok := r.tryResolve(n); ok {
					return lit
				}
			}
			return n
		case *ast.MemberExpression:
			n.Object = rewriteExpr(n.Object)
			if n.Computed {
				_, wasCall := n.Property.(*ast.CallExpression)
				n.Property = rewriteExpr(n.Property)
				// The CallExpression case above already resolved the index
				// call (or left it alone inside a function); a string result
				// becomes a dotted property.
				if lit, ok := n.Property.(*ast.Literal); ok && wasCall {
					if s, isStr := lit.Value.(string); isStr && identifierLike(s) {
						n.Property = &ast.Identifier{Pos: lit.Pos, Name: s}
						n.Computed = false
					}
				}
			} else {
				n.Property = rewriteExpr(n.Property)
			}
			return n
		case *ast.BinaryExpression:
			n.Left = rewriteExpr(n.Left)
			n.Right = rewriteExpr(n.Right)
			return n
		case *ast.UnaryExpression:
			n.Argument = rewriteExpr(n.Argument)
			return n
		case *ast.UpdateExpression:
			n.Argument = rewriteExpr(n.Argument)
			return n
		case *ast.ConditionalExpression:
			n.Test = rewriteExpr(n.Test)
			n.Consequent = rewriteExpr(n.Consequent)
			n.Alternate = rewriteExpr(n.Alternate)
			return n
		case *ast.AssignmentExpression:
			n.Left = rewriteExpr(n.Left)
			n.Right = rewriteExpr(n.Right)
			return n
		case *ast.SequenceExpression:
			for i, e := range n.Expressions {
				n.Expressions[i] = rewriteExpr(e)
			}
			return n
		case *ast.NewExpression:
			n.Callee = rewriteExpr(n.Callee)
			for i, a := range n.Arguments {
				n.Arguments[i] = rewriteExpr(a)
			}
			return n
		case *ast.ArrayExpression:
			for i, e := range n.Elements {
				n.Elements[i] = rewriteExpr(e)
			}
			return n
		case *ast.ObjectExpression:
			for _, p := range n.Properties {
				if p.Computed {
					p.Key = rewriteExpr(p.Key)
				}
				p.Value = rewriteExpr(p.Value)
			}
			return n
		case *ast.FunctionExpression:
			inFunction++
			for _, s := range n.Body.Body {
				walkStmt(s)
			}
			inFunction--
			return n
		default:
			return n
		}
	}

	for _, s := range prog.Body {
		walkStmt(s)
	}
	return prog
}

// tryResolve evaluates call against the sandbox if its callee is a plain
// Identifier that types as "function" there, returning the sandbox's
// result as a Literal when the result is a string, number, or boolean.
func (r *Resolver) tryResolve(call *ast.CallExpression) (*ast.Literal, bool) {
	id, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return nil, false
	}
	typ, err := r.vm.Run(fmt.Sprintf("typeof %s", id.Name))
	if err != nil || typ.String() != "function" {
		return nil, false
	}

	src := gen.Generate(call)
	var result otto.Value
	err = r.runValueWithTimeout(src, r.callTimeout, &result)
	if err != nil {
		return nil, false
	}
	return valueToLiteral(result, call.Pos)
}

func valueToLiteral(v otto.Value, pos ast.Pos) (*ast.Literal, bool) {
	switch {
	case v.IsString():
		return &ast.Literal{Pos: pos, Value: v.String(), Raw: parse.QuoteString(v.String())}, true
	case v.IsNumber():
		f, err := v.ToFloat()
		if err != nil {
			return nil, false
		}
		return &ast.Literal{Pos: pos, Value: f, Raw: v.String()}, true
	case v.IsBoolean():
		b, _ := v.ToBoolean()
		return &ast.Literal{Pos: pos, Value: b, Raw: v.String()}, true
	default:
		return nil, false
	}
}

func identifierLike(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// runWithTimeout runs src and discards its result, used for priming.
func (r *Resolver) runWithTimeout(src string, timeout time.Duration) error {
	return r.runValueWithTimeout(src, timeout, nil)
}

// runValueWithTimeout runs src, interrupting the VM if it outlives
// timeout, and stores the result in out when non-nil. It recovers the
// halt panic used to unwind the interrupted Run call so a timeout never
// escapes as a process-level panic.
func (r *Resolver) runValueWithTimeout(src string, timeout time.Duration, out *otto.Value) (err error) {
	defer func() {
		if caught := recover(); caught != nil {
			if _, ok := caught.(halt); ok {
				err = &errortypes.SandboxEvalFailure{Code: src, Err: fmt.Errorf("timed out after %s", timeout)}
				return
			}
			panic(caught)
		}
	}()

	r.vm.Interrupt = make(chan func(), 1)
	timer := time.AfterFunc(timeout, func() {
		select {
		case r.vm.Interrupt <- func() { panic(halt{}) }:
		default:
		}
	})
	defer timer.Stop()

	val, runErr := r.vm.Run(src)
	if runErr != nil {
		return &errortypes.SandboxEvalFailure{Code: src, Err: runErr}
	}
	if out != nil {
		*out = val
	}
	return nil
}
