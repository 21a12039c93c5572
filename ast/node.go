// Package ast contains definitions for the in-memory representation of a
// JavaScript program: the node shapes the parser produces, the walker
// traverses, and the generator consumes.
package ast

import "fmt"

// Pos represents a byte position in the original input text from which a
// node was parsed. It is useful for diagnostics.
type Pos int

// Position returns this position. Implemented as a method so embedding
// types fulfill part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// Node is any piece of a JavaScript program.
type Node interface {
	Position() Pos
}

// ParentNode is any Node with descendant nodes, exposed in document order.
// Children returns a fresh slice; callers must not rely on it aliasing any
// internal storage (see Rewrite for the mutable counterpart).
type ParentNode interface {
	Node
	Children() []Node
}

// Every concrete node embeds Pos and carries Parent, refreshed by the
// walker immediately before a handler is invoked on it (see walker.go).
// Parent is advisory: it is never consulted for ownership. No pass in
// this module reads it; the contextual resolver tracks its lexical
// context itself.

// Program is the root of a parsed source file.
type Program struct {
	Pos
	Parent Node
	Body   []Node
}

func (n *Program) Children() []Node { return n.Body }

// Identifier is a bare name: a variable, function, or property reference.
type Identifier struct {
	Pos
	Parent Node
	Name   string
}

func (n *Identifier) Children() []Node { return nil }

// Literal is a string, number, boolean, or null constant.
//
// Value holds int64 for integer literals, float64 for non-integer numeric
// literals, string for string literals, bool for booleans, and nil for
// the null literal. Raw holds the literal's source text (a quoted string
// for string literals) so the generator need not re-derive quoting rules
// for every literal it emits.
type Literal struct {
	Pos
	Parent Node
	Value  interface{}
	Raw    string
}

func (n *Literal) Children() []Node { return nil }

func (n *Literal) String() string {
	return fmt.Sprintf("%v", n.Value)
}

// BinaryExpression covers every two-operand operator the simplifier folds:
// + - * / % < <= > >= == != === !== && || & | ^ << >> >>>. Obfuscators
// emit && and || as ordinary binary operators as often as short-circuit
// ones, so this node serves both roles rather than splitting out a
// separate LogicalExpression tag.
type BinaryExpression struct {
	Pos
	Parent   Node
	Operator string
	Left     Node
	Right    Node
}

func (n *BinaryExpression) Children() []Node { return []Node{n.Left, n.Right} }

// UnaryExpression covers ! - + ~ typeof void delete.
type UnaryExpression struct {
	Pos
	Parent   Node
	Operator string
	Argument Node
	Prefix   bool
}

func (n *UnaryExpression) Children() []Node { return []Node{n.Argument} }

// UpdateExpression covers ++ and --.
type UpdateExpression struct {
	Pos
	Parent   Node
	Operator string
	Argument Node
	Prefix   bool
}

func (n *UpdateExpression) Children() []Node { return []Node{n.Argument} }

// ConditionalExpression is the ternary a ? b : c, heavily used by
// obfuscators to express opaque predicates in expression position.
type ConditionalExpression struct {
	Pos
	Parent     Node
	Test       Node
	Consequent Node
	Alternate  Node
}

func (n *ConditionalExpression) Children() []Node {
	return []Node{n.Test, n.Consequent, n.Alternate}
}

// AssignmentExpression covers = += -= etc.
type AssignmentExpression struct {
	Pos
	Parent   Node
	Operator string
	Left     Node
	Right    Node
}

func (n *AssignmentExpression) Children() []Node { return []Node{n.Left, n.Right} }

// SequenceExpression is the comma operator: a, b, c.
type SequenceExpression struct {
	Pos
	Parent      Node
	Expressions []Node
}

func (n *SequenceExpression) Children() []Node { return n.Expressions }

// CallExpression is f(...args).
type CallExpression struct {
	Pos
	Parent    Node
	Callee    Node
	Arguments []Node
}

func (n *CallExpression) Children() []Node {
	return append([]Node{n.Callee}, n.Arguments...)
}

// NewExpression is new f(...args).
type NewExpression struct {
	Pos
	Parent    Node
	Callee    Node
	Arguments []Node
}

func (n *NewExpression) Children() []Node {
	return append([]Node{n.Callee}, n.Arguments...)
}

// MemberExpression is obj.prop or obj[prop]. Computed is true for the
// bracket form; Property is an *Identifier when Computed is false.
type MemberExpression struct {
	Pos
	Parent   Node
	Object   Node
	Property Node
	Computed bool
}

func (n *MemberExpression) Children() []Node { return []Node{n.Object, n.Property} }

// ArrayExpression is [a, b, c]. A nil element represents an elision
// (a hole in the array literal, e.g. [1, , 3]).
type ArrayExpression struct {
	Pos
	Parent   Node
	Elements []Node
}

func (n *ArrayExpression) Children() []Node {
	var out []Node
	for _, e := range n.Elements {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Property is one key: value entry of an ObjectExpression.
type Property struct {
	Pos
	Parent    Node
	Key       Node
	Value     Node
	Computed  bool
	Shorthand bool
	Kind      string // "init", "get", or "set"
}

func (n *Property) Children() []Node { return []Node{n.Key, n.Value} }

// ObjectExpression is {k: v, ...}.
type ObjectExpression struct {
	Pos
	Parent     Node
	Properties []*Property
}

func (n *ObjectExpression) Children() []Node {
	out := make([]Node, len(n.Properties))
	for i, p := range n.Properties {
		out[i] = p
	}
	return out
}

// FunctionDeclaration declares a named function in the enclosing scope.
type FunctionDeclaration struct {
	Pos
	Parent Node
	Id     *Identifier
	Params []Node
	Body   *BlockStatement
}

func (n *FunctionDeclaration) Children() []Node {
	var out []Node
	if n.Id != nil {
		out = append(out, n.Id)
	}
	out = append(out, n.Params...)
	out = append(out, n.Body)
	return out
}

// FunctionExpression is a function value; its Id, if present, is only
// visible inside its own body.
type FunctionExpression struct {
	Pos
	Parent Node
	Id     *Identifier
	Params []Node
	Body   *BlockStatement
}

func (n *FunctionExpression) Children() []Node {
	var out []Node
	if n.Id != nil {
		out = append(out, n.Id)
	}
	out = append(out, n.Params...)
	out = append(out, n.Body)
	return out
}

// VariableDeclarator is one `name = init` entry of a VariableDeclaration.
type VariableDeclarator struct {
	Pos
	Parent Node
	Id     Node
	Init   Node // may be nil
}

func (n *VariableDeclarator) Children() []Node {
	if n.Init != nil {
		return []Node{n.Id, n.Init}
	}
	return []Node{n.Id}
}

// VariableDeclaration is `var`/`let`/`const` a = 1, b = 2.
type VariableDeclaration struct {
	Pos
	Parent       Node
	Kind         string // "var", "let", or "const"
	Declarations []*VariableDeclarator
}

func (n *VariableDeclaration) Children() []Node {
	out := make([]Node, len(n.Declarations))
	for i, d := range n.Declarations {
		out[i] = d
	}
	return out
}

// BlockStatement is { ...statements }.
type BlockStatement struct {
	Pos
	Parent Node
	Body   []Node
}

func (n *BlockStatement) Children() []Node { return n.Body }

// ExpressionStatement is an expression used as a statement.
type ExpressionStatement struct {
	Pos
	Parent     Node
	Expression Node
}

func (n *ExpressionStatement) Children() []Node { return []Node{n.Expression} }

// IfStatement is if (test) consequent [else alternate].
type IfStatement struct {
	Pos
	Parent     Node
	Test       Node
	Consequent Node
	Alternate  Node // may be nil
}

func (n *IfStatement) Children() []Node {
	if n.Alternate != nil {
		return []Node{n.Test, n.Consequent, n.Alternate}
	}
	return []Node{n.Test, n.Consequent}
}

// ReturnStatement is `return [argument];`.
type ReturnStatement struct {
	Pos
	Parent   Node
	Argument Node // may be nil
}

func (n *ReturnStatement) Children() []Node {
	if n.Argument != nil {
		return []Node{n.Argument}
	}
	return nil
}

// ForStatement is the classic three-clause for loop. Any clause may be nil.
type ForStatement struct {
	Pos
	Parent Node
	Init   Node
	Test   Node
	Update Node
	Body   Node
}

func (n *ForStatement) Children() []Node {
	var out []Node
	for _, c := range []Node{n.Init, n.Test, n.Update, n.Body} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// WhileStatement is while (test) body, or do body while (test) when Do is
// true.
type WhileStatement struct {
	Pos
	Parent Node
	Test   Node
	Body   Node
	Do     bool
}

func (n *WhileStatement) Children() []Node { return []Node{n.Test, n.Body} }

// BreakStatement is `break;`.
type BreakStatement struct {
	Pos
	Parent Node
}

func (n *BreakStatement) Children() []Node { return nil }

// ContinueStatement is `continue;`.
type ContinueStatement struct {
	Pos
	Parent Node
}

func (n *ContinueStatement) Children() []Node { return nil }

// ThrowStatement is `throw argument;`.
type ThrowStatement struct {
	Pos
	Parent   Node
	Argument Node
}

func (n *ThrowStatement) Children() []Node { return []Node{n.Argument} }

// CatchClause is the `catch (param) { body }` part of a TryStatement.
type CatchClause struct {
	Pos
	Parent Node
	Param  Node // may be nil (optional catch binding)
	Body   *BlockStatement
}

func (n *CatchClause) Children() []Node {
	if n.Param != nil {
		return []Node{n.Param, n.Body}
	}
	return []Node{n.Body}
}

// TryStatement is try { block } [catch (e) { ... }] [finally { ... }].
type TryStatement struct {
	Pos
	Parent    Node
	Block     *BlockStatement
	Handler   *CatchClause // may be nil
	Finalizer *BlockStatement // may be nil
}

func (n *TryStatement) Children() []Node {
	out := []Node{n.Block}
	if n.Handler != nil {
		out = append(out, n.Handler)
	}
	if n.Finalizer != nil {
		out = append(out, n.Finalizer)
	}
	return out
}

// SwitchCase is one `case test:` or `default:` arm.
type SwitchCase struct {
	Pos
	Parent     Node
	Test       Node // nil for default
	Consequent []Node
}

func (n *SwitchCase) Children() []Node {
	if n.Test != nil {
		return append([]Node{n.Test}, n.Consequent...)
	}
	return n.Consequent
}

// SwitchStatement is switch (discriminant) { cases }.
type SwitchStatement struct {
	Pos
	Parent       Node
	Discriminant Node
	Cases        []*SwitchCase
}

func (n *SwitchStatement) Children() []Node {
	out := []Node{n.Discriminant}
	for _, c := range n.Cases {
		out = append(out, c)
	}
	return out
}

// EmptyStatement is a bare `;`.
type EmptyStatement struct {
	Pos
	Parent Node
}

func (n *EmptyStatement) Children() []Node { return nil }
