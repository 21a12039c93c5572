package ast

import (
	"fmt"
	"log"
	"os"

	"github.com/robfig/jsdeobfuscate/errortypes"
)

// Logger prints a diagnostic when Rewrite's traversal reaches a node type
// none of its cases recognize, the same role pipeline.Logger plays for a
// disabled sandbox.
var Logger = log.New(os.Stderr, "[ast] ", 0)

// Walk and Rewrite are the two traversal modes component A provides: Walk
// for read-only visitation in document order, Rewrite for a bottom-up
// rewrite that may delete, replace, or splice nodes. Both refresh a
// node's immediate children's Parent back-edge immediately before
// descending into them, so a handler inspecting node.Parent always sees
// the edge as of the current rewrite, never a stale one from a prior pass.

// VisitFunc is invoked for every node Walk reaches, in document order,
// including the root. Returning false suppresses descent into this
// node's children (the "handler present, does not recurse further" case);
// returning true lets Walk recurse on its own (the default-handler case).
type VisitFunc func(Node) bool

// Walk traverses node and its descendants in document order, calling
// visit for each. A nil node is a no-op.
func Walk(node Node, visit VisitFunc) {
	if node == nil || isNilNode(node) {
		return
	}
	if !visit(node) {
		return
	}
	p, ok := node.(ParentNode)
	if !ok {
		return
	}
	for _, child := range p.Children() {
		if child == nil || isNilNode(child) {
			continue
		}
		setParent(child, node)
		Walk(child, visit)
	}
}

// RewriteFunc is invoked on a node after its own children have already
// been rewritten. It returns one of:
//   - nil: delete the node from its parent's list; in a scalar slot the
//     slot becomes nil and the containing statement is kept
//   - a Node: substitute it for the original
//   - a []Node: splice it into the parent's list in place of the
//     original; in a scalar slot a single-element list unwraps
type RewriteFunc func(Node) interface{}

// Rewrite applies fn to node and its descendants, bottom-up, and returns
// the (possibly different, possibly nil) replacement for node's own slot.
func Rewrite(node Node, fn RewriteFunc) Node {
	if node == nil || isNilNode(node) {
		return nil
	}
	rewriteChildren(node, fn)
	result := fn(node)
	return asScalar(result)
}

// RewriteList applies fn to every element of list, bottom-up, splicing
// deletions and multi-node replacements into the returned slice.
func RewriteList(list []Node, fn RewriteFunc) []Node {
	var out []Node
	for _, item := range list {
		if item == nil || isNilNode(item) {
			continue
		}
		rewriteChildren(item, fn)
		switch result := fn(item).(type) {
		case nil:
			// omit
		case Node:
			if !isNilNode(result) {
				out = append(out, result)
			}
		case []Node:
			for _, r := range result {
				if r != nil && !isNilNode(r) {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

// asScalar converts a handler's returned value into the single Node (or
// nil) a scalar slot holds, unwrapping a single-element list.
func asScalar(result interface{}) Node {
	switch v := result.(type) {
	case nil:
		return nil
	case Node:
		if isNilNode(v) {
			return nil
		}
		return v
	case []Node:
		if len(v) == 0 {
			return nil
		}
		return v[0]
	default:
		return nil
	}
}

func rewriteScalar(n Node, fn RewriteFunc) Node {
	if n == nil || isNilNode(n) {
		return nil
	}
	return Rewrite(n, fn)
}

// rewriteChildren rewrites node's immediate children in place, refreshing
// each child's Parent edge first. It is the explicit per-type dispatch
// Go's lack of field-by-name reflection requires in place of the
// original's dir()-based generic_visit.
func rewriteChildren(node Node, fn RewriteFunc) {
	switch n := node.(type) {
	case *Program:
		setParentAll(n.Body, n)
		n.Body = RewriteList(n.Body, fn)
	case *Identifier, *Literal, *BreakStatement, *ContinueStatement, *EmptyStatement:
		// leaves
	case *BinaryExpression:
		setParent(n.Left, n)
		setParent(n.Right, n)
		n.Left = rewriteScalar(n.Left, fn)
		n.Right = rewriteScalar(n.Right, fn)
	case *UnaryExpression:
		setParent(n.Argument, n)
		n.Argument = rewriteScalar(n.Argument, fn)
	case *UpdateExpression:
		setParent(n.Argument, n)
		n.Argument = rewriteScalar(n.Argument, fn)
	case *ConditionalExpression:
		setParent(n.Test, n)
		setParent(n.Consequent, n)
		setParent(n.Alternate, n)
		n.Test = rewriteScalar(n.Test, fn)
		n.Consequent = rewriteScalar(n.Consequent, fn)
		n.Alternate = rewriteScalar(n.Alternate, fn)
	case *AssignmentExpression:
		setParent(n.Left, n)
		setParent(n.Right, n)
		n.Left = rewriteScalar(n.Left, fn)
		n.Right = rewriteScalar(n.Right, fn)
	case *SequenceExpression:
		setParentAll(n.Expressions, n)
		n.Expressions = RewriteList(n.Expressions, fn)
	case *CallExpression:
		setParent(n.Callee, n)
		setParentAll(n.Arguments, n)
		n.Callee = rewriteScalar(n.Callee, fn)
		n.Arguments = RewriteList(n.Arguments, fn)
	case *NewExpression:
		setParent(n.Callee, n)
		setParentAll(n.Arguments, n)
		n.Callee = rewriteScalar(n.Callee, fn)
		n.Arguments = RewriteList(n.Arguments, fn)
	case *MemberExpression:
		setParent(n.Object, n)
		setParent(n.Property, n)
		n.Object = rewriteScalar(n.Object, fn)
		n.Property = rewriteScalar(n.Property, fn)
	case *ArrayExpression:
		setParentAll(n.Elements, n)
		// Elements may contain holes (nil); rewrite in place rather than
		// through RewriteList, which would compact them away.
		for i, e := range n.Elements {
			if e == nil || isNilNode(e) {
				continue
			}
			n.Elements[i] = rewriteScalar(e, fn)
		}
	case *Property:
		setParent(n.Key, n)
		setParent(n.Value, n)
		n.Key = rewriteScalar(n.Key, fn)
		n.Value = rewriteScalar(n.Value, fn)
	case *ObjectExpression:
		for _, p := range n.Properties {
			setParent(p, n)
			rewriteChildren(p, fn)
			fn(p) // properties are not themselves splice targets
		}
	case *FunctionDeclaration:
		if n.Id != nil {
			setParent(n.Id, n)
		}
		setParentAll(n.Params, n)
		setParent(n.Body, n)
		n.Params = RewriteList(n.Params, fn)
		if body := rewriteScalar(n.Body, fn); body != nil {
			n.Body = body.(*BlockStatement)
		}
	case *FunctionExpression:
		if n.Id != nil {
			setParent(n.Id, n)
		}
		setParentAll(n.Params, n)
		setParent(n.Body, n)
		n.Params = RewriteList(n.Params, fn)
		if body := rewriteScalar(n.Body, fn); body != nil {
			n.Body = body.(*BlockStatement)
		}
	case *VariableDeclarator:
		setParent(n.Id, n)
		n.Id = rewriteScalar(n.Id, fn)
		if n.Init != nil {
			setParent(n.Init, n)
			n.Init = rewriteScalar(n.Init, fn)
		}
	case *VariableDeclaration:
		for _, d := range n.Declarations {
			setParent(d, n)
		}
		n.Declarations = rewriteDeclarators(n.Declarations, fn)
	case *BlockStatement:
		setParentAll(n.Body, n)
		n.Body = RewriteList(n.Body, fn)
	case *ExpressionStatement:
		setParent(n.Expression, n)
		n.Expression = rewriteScalar(n.Expression, fn)
	case *IfStatement:
		setParent(n.Test, n)
		setParent(n.Consequent, n)
		n.Test = rewriteScalar(n.Test, fn)
		n.Consequent = rewriteScalar(n.Consequent, fn)
		if n.Alternate != nil {
			setParent(n.Alternate, n)
			n.Alternate = rewriteScalar(n.Alternate, fn)
		}
	case *ReturnStatement:
		if n.Argument != nil {
			setParent(n.Argument, n)
			n.Argument = rewriteScalar(n.Argument, fn)
		}
	case *ForStatement:
		for _, c := range []Node{n.Init, n.Test, n.Update, n.Body} {
			if c != nil {
				setParent(c, n)
			}
		}
		n.Init = rewriteScalar(n.Init, fn)
		n.Test = rewriteScalar(n.Test, fn)
		n.Update = rewriteScalar(n.Update, fn)
		n.Body = rewriteScalar(n.Body, fn)
	case *WhileStatement:
		setParent(n.Test, n)
		setParent(n.Body, n)
		n.Test = rewriteScalar(n.Test, fn)
		n.Body = rewriteScalar(n.Body, fn)
	case *ThrowStatement:
		setParent(n.Argument, n)
		n.Argument = rewriteScalar(n.Argument, fn)
	case *CatchClause:
		if n.Param != nil {
			setParent(n.Param, n)
			n.Param = rewriteScalar(n.Param, fn)
		}
		setParent(n.Body, n)
		if body := rewriteScalar(n.Body, fn); body != nil {
			n.Body = body.(*BlockStatement)
		}
	case *TryStatement:
		setParent(n.Block, n)
		if block := rewriteScalar(n.Block, fn); block != nil {
			n.Block = block.(*BlockStatement)
		}
		if n.Handler != nil {
			setParent(n.Handler, n)
			rewriteChildren(n.Handler, fn)
			fn(n.Handler)
		}
		if n.Finalizer != nil {
			setParent(n.Finalizer, n)
			if f := rewriteScalar(n.Finalizer, fn); f != nil {
				n.Finalizer = f.(*BlockStatement)
			}
		}
	case *SwitchCase:
		if n.Test != nil {
			setParent(n.Test, n)
			n.Test = rewriteScalar(n.Test, fn)
		}
		setParentAll(n.Consequent, n)
		n.Consequent = RewriteList(n.Consequent, fn)
	case *SwitchStatement:
		setParent(n.Discriminant, n)
		n.Discriminant = rewriteScalar(n.Discriminant, fn)
		for _, c := range n.Cases {
			setParent(c, n)
			rewriteChildren(c, fn)
			fn(c)
		}
	default:
		// Unknown node kind: treated as a leaf, the pass that doesn't
		// recognize it leaves it alone rather than aborting traversal.
		Logger.Print(&errortypes.MalformedAST{
			Pass:   "rewrite",
			Detail: fmt.Sprintf("unrecognized node type %T has no child-rewrite case", node),
		})
	}
}

func rewriteDeclarators(decls []*VariableDeclarator, fn RewriteFunc) []*VariableDeclarator {
	var out []*VariableDeclarator
	for _, d := range decls {
		rewriteChildren(d, fn)
		switch result := fn(d).(type) {
		case nil:
			// drop this declarator
		case *VariableDeclarator:
			out = append(out, result)
		case Node:
			if vd, ok := result.(*VariableDeclarator); ok {
				out = append(out, vd)
			}
		}
	}
	return out
}

func setParentAll(children []Node, parent Node) {
	for _, c := range children {
		if c != nil {
			setParent(c, parent)
		}
	}
}

// setParent assigns parent's back-edge on child, if child is a recognized
// node kind (every one defined in node.go is).
func setParent(child Node, parent Node) {
	if child == nil {
		return
	}
	switch n := child.(type) {
	case *Program:
		n.Parent = parent
	case *Identifier:
		n.Parent = parent
	case *Literal:
		n.Parent = parent
	case *BinaryExpression:
		n.Parent = parent
	case *UnaryExpression:
		n.Parent = parent
	case *UpdateExpression:
		n.Parent = parent
	case *ConditionalExpression:
		n.Parent = parent
	case *AssignmentExpression:
		n.Parent = parent
	case *SequenceExpression:
		n.Parent = parent
	case *CallExpression:
		n.Parent = parent
	case *NewExpression:
		n.Parent = parent
	case *MemberExpression:
		n.Parent = parent
	case *ArrayExpression:
		n.Parent = parent
	case *Property:
		n.Parent = parent
	case *ObjectExpression:
		n.Parent = parent
	case *FunctionDeclaration:
		n.Parent = parent
	case *FunctionExpression:
		n.Parent = parent
	case *VariableDeclarator:
		n.Parent = parent
	case *VariableDeclaration:
		n.Parent = parent
	case *BlockStatement:
		n.Parent = parent
	case *ExpressionStatement:
		n.Parent = parent
	case *IfStatement:
		n.Parent = parent
	case *ReturnStatement:
		n.Parent = parent
	case *ForStatement:
		n.Parent = parent
	case *WhileStatement:
		n.Parent = parent
	case *BreakStatement:
		n.Parent = parent
	case *ContinueStatement:
		n.Parent = parent
	case *ThrowStatement:
		n.Parent = parent
	case *CatchClause:
		n.Parent = parent
	case *TryStatement:
		n.Parent = parent
	case *SwitchCase:
		n.Parent = parent
	case *SwitchStatement:
		n.Parent = parent
	case *EmptyStatement:
		n.Parent = parent
	}
}

// isNilNode reports whether node is a typed nil pointer (e.g. a
// (*ast.Literal)(nil) stored in a Node interface), which == nil does not
// catch but which the walker must still treat as absent.
func isNilNode(node Node) bool {
	switch n := node.(type) {
	case *Program:
		return n == nil
	case *Identifier:
		return n == nil
	case *Literal:
		return n == nil
	case *BinaryExpression:
		return n == nil
	case *UnaryExpression:
		return n == nil
	case *UpdateExpression:
		return n == nil
	case *ConditionalExpression:
		return n == nil
	case *AssignmentExpression:
		return n == nil
	case *SequenceExpression:
		return n == nil
	case *CallExpression:
		return n == nil
	case *NewExpression:
		return n == nil
	case *MemberExpression:
		return n == nil
	case *ArrayExpression:
		return n == nil
	case *Property:
		return n == nil
	case *ObjectExpression:
		return n == nil
	case *FunctionDeclaration:
		return n == nil
	case *FunctionExpression:
		return n == nil
	case *VariableDeclarator:
		return n == nil
	case *VariableDeclaration:
		return n == nil
	case *BlockStatement:
		return n == nil
	case *ExpressionStatement:
		return n == nil
	case *IfStatement:
		return n == nil
	case *ReturnStatement:
		return n == nil
	case *ForStatement:
		return n == nil
	case *WhileStatement:
		return n == nil
	case *BreakStatement:
		return n == nil
	case *ContinueStatement:
		return n == nil
	case *ThrowStatement:
		return n == nil
	case *CatchClause:
		return n == nil
	case *TryStatement:
		return n == nil
	case *SwitchCase:
		return n == nil
	case *SwitchStatement:
		return n == nil
	case *EmptyStatement:
		return n == nil
	default:
		return false
	}
}
