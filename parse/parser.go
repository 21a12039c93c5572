// Package parse converts JavaScript source text into the in-memory AST
// (package ast). It is a deliberately small collaborator: spec.md treats
// parsing as externally supplied, but a self-contained module needs a
// real one to exercise against. Grounded on robfig/soy's parse/parse.go:
// a two-token-lookahead recursive-descent tree over a stateFn lexer, with
// panic/recover turned into a returned error at the API boundary.
package parse

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/robfig/jsdeobfuscate/ast"
	"github.com/robfig/jsdeobfuscate/errortypes"
)

// tree is the parser's working state for a single source file.
type tree struct {
	name      string
	text      string
	lex       *lexer
	token     [2]item
	peekCount int
}

// Program parses text into a *ast.Program. tolerant controls nothing yet
// (the parser's grammar subset is fixed), but the parameter documents the
// spec's "tolerant-mode parsing recommended" guidance for a future, richer
// grammar: a caller that wants best-effort recovery rather than abort on
// the first malformed construct passes true and inspects err for an
// *errortypes.ParseFailure it may choose to ignore.
func Program(name, text string, tolerant bool) (prog *ast.Program, err error) {
	t := &tree{name: name, text: text, lex: lex(name, text)}
	defer t.recover(&err)
	var body []ast.Node
	for {
		tok := t.peek()
		if tok.typ == itemEOF {
			break
		}
		body = append(body, t.parseStatement())
	}
	return &ast.Program{Body: body}, nil
}

// --- token plumbing -------------------------------------------------------

func (t *tree) next() item {
	if t.peekCount > 0 {
		t.peekCount--
	} else {
		t.token[0] = t.lex.nextItem()
	}
	return t.token[t.peekCount]
}

func (t *tree) backup() {
	t.peekCount++
}

func (t *tree) peek() item {
	if t.peekCount > 0 {
		return t.token[t.peekCount-1]
	}
	t.peekCount = 1
	t.token[0] = t.lex.nextItem()
	return t.token[0]
}

func (t *tree) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	t.lex = nil
	if pf, ok := e.(*errortypes.ParseFailure); ok {
		*errp = pf
		return
	}
	*errp = fmt.Errorf("%v", e)
}

func (t *tree) errorf(format string, args ...interface{}) {
	tok := t.token[0]
	if t.peekCount > 0 {
		tok = t.token[t.peekCount-1]
	}
	line, col := t.lineCol(tok.pos)
	panic(&errortypes.ParseFailure{
		File: t.name,
		Line: line,
		Col:  col,
		Err:  fmt.Errorf(format, args...),
	})
}

func (t *tree) lineCol(pos ast.Pos) (line, col int) {
	line = 1
	lastNL := -1
	for i := 0; i < int(pos) && i < len(t.text); i++ {
		if t.text[i] == '\n' {
			line++
			lastNL = i
		}
	}
	return line, int(pos) - lastNL
}

func (t *tree) isPunct(it item, val string) bool { return it.typ == itemPunct && it.val == val }
func (t *tree) isKeyword(it item, val string) bool { return it.typ == itemKeyword && it.val == val }

func (t *tree) acceptPunct(val string) bool {
	if t.isPunct(t.peek(), val) {
		t.next()
		return true
	}
	return false
}

func (t *tree) acceptKeyword(val string) bool {
	if t.isKeyword(t.peek(), val) {
		t.next()
		return true
	}
	return false
}

func (t *tree) expectPunct(val, context string) item {
	tok := t.next()
	if !t.isPunct(tok, val) {
		t.errorf("expected %q in %s, got %v", val, context, tok)
	}
	return tok
}

func (t *tree) expectIdent(context string) item {
	tok := t.next()
	if tok.typ != itemIdent {
		t.errorf("expected identifier in %s, got %v", context, tok)
	}
	return tok
}

// semicolon consumes an optional trailing ';' (automatic-semicolon-
// insertion is not modeled; obfuscator output is machine-generated and
// always terminates statements explicitly, but we tolerate a missing one
// at a block/program boundary).
func (t *tree) semicolon() {
	t.acceptPunct(";")
}

// --- statements ------------------------------------------------------------

func (t *tree) parseStatement() ast.Node {
	tok := t.peek()
	switch {
	case t.isPunct(tok, "{"):
		return t.parseBlock()
	case t.isPunct(tok, ";"):
		t.next()
		return &ast.EmptyStatement{Pos: tok.pos}
	case t.isKeyword(tok, "var") || t.isKeyword(tok, "let") || t.isKeyword(tok, "const"):
		d := t.parseVariableDeclaration()
		t.semicolon()
		return d
	case t.isKeyword(tok, "function"):
		return t.parseFunction(true)
	case t.isKeyword(tok, "if"):
		return t.parseIf()
	case t.isKeyword(tok, "for"):
		return t.parseFor()
	case t.isKeyword(tok, "while"):
		return t.parseWhile()
	case t.isKeyword(tok, "do"):
		return t.parseDoWhile()
	case t.isKeyword(tok, "return"):
		return t.parseReturn()
	case t.isKeyword(tok, "break"):
		t.next()
		t.semicolon()
		return &ast.BreakStatement{Pos: tok.pos}
	case t.isKeyword(tok, "continue"):
		t.next()
		t.semicolon()
		return &ast.ContinueStatement{Pos: tok.pos}
	case t.isKeyword(tok, "throw"):
		t.next()
		arg := t.parseExpression()
		t.semicolon()
		return &ast.ThrowStatement{Pos: tok.pos, Argument: arg}
	case t.isKeyword(tok, "try"):
		return t.parseTry()
	case t.isKeyword(tok, "switch"):
		return t.parseSwitch()
	default:
		expr := t.parseExpression()
		t.semicolon()
		return &ast.ExpressionStatement{Pos: tok.pos, Expression: expr}
	}
}

func (t *tree) parseBlock() *ast.BlockStatement {
	open := t.expectPunct("{", "block")
	var body []ast.Node
	for !t.isPunct(t.peek(), "}") {
		if t.peek().typ == itemEOF {
			t.errorf("unterminated block")
		}
		body = append(body, t.parseStatement())
	}
	t.next() // "}"
	return &ast.BlockStatement{Pos: open.pos, Body: body}
}

func (t *tree) parseVariableDeclaration() *ast.VariableDeclaration {
	kindTok := t.next() // var/let/const
	var decls []*ast.VariableDeclarator
	for {
		nameTok := t.expectIdent("variable declaration")
		id := &ast.Identifier{Pos: nameTok.pos, Name: nameTok.val}
		var init ast.Node
		if t.acceptPunct("=") {
			init = t.parseAssignment()
		}
		decls = append(decls, &ast.VariableDeclarator{Pos: nameTok.pos, Id: id, Init: init})
		if !t.acceptPunct(",") {
			break
		}
	}
	return &ast.VariableDeclaration{Pos: kindTok.pos, Kind: kindTok.val, Declarations: decls}
}

func (t *tree) parseFunction(declaration bool) ast.Node {
	kw := t.next() // "function"
	var id *ast.Identifier
	if t.peek().typ == itemIdent {
		nameTok := t.next()
		id = &ast.Identifier{Pos: nameTok.pos, Name: nameTok.val}
	} else if declaration {
		t.errorf("function declaration requires a name")
	}
	t.expectPunct("(", "function parameter list")
	var params []ast.Node
	for !t.isPunct(t.peek(), ")") {
		p := t.expectIdent("function parameter")
		params = append(params, &ast.Identifier{Pos: p.pos, Name: p.val})
		if !t.acceptPunct(",") {
			break
		}
	}
	t.expectPunct(")", "function parameter list")
	body := t.parseBlock()
	if declaration {
		return &ast.FunctionDeclaration{Pos: kw.pos, Id: id, Params: params, Body: body}
	}
	return &ast.FunctionExpression{Pos: kw.pos, Id: id, Params: params, Body: body}
}

func (t *tree) parseIf() ast.Node {
	kw := t.next()
	t.expectPunct("(", "if condition")
	test := t.parseExpression()
	t.expectPunct(")", "if condition")
	cons := t.parseStatement()
	var alt ast.Node
	if t.acceptKeyword("else") {
		alt = t.parseStatement()
	}
	return &ast.IfStatement{Pos: kw.pos, Test: test, Consequent: cons, Alternate: alt}
}

func (t *tree) parseFor() ast.Node {
	kw := t.next()
	t.expectPunct("(", "for clause")
	var init ast.Node
	switch tok := t.peek(); {
	case t.isPunct(tok, ";"):
		// no init
	case t.isKeyword(tok, "var") || t.isKeyword(tok, "let") || t.isKeyword(tok, "const"):
		init = t.parseVariableDeclaration()
	default:
		init = &ast.ExpressionStatement{Pos: tok.pos, Expression: t.parseExpression()}
	}
	t.expectPunct(";", "for clause")
	var test ast.Node
	if !t.isPunct(t.peek(), ";") {
		test = t.parseExpression()
	}
	t.expectPunct(";", "for clause")
	var update ast.Node
	if !t.isPunct(t.peek(), ")") {
		update = t.parseExpression()
	}
	t.expectPunct(")", "for clause")
	body := t.parseStatement()
	var initNode ast.Node = init
	if es, ok := init.(*ast.ExpressionStatement); ok {
		initNode = es.Expression
	}
	return &ast.ForStatement{Pos: kw.pos, Init: initNode, Test: test, Update: update, Body: body}
}

func (t *tree) parseWhile() ast.Node {
	kw := t.next()
	t.expectPunct("(", "while condition")
	test := t.parseExpression()
	t.expectPunct(")", "while condition")
	body := t.parseStatement()
	return &ast.WhileStatement{Pos: kw.pos, Test: test, Body: body}
}

func (t *tree) parseDoWhile() ast.Node {
	kw := t.next()
	body := t.parseStatement()
	if !t.acceptKeyword("while") {
		t.errorf("expected 'while' to close do-while statement")
	}
	t.expectPunct("(", "do-while condition")
	test := t.parseExpression()
	t.expectPunct(")", "do-while condition")
	t.semicolon()
	return &ast.WhileStatement{Pos: kw.pos, Test: test, Body: body, Do: true}
}

func (t *tree) parseReturn() ast.Node {
	kw := t.next()
	var arg ast.Node
	if !t.isPunct(t.peek(), ";") && !t.isPunct(t.peek(), "}") && t.peek().typ != itemEOF {
		arg = t.parseExpression()
	}
	t.semicolon()
	return &ast.ReturnStatement{Pos: kw.pos, Argument: arg}
}

func (t *tree) parseTry() ast.Node {
	kw := t.next()
	block := t.parseBlock()
	var handler *ast.CatchClause
	var finalizer *ast.BlockStatement
	if t.acceptKeyword("catch") {
		catchPos := t.token[0].pos
		var param ast.Node
		if t.acceptPunct("(") {
			p := t.expectIdent("catch parameter")
			param = &ast.Identifier{Pos: p.pos, Name: p.val}
			t.expectPunct(")", "catch parameter")
		}
		body := t.parseBlock()
		handler = &ast.CatchClause{Pos: catchPos, Param: param, Body: body}
	}
	if t.acceptKeyword("finally") {
		finalizer = t.parseBlock()
	}
	return &ast.TryStatement{Pos: kw.pos, Block: block, Handler: handler, Finalizer: finalizer}
}

func (t *tree) parseSwitch() ast.Node {
	kw := t.next()
	t.expectPunct("(", "switch discriminant")
	disc := t.parseExpression()
	t.expectPunct(")", "switch discriminant")
	t.expectPunct("{", "switch body")
	var cases []*ast.SwitchCase
	for !t.isPunct(t.peek(), "}") {
		var test ast.Node
		casePos := t.peek().pos
		if t.acceptKeyword("case") {
			test = t.parseExpression()
		} else if !t.acceptKeyword("default") {
			t.errorf("expected 'case' or 'default' in switch body")
		}
		t.expectPunct(":", "switch case")
		var body []ast.Node
		for !t.isPunct(t.peek(), "}") && !t.isKeyword(t.peek(), "case") && !t.isKeyword(t.peek(), "default") {
			body = append(body, t.parseStatement())
		}
		cases = append(cases, &ast.SwitchCase{Pos: casePos, Test: test, Consequent: body})
	}
	t.next() // "}"
	return &ast.SwitchStatement{Pos: kw.pos, Discriminant: disc, Cases: cases}
}

// --- expressions -----------------------------------------------------------
//
// Precedence climbs from parseExpression (comma) down through assignment,
// conditional, binary operator tiers, unary, and finally postfix/primary —
// the standard recursive-descent ladder.

func (t *tree) parseExpression() ast.Node {
	first := t.parseAssignment()
	if !t.isPunct(t.peek(), ",") {
		return first
	}
	exprs := []ast.Node{first}
	for t.acceptPunct(",") {
		exprs = append(exprs, t.parseAssignment())
	}
	return &ast.SequenceExpression{Pos: first.Position(), Expressions: exprs}
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true, ">>>=": true,
}

func (t *tree) parseAssignment() ast.Node {
	left := t.parseConditional()
	tok := t.peek()
	if tok.typ == itemPunct && assignOps[tok.val] {
		t.next()
		right := t.parseAssignment()
		return &ast.AssignmentExpression{Pos: left.Position(), Operator: tok.val, Left: left, Right: right}
	}
	return left
}

func (t *tree) parseConditional() ast.Node {
	test := t.parseBinary(0)
	if t.acceptPunct("?") {
		cons := t.parseAssignment()
		t.expectPunct(":", "conditional expression")
		alt := t.parseAssignment()
		return &ast.ConditionalExpression{Pos: test.Position(), Test: test, Consequent: cons, Alternate: alt}
	}
	return test
}

// binaryPrecedence maps every operator the simplifier folds (spec.md
// §4.E) to its binding power; higher binds tighter.
var binaryPrecedence = map[string]int{
	"||": 1, "??": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6, "===": 6, "!==": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7, "instanceof": 7, "in": 7,
	"<<": 8, ">>": 8, ">>>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (t *tree) parseBinary(minPrec int) ast.Node {
	left := t.parseUnary()
	for {
		tok := t.peek()
		op := tok.val
		if tok.typ != itemPunct && !(tok.typ == itemKeyword && (op == "instanceof" || op == "in")) {
			return left
		}
		prec, ok := binaryPrecedence[op]
		if !ok || prec < minPrec {
			return left
		}
		t.next()
		right := t.parseBinary(prec + 1)
		left = &ast.BinaryExpression{Pos: left.Position(), Operator: op, Left: left, Right: right}
	}
}

func (t *tree) parseUnary() ast.Node {
	tok := t.peek()
	switch {
	case t.isPunct(tok, "!") || t.isPunct(tok, "-") || t.isPunct(tok, "+") || t.isPunct(tok, "~"):
		t.next()
		arg := t.parseUnary()
		return &ast.UnaryExpression{Pos: tok.pos, Operator: tok.val, Argument: arg, Prefix: true}
	case t.isKeyword(tok, "typeof") || t.isKeyword(tok, "void") || t.isKeyword(tok, "delete"):
		t.next()
		arg := t.parseUnary()
		return &ast.UnaryExpression{Pos: tok.pos, Operator: tok.val, Argument: arg, Prefix: true}
	case t.isPunct(tok, "++") || t.isPunct(tok, "--"):
		t.next()
		arg := t.parseUnary()
		return &ast.UpdateExpression{Pos: tok.pos, Operator: tok.val, Argument: arg, Prefix: true}
	default:
		return t.parsePostfix()
	}
}

func (t *tree) parsePostfix() ast.Node {
	expr := t.parseCallOrMember()
	tok := t.peek()
	if t.isPunct(tok, "++") || t.isPunct(tok, "--") {
		t.next()
		return &ast.UpdateExpression{Pos: expr.Position(), Operator: tok.val, Argument: expr, Prefix: false}
	}
	return expr
}

func (t *tree) parseCallOrMember() ast.Node {
	var expr ast.Node
	if t.acceptKeyword("new") {
		callee := t.parseCallOrMemberNoCall()
		var args []ast.Node
		if t.acceptPunct("(") {
			args = t.parseArguments()
		}
		expr = &ast.NewExpression{Pos: callee.Position(), Callee: callee, Arguments: args}
	} else {
		expr = t.parsePrimary()
	}
	for {
		switch {
		case t.acceptPunct("."):
			nameTok := t.expectIdent("member property")
			expr = &ast.MemberExpression{
				Pos: expr.Position(), Object: expr, Computed: false,
				Property: &ast.Identifier{Pos: nameTok.pos, Name: nameTok.val},
			}
		case t.acceptPunct("["):
			prop := t.parseExpression()
			t.expectPunct("]", "computed member access")
			expr = &ast.MemberExpression{Pos: expr.Position(), Object: expr, Computed: true, Property: prop}
		case t.isPunct(t.peek(), "("):
			t.next()
			args := t.parseArguments()
			expr = &ast.CallExpression{Pos: expr.Position(), Callee: expr, Arguments: args}
		default:
			return expr
		}
	}
}

// parseCallOrMemberNoCall parses the callee of a `new` expression: member
// access binds, but a following `(` belongs to the `new` itself, not to a
// nested call on the callee.
func (t *tree) parseCallOrMemberNoCall() ast.Node {
	expr := t.parsePrimary()
	for {
		switch {
		case t.acceptPunct("."):
			nameTok := t.expectIdent("member property")
			expr = &ast.MemberExpression{
				Pos: expr.Position(), Object: expr, Computed: false,
				Property: &ast.Identifier{Pos: nameTok.pos, Name: nameTok.val},
			}
		case t.acceptPunct("["):
			prop := t.parseExpression()
			t.expectPunct("]", "computed member access")
			expr = &ast.MemberExpression{Pos: expr.Position(), Object: expr, Computed: true, Property: prop}
		default:
			return expr
		}
	}
}

func (t *tree) parseArguments() []ast.Node {
	var args []ast.Node
	for !t.isPunct(t.peek(), ")") {
		args = append(args, t.parseAssignment())
		if !t.acceptPunct(",") {
			break
		}
	}
	t.expectPunct(")", "argument list")
	return args
}

func (t *tree) parsePrimary() ast.Node {
	tok := t.next()
	switch {
	case tok.typ == itemIdent:
		return &ast.Identifier{Pos: tok.pos, Name: tok.val}
	case tok.typ == itemKeyword && tok.val == "this":
		return &ast.Identifier{Pos: tok.pos, Name: "this"}
	case tok.typ == itemKeyword && tok.val == "function":
		t.backup()
		return t.parseFunction(false)
	case tok.typ == itemNumber:
		return &ast.Literal{Pos: tok.pos, Value: parseNumber(tok.val), Raw: tok.val}
	case tok.typ == itemString:
		unquoted, err := unquoteString(tok.val)
		if err != nil {
			t.errorf("invalid string literal %s: %v", tok.val, err)
		}
		return &ast.Literal{Pos: tok.pos, Value: unquoted, Raw: tok.val}
	case tok.typ == itemBool:
		return &ast.Literal{Pos: tok.pos, Value: tok.val == "true", Raw: tok.val}
	case tok.typ == itemNull:
		return &ast.Literal{Pos: tok.pos, Value: nil, Raw: "null"}
	case t.isPunct(tok, "("):
		expr := t.parseExpression()
		t.expectPunct(")", "parenthesized expression")
		return expr
	case t.isPunct(tok, "["):
		return t.parseArrayLiteral(tok)
	case t.isPunct(tok, "{"):
		return t.parseObjectLiteral(tok)
	default:
		t.errorf("unexpected token %v in expression", tok)
		return nil
	}
}

func (t *tree) parseArrayLiteral(open item) ast.Node {
	var elements []ast.Node
	for !t.isPunct(t.peek(), "]") {
		if t.isPunct(t.peek(), ",") {
			elements = append(elements, nil) // elision
			t.next()
			continue
		}
		elements = append(elements, t.parseAssignment())
		if !t.acceptPunct(",") {
			break
		}
	}
	t.expectPunct("]", "array literal")
	return &ast.ArrayExpression{Pos: open.pos, Elements: elements}
}

func (t *tree) parseObjectLiteral(open item) ast.Node {
	var props []*ast.Property
	for !t.isPunct(t.peek(), "}") {
		keyTok := t.next()
		var key ast.Node
		computed := false
		switch {
		case keyTok.typ == itemIdent || keyTok.typ == itemKeyword:
			key = &ast.Identifier{Pos: keyTok.pos, Name: keyTok.val}
		case keyTok.typ == itemString:
			s, err := unquoteString(keyTok.val)
			if err != nil {
				t.errorf("invalid object key %s: %v", keyTok.val, err)
			}
			key = &ast.Literal{Pos: keyTok.pos, Value: s, Raw: keyTok.val}
		case keyTok.typ == itemNumber:
			key = &ast.Literal{Pos: keyTok.pos, Value: parseNumber(keyTok.val), Raw: keyTok.val}
		case t.isPunct(keyTok, "["):
			computed = true
			key = t.parseAssignment()
			t.expectPunct("]", "computed object key")
		default:
			t.errorf("unexpected object key %v", keyTok)
		}
		t.expectPunct(":", "object property")
		val := t.parseAssignment()
		props = append(props, &ast.Property{
			Pos: keyTok.pos, Key: key, Value: val, Computed: computed, Kind: "init",
		})
		if !t.acceptPunct(",") {
			break
		}
	}
	t.expectPunct("}", "object literal")
	return &ast.ObjectExpression{Pos: open.pos, Properties: props}
}

func parseNumber(text string) interface{} {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		n, err := strconv.ParseInt(text, 0, 64)
		if err == nil {
			return n
		}
	}
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	}
	f, _ := strconv.ParseFloat(text, 64)
	return f
}
