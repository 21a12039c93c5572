package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/robfig/jsdeobfuscate/ast"
)

// Lexer design from text/template, by way of robfig/soy's parse/lexer.go:
// a state-function lexer feeding tokens to the parser over a channel.

// item represents a token (or an error) the lexer has recognized.
type item struct {
	typ itemType
	pos ast.Pos
	val string
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return i.val
	}
	if len(i.val) > 20 {
		return fmt.Sprintf("%.20q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

type itemType int

const (
	itemError itemType = iota
	itemEOF

	itemIdent
	itemKeyword
	itemNumber
	itemString

	itemPunct // any fixed punctuation/operator string; val holds the text

	itemNull
	itemBool
)

var keywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true,
	"return": true, "if": true, "else": true, "for": true, "while": true,
	"break": true, "continue": true, "typeof": true, "new": true,
	"throw": true, "try": true, "catch": true, "finally": true,
	"switch": true, "case": true, "default": true, "void": true,
	"delete": true, "instanceof": true, "in": true, "do": true, "this": true,
}

// punctuation tokens, longest first so the lexer's greedy match prefers
// multi-character operators over their single-character prefixes.
var punctuators = []string{
	">>>=", "===", "!==", ">>>", "<<=", ">>=", "**=",
	"&&", "||", "??", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=", "<<", ">>", "++", "--", "=>", "**",
	"{", "}", "(", ")", "[", "]", ";", ",", ".", ":", "?",
	"+", "-", "*", "/", "%", "=", "<", ">", "!", "~", "&", "|", "^",
}

type stateFn func(*lexer) stateFn

type lexer struct {
	name    string
	input   string
	pos     ast.Pos
	start   ast.Pos
	width   ast.Pos
	items   chan item
	lastTyp itemType // previous emitted type; recorded by emit, not read by any state
}

func lex(name, input string) *lexer {
	l := &lexer{
		name:  name,
		input: input,
		items: make(chan item),
	}
	go l.run()
	return l
}

func (l *lexer) run() {
	for state := lexText; state != nil; {
		state = state(l)
	}
	close(l.items)
}

func (l *lexer) nextItem() item {
	return <-l.items
}

func (l *lexer) next() rune {
	if int(l.pos) >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = ast.Pos(w)
	l.pos += l.width
	return r
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
}

func (l *lexer) emit(t itemType) {
	l.items <- item{t, l.start, l.input[l.start:l.pos]}
	l.lastTyp = t
	l.start = l.pos
}

func (l *lexer) ignore() {
	l.start = l.pos
}

func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items <- item{itemError, l.start, fmt.Sprintf(format, args...)}
	return nil
}

const eof = -1

func lexText(l *lexer) stateFn {
	for {
		r := l.next()
		switch {
		case r == eof:
			l.ignore()
			l.emit(itemEOF)
			return nil
		case unicode.IsSpace(r):
			l.ignore()
		case r == '/' && l.peek() == '/':
			l.lexLineComment()
		case r == '/' && l.peek() == '*':
			if err := l.lexBlockComment(); err != nil {
				return l.errorf("%v", err)
			}
		case r == '"' || r == '\'':
			l.backup()
			return lexString
		case unicode.IsDigit(r):
			l.backup()
			return lexNumber
		case isIdentStart(r):
			l.backup()
			return lexIdent
		default:
			l.backup()
			return lexPunct
		}
	}
}

func (l *lexer) lexLineComment() {
	l.next() // consume second /
	for {
		r := l.next()
		if r == '\n' || r == eof {
			l.backup()
			break
		}
	}
	l.ignore()
}

func (l *lexer) lexBlockComment() error {
	l.next() // consume *
	for {
		r := l.next()
		if r == eof {
			return fmt.Errorf("unterminated block comment")
		}
		if r == '*' && l.peek() == '/' {
			l.next()
			break
		}
	}
	l.ignore()
	return nil
}

func lexString(l *lexer) stateFn {
	quote := l.next()
	for {
		r := l.next()
		switch r {
		case eof, '\n':
			return l.errorf("unterminated string literal")
		case '\\':
			l.next() // consume escaped rune, whatever it is
		case quote:
			l.emit(itemString)
			return lexText
		}
	}
}

func lexNumber(l *lexer) stateFn {
	if l.accept("0") && l.accept("xX") {
		l.acceptRun("0123456789abcdefABCDEF")
		l.emit(itemNumber)
		return lexText
	}
	l.acceptRun("0123456789")
	if l.accept(".") {
		l.acceptRun("0123456789")
	}
	if l.accept("eE") {
		l.accept("+-")
		l.acceptRun("0123456789")
	}
	l.emit(itemNumber)
	return lexText
}

func lexIdent(l *lexer) stateFn {
	for isIdentPart(l.peek()) {
		l.next()
	}
	word := l.input[l.start:l.pos]
	switch {
	case word == "true" || word == "false":
		l.emit(itemBool)
	case word == "null":
		l.emit(itemNull)
	case keywords[word]:
		l.emit(itemKeyword)
	default:
		l.emit(itemIdent)
	}
	return lexText
}

func lexPunct(l *lexer) stateFn {
	for _, p := range punctuators {
		if strings.HasPrefix(l.input[l.pos:], p) {
			l.pos += ast.Pos(len(p))
			l.emit(itemPunct)
			return lexText
		}
	}
	r := l.next()
	return l.errorf("unexpected character %q", r)
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
