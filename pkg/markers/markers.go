// Package markers parses and evaluates environment marker expressions
// (PEP 508), the constraint language lockfiles use to scope dependencies
// and resolution forks to particular platforms and interpreters.
//
// Example expressions:
//
//	python_full_version >= '3.13'
//	sys_platform == 'darwin' and platform_machine == 'arm64'
//	os_name == 'nt' or (implementation_name == 'cpython' and python_version < '3.10')
//
// Expressions are parsed once with [Parse] and evaluated against an
// [Environment] describing a target interpreter and platform.
package markers

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lockview/lockview/pkg/errors"
)

// Expr is a parsed marker expression node.
type Expr interface {
	// String renders the node back to marker syntax.
	String() string
}

// Or is a disjunction of two or more sub-expressions.
type Or struct{ Terms []Expr }

// And is a conjunction of two or more sub-expressions.
type And struct{ Terms []Expr }

// Comparison is a single `lhs op rhs` clause. Exactly one side is a marker
// variable in well-formed expressions, but the grammar permits both forms.
type Comparison struct {
	Lhs Operand
	Op  string // == != <= >= < > ~= === in "not in"
	Rhs Operand
}

// Operand is either a marker variable reference or a quoted literal.
type Operand struct {
	Variable string // set for variable operands
	Literal  string // set for quoted-string operands
	IsVar    bool
}

func (o Or) String() string {
	parts := make([]string, len(o.Terms))
	for i, t := range o.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " or ")
}

func (a And) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		if _, ok := t.(Or); ok {
			parts[i] = "(" + t.String() + ")"
		} else {
			parts[i] = t.String()
		}
	}
	return strings.Join(parts, " and ")
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Lhs, c.Op, c.Rhs)
}

func (o Operand) String() string {
	if o.IsVar {
		return o.Variable
	}
	return "'" + o.Literal + "'"
}

// token kinds
type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input string
	pos   int
}

// multi-char operators, longest first.
var opTokens = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == '\'' || c == '"':
		quote := c
		l.pos++
		for l.pos < len(l.input) && l.input[l.pos] != quote {
			l.pos++
		}
		if l.pos >= len(l.input) {
			return token{}, errors.New(errors.ErrCodeInvalidMarker, "unterminated string at offset %d", start)
		}
		text := l.input[start+1 : l.pos]
		l.pos++ // closing quote
		return token{kind: tokString, text: text, pos: start}, nil
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	default:
		for _, op := range opTokens {
			if strings.HasPrefix(l.input[l.pos:], op) {
				l.pos += len(op)
				return token{kind: tokOp, text: op, pos: start}, nil
			}
		}
		return token{}, errors.New(errors.ErrCodeInvalidMarker, "unexpected character %q at offset %d", c, start)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '.'
}

type parser struct {
	tokens []token
	pos    int
}

// Parse parses a marker expression. The grammar:
//
//	expr    := and_expr ('or' and_expr)*
//	and_expr := atom ('and' atom)*
//	atom    := '(' expr ')' | comparison
//	comparison := operand op operand
//	operand := variable | quoted_string
//	op      := '==' | '!=' | '<=' | '>=' | '<' | '>' | '~=' | '===' | 'in' | 'not' 'in'
func Parse(s string) (Expr, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New(errors.ErrCodeInvalidMarker, "empty marker expression")
	}

	lex := &lexer{input: s}
	var tokens []token
	for {
		tok, err := lex.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			break
		}
	}

	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errors.New(errors.ErrCodeInvalidMarker, "trailing input at offset %d in %q", p.peek().pos, s)
	}
	return expr, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.peek().kind == tokIdent && p.peek().text == "or" {
		p.advance()
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return Or{Terms: terms}, nil
}

func (p *parser) parseAnd() (Expr, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.peek().kind == tokIdent && p.peek().text == "and" {
		p.advance()
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return And{Terms: terms}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	if p.peek().kind == tokLParen {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, errors.New(errors.ErrCodeInvalidMarker, "missing closing parenthesis at offset %d", p.peek().pos)
		}
		p.advance()
		return expr, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}

	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	return Comparison{Lhs: lhs, Op: op, Rhs: rhs}, nil
}

func (p *parser) parseOperand() (Operand, error) {
	tok := p.advance()
	switch tok.kind {
	case tokString:
		return Operand{Literal: tok.text}, nil
	case tokIdent:
		if tok.text == "and" || tok.text == "or" || tok.text == "in" || tok.text == "not" {
			return Operand{}, errors.New(errors.ErrCodeInvalidMarker, "unexpected keyword %q at offset %d", tok.text, tok.pos)
		}
		return Operand{Variable: tok.text, IsVar: true}, nil
	default:
		return Operand{}, errors.New(errors.ErrCodeInvalidMarker, "expected variable or string at offset %d", tok.pos)
	}
}

func (p *parser) parseOp() (string, error) {
	tok := p.advance()
	switch {
	case tok.kind == tokOp:
		return tok.text, nil
	case tok.kind == tokIdent && tok.text == "in":
		return "in", nil
	case tok.kind == tokIdent && tok.text == "not":
		next := p.advance()
		if next.kind != tokIdent || next.text != "in" {
			return "", errors.New(errors.ErrCodeInvalidMarker, "expected 'in' after 'not' at offset %d", next.pos)
		}
		return "not in", nil
	default:
		return "", errors.New(errors.ErrCodeInvalidMarker, "expected operator at offset %d", tok.pos)
	}
}
