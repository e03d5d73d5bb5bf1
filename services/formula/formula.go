// Package formula evaluates small arithmetic expressions over named counters.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "[" NAME "]" | "(" expr ")" | ("-" | "+") factor
//
// Nothing else is accepted; there is no function call or string evaluation.
package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrSyntax          = errors.New("formula syntax error")
	ErrUnknownVariable = errors.New("unknown formula variable")
	ErrDivisionByZero  = errors.New("division by zero")
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokVariable
	tokOperator
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

func tokenize(src string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(src); {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokOperator, text: string(c), pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '[':
			end := strings.IndexByte(src[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated variable at %d", ErrSyntax, i)
			}
			name := strings.ToUpper(strings.TrimSpace(src[i+1 : i+end]))
			if name == "" {
				return nil, fmt.Errorf("%w: empty variable at %d", ErrSyntax, i)
			}
			tokens = append(tokens, token{kind: tokVariable, text: name, pos: i})
			i += end + 1
		case unicode.IsDigit(c) || c == '.':
			start := i
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || src[i] == '.') {
				i++
			}
			v, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, src[start:i], start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: src[start:i], value: v, pos: start})
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, i)
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(src)}), nil
}

type node interface {
	eval(vars map[string]float64) (float64, error)
}

type numberNode float64

func (n numberNode) eval(map[string]float64) (float64, error) { return float64(n), nil }

type variableNode string

func (n variableNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(n)]
	if !ok {
		return 0, fmt.Errorf("%w: [%s]", ErrUnknownVariable, string(n))
	}
	return v, nil
}

type unaryNode struct {
	neg     bool
	operand node
}

func (n unaryNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return 0, err
	}
	if n.neg {
		return -v, nil
	}
	return v, nil
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	default:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
}

type parser struct {
	tokens []token
	pos    int
	vars   []string
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOperator && (t.text == "+" || t.text == "-"); t = p.peek() {
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.text[0], left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOperator && (t.text == "*" || t.text == "/"); t = p.peek() {
		p.next()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.text[0], left: left, right: right}
	}
	return left, nil
}

func (p *parser) factor() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode(t.value), nil
	case tokVariable:
		p.vars = append(p.vars, t.text)
		return variableNode(t.text), nil
	case tokOperator:
		if t.text != "-" && t.text != "+" {
			break
		}
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return unaryNode{neg: t.text == "-", operand: operand}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ) at %d", ErrSyntax, closing.pos)
		}
		return inner, nil
	}
	if t.kind == tokEOF {
		return nil, fmt.Errorf("%w: unexpected end of formula", ErrSyntax)
	}
	return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
}

// Expression is a parsed formula.
type Expression struct {
	source string
	root   node
	vars   []string
}

// Compile parses src without evaluating it.
func Compile(src string) (*Expression, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
	return &Expression{source: src, root: root, vars: uniqueNames(p.vars)}, nil
}

// CompileWith parses src and rejects any variable outside allowed.
func CompileWith(src string, allowed ...string) (*Expression, error) {
	expr, err := Compile(src)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		known[strings.ToUpper(name)] = struct{}{}
	}
	for _, name := range expr.vars {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("%w: [%s]", ErrUnknownVariable, name)
		}
	}
	return expr, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (e *Expression) String() string { return e.source }

// Variables lists the referenced names in order of first use.
func (e *Expression) Variables() []string {
	return append([]string(nil), e.vars...)
}

// Eval computes the expression; variable names are upper-case without brackets.
func (e *Expression) Eval(vars map[string]float64) (float64, error) {
	return e.root.eval(vars)
}

// Evaluate compiles and evaluates src in one step.
func Evaluate(src string, vars map[string]float64) (float64, error) {
	expr, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return expr.Eval(vars)
}
