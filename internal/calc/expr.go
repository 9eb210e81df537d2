// Package calc implements the calculator core: an explicit arithmetic
// expression evaluator and the expression accumulator that drives the
// display.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrSyntax is returned when an expression cannot be parsed.
	ErrSyntax = errors.New("syntax error")

	// ErrNonFinite is returned when an expression evaluates to ±Inf or NaN,
	// e.g. division by zero.
	ErrNonFinite = errors.New("result is not a finite number")
)

// SyntaxError describes where parsing failed. It unwraps to ErrSyntax.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	pos  int
	text string
	num  float64
}

// tokenize splits an expression into tokens. Whitespace is skipped; any
// character outside the arithmetic alphabet is a syntax error.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+':
			toks = append(toks, token{kind: tokPlus, pos: i, text: "+"})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus, pos: i, text: "-"})
			i++
		case c == '*':
			toks = append(toks, token{kind: tokStar, pos: i, text: "*"})
			i++
		case c == '/':
			toks = append(toks, token{kind: tokSlash, pos: i, text: "/"})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i, text: ")"})
			i++
		case isDigit(c) || c == '.':
			start := i
			dots := 0
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				if src[i] == '.' {
					dots++
				}
				i++
			}
			mantissa := src[start:i]
			if dots > 1 {
				return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("malformed number %q", mantissa)}
			}
			if mantissa == "." {
				return nil, &SyntaxError{Pos: start, Msg: "lone decimal point"}
			}
			i = scanExponent(src, i)
			text := src[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("malformed number %q", text)}
			}
			// Out-of-range literals come back as ±Inf and are reported as
			// non-finite by Evaluate.
			toks = append(toks, token{kind: tokNumber, pos: start, text: text, num: v})
		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// scanExponent returns the index after an optional [eE][+-]?digits suffix
// starting at i. Without at least one exponent digit it returns i.
func scanExponent(src string, i int) int {
	if i >= len(src) || (src[i] != 'e' && src[i] != 'E') {
		return i
	}
	j := i + 1
	if j < len(src) && (src[j] == '+' || src[j] == '-') {
		j++
	}
	if j >= len(src) || !isDigit(src[j]) {
		return i
	}
	for j < len(src) && isDigit(src[j]) {
		j++
	}
	return j
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parser is a recursive-descent evaluator. Precedence, lowest first:
//
//	expr  := term (('+' | '-') term)*
//	term  := unary (('*' | '/') unary)*
//	unary := ('-' | '+') unary | primary
//	primary := number | '(' expr ')'
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case tokMinus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokStar:
			p.next()
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			left *= right
		case tokSlash:
			p.next()
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		v, err := p.unary()
		return -v, err
	case tokPlus:
		p.next()
		return p.unary()
	}
	return p.primary()
}

func (p *parser) primary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, &SyntaxError{Pos: closing.pos, Msg: "expected )"}
		}
		return v, nil
	case tokEOF:
		return 0, &SyntaxError{Pos: t.pos, Msg: "unexpected end of expression"}
	default:
		return 0, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
}

// Evaluate parses and evaluates an arithmetic expression supporting
// + - * /, parentheses, decimal literals (with an optional exponent, so
// pasted or stored results such as "1e+21" still parse) and unary minus,
// with * and /
// binding tighter than + and -, all left-associative.
//
// A result that is not finite yields ErrNonFinite.
func Evaluate(expression string) (float64, error) {
	toks, err := tokenize(expression)
	if err != nil {
		return 0, err
	}
	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrNonFinite
	}
	return v, nil
}

// FormatNumber renders v as the shortest decimal text that round-trips,
// always in positional notation so the result is a valid operand: digits,
// at most one ".", and a leading "-" when negative. Negative zero is
// rendered as "0".
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
