// Package formula evaluates the arithmetic and comparison expressions found in SDDB
// response item definitions. Only numeric literals, parentheses and the operators
// + - * / & | == != < <= > >= are understood; nothing else is executed.
//
// Values are exact rationals, so integer expressions stay exact at any width and
// division only loses precision when the result is converted.
package formula

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

var ErrFormulaEvaluation = errors.New("formula evaluation failed")

// EvalRat evaluates expr exactly. Comparisons yield 1 or 0.
func EvalRat(expr string) (*big.Rat, error) {
	p := &exprParser{input: strings.TrimSpace(expr)}
	if p.input == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrFormulaEvaluation)
	}
	val, err := p.parseComparison()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrFormulaEvaluation, expr, err)
	}
	if p.peek() != 0 {
		return nil, fmt.Errorf("%w: %q: unexpected %q at %d", ErrFormulaEvaluation, expr, p.input[p.pos], p.pos)
	}
	return val, nil
}

// Eval evaluates expr and returns its value as the nearest float64.
func Eval(expr string) (float64, error) {
	val, err := EvalRat(expr)
	if err != nil {
		return 0, err
	}
	f, _ := val.Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q: overflow", ErrFormulaEvaluation, expr)
	}
	return f, nil
}

// EvalBool evaluates expr and reports whether it is non-zero.
func EvalBool(expr string) (bool, error) {
	val, err := EvalRat(expr)
	if err != nil {
		return false, err
	}
	return val.Sign() != 0, nil
}

// EvalBigInt evaluates expr and rounds the result half to even.
func EvalBigInt(expr string) (*big.Int, error) {
	val, err := EvalRat(expr)
	if err != nil {
		return nil, err
	}
	return RoundHalfEven(val), nil
}

// EvalInt is EvalBigInt for results that fit an int64.
func EvalInt(expr string) (int64, error) {
	v, err := EvalBigInt(expr)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("%w: %q: overflow", ErrFormulaEvaluation, expr)
	}
	return v.Int64(), nil
}

// RoundHalfEven rounds r to the nearest integer, ties to the even neighbour.
func RoundHalfEven(r *big.Rat) *big.Int {
	if r.IsInt() {
		return new(big.Int).Set(r.Num())
	}
	den := r.Denom()
	q, m := new(big.Int).DivMod(r.Num(), den, new(big.Int))
	switch m.Lsh(m, 1).Cmp(den) {
	case 1:
		q.Add(q, big.NewInt(1))
	case 0:
		if q.Bit(0) == 1 {
			q.Add(q, big.NewInt(1))
		}
	}
	return q
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) peekStr(n int) string {
	p.skipSpaces()
	end := p.pos + n
	if end > len(p.input) {
		end = len(p.input)
	}
	return p.input[p.pos:end]
}

func boolValue(b bool) *big.Rat {
	if b {
		return big.NewRat(1, 1)
	}
	return new(big.Rat)
}

func (p *exprParser) parseComparison() (*big.Rat, error) {
	val, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch two := p.peekStr(2); {
		case two == "==" || two == "!=" || two == "<=" || two == ">=":
			op = two
		case p.peek() == '<' || p.peek() == '>':
			op = string(p.peek())
		default:
			return val, nil
		}
		p.pos += len(op)
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		c := val.Cmp(right)
		switch op {
		case "==":
			val = boolValue(c == 0)
		case "!=":
			val = boolValue(c != 0)
		case "<=":
			val = boolValue(c <= 0)
		case ">=":
			val = boolValue(c >= 0)
		case "<":
			val = boolValue(c < 0)
		case ">":
			val = boolValue(c > 0)
		}
	}
}

func (p *exprParser) parseBitOr() (*big.Rat, error) {
	val, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == '|' {
		p.pos++
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		if val, err = bitwise(val, right, "|"); err != nil {
			return nil, err
		}
	}
	return val, nil
}

func (p *exprParser) parseBitAnd() (*big.Rat, error) {
	val, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for p.peek() == '&' {
		p.pos++
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		if val, err = bitwise(val, right, "&"); err != nil {
			return nil, err
		}
	}
	return val, nil
}

func bitwise(a, b *big.Rat, op string) (*big.Rat, error) {
	if !a.IsInt() || !b.IsInt() {
		return nil, fmt.Errorf("operator %s needs integer operands, got %s and %s",
			op, a.RatString(), b.RatString())
	}
	out := new(big.Int)
	if op == "&" {
		out.And(a.Num(), b.Num())
	} else {
		out.Or(a.Num(), b.Num())
	}
	return new(big.Rat).SetInt(out), nil
}

func (p *exprParser) parseAddSub() (*big.Rat, error) {
	val, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseMulDiv()
			if err != nil {
				return nil, err
			}
			val = new(big.Rat).Add(val, right)
		case '-':
			p.pos++
			right, err := p.parseMulDiv()
			if err != nil {
				return nil, err
			}
			val = new(big.Rat).Sub(val, right)
		default:
			return val, nil
		}
	}
}

func (p *exprParser) parseMulDiv() (*big.Rat, error) {
	val, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			val = new(big.Rat).Mul(val, right)
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if right.Sign() == 0 {
				return nil, errors.New("division by zero")
			}
			val = new(big.Rat).Quo(val, right)
		default:
			return val, nil
		}
	}
}

func (p *exprParser) parseUnary() (*big.Rat, error) {
	switch p.peek() {
	case '-':
		p.pos++
		val, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return new(big.Rat).Neg(val), nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (*big.Rat, error) {
	c := p.peek()
	if c == '(' {
		p.pos++
		val, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing ) at %d", p.pos)
		}
		p.pos++
		return val, nil
	}
	if c == 0 {
		return nil, errors.New("unexpected end of expression")
	}
	start := p.pos
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("unexpected %q at %d", c, start)
	}
	val, ok := new(big.Rat).SetString(p.input[start:p.pos])
	if !ok {
		return nil, fmt.Errorf("bad number %q", p.input[start:p.pos])
	}
	return val, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
