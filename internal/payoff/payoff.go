// Package payoff parses user-supplied payoff expressions into a restricted
// arithmetic form and evaluates them against a terminal asset price.
//
// The expression text may arrive from an untrusted network caller, so the
// package works from an allowlist: after parsing, every token is checked and
// anything outside numeric literals, the arithmetic operators + - * / **,
// parentheses, the variables s/S/S_T and the functions max/min/abs is
// rejected. There is no escape hatch into the host language.
//
// Examples of accepted expressions:
//
//	max(s - 100, 0)              vanilla call struck at 100
//	max(90 - s, 0)               vanilla put struck at 90
//	max(10 - abs(s - 100), 0)    butterfly centered at 100
package payoff

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/option-pricer/internal/logger"
)

// ParseError reports an expression that failed to parse or referenced a
// construct outside the sanctioned arithmetic subset.
type ParseError struct {
	Source string // expression as supplied by the caller
	Reason string // what was rejected and why
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid payoff expression %q: %s", e.Source, e.Reason)
}

// EvalError reports a numeric domain failure (division by zero, overflow)
// while evaluating an otherwise valid expression. It carries the terminal
// price that triggered the failure for diagnosis.
type EvalError struct {
	TerminalPrice float64
	Reason        string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("payoff evaluation failed at terminal price %g: %s", e.TerminalPrice, e.Reason)
}

// The terminal price may be spelled any of these ways; all bind to the same
// value at evaluation time.
var allowedVariables = map[string]bool{
	"s":   true,
	"S":   true,
	"S_T": true,
}

var allowedOperators = map[string]bool{
	"+":  true,
	"-":  true,
	"*":  true,
	"/":  true,
	"**": true,
}

// functions is the complete function table handed to the parser. Only these
// names can ever lex as function calls.
var functions = map[string]govaluate.ExpressionFunction{
	"max": func(args ...interface{}) (interface{}, error) {
		return fold("max", math.Max, args)
	},
	"min": func(args ...interface{}) (interface{}, error) {
		return fold("min", math.Min, args)
	},
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs expects exactly 1 argument, got %d", len(args))
		}
		v, err := number("abs", args[0])
		if err != nil {
			return nil, err
		}
		return math.Abs(v), nil
	},
}

// Expression is a parsed, validated payoff expression with a single free
// variable, the terminal asset price. It is safe to evaluate repeatedly and
// from multiple goroutines.
type Expression struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// Parse validates source against the restricted payoff grammar.
// It returns a *ParseError naming the offending construct when the expression
// is malformed or reaches outside the allowlist.
func Parse(source string) (*Expression, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, &ParseError{Source: source, Reason: "expression is empty"}
	}

	logger.Debugf("event=parse_payoff expr=%q", trimmed)

	expr, err := govaluate.NewEvaluableExpressionWithFunctions(trimmed, functions)
	if err != nil {
		return nil, &ParseError{Source: trimmed, Reason: err.Error()}
	}

	for _, tok := range expr.Tokens() {
		if reason := vetToken(tok); reason != "" {
			return nil, &ParseError{Source: trimmed, Reason: reason}
		}
	}

	return &Expression{source: trimmed, expr: expr}, nil
}

// Source returns the expression text as parsed.
func (e *Expression) Source() string {
	return e.source
}

// Evaluate binds the free variable to terminalPrice and computes the payoff.
// Numeric domain failures surface as *EvalError.
func (e *Expression) Evaluate(terminalPrice float64) (float64, error) {
	params := map[string]interface{}{
		"s":   terminalPrice,
		"S":   terminalPrice,
		"S_T": terminalPrice,
	}

	raw, err := e.expr.Evaluate(params)
	if err != nil {
		return 0, &EvalError{TerminalPrice: terminalPrice, Reason: err.Error()}
	}

	value, ok := raw.(float64)
	if !ok {
		return 0, &EvalError{
			TerminalPrice: terminalPrice,
			Reason:        fmt.Sprintf("expression produced %T, want a number", raw),
		}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &EvalError{TerminalPrice: terminalPrice, Reason: "expression produced a non-finite value"}
	}
	return value, nil
}

// vetToken returns a rejection reason for any token outside the sanctioned
// arithmetic subset, or "" when the token is allowed.
func vetToken(tok govaluate.ExpressionToken) string {
	switch tok.Kind {
	case govaluate.NUMERIC, govaluate.FUNCTION, govaluate.SEPARATOR,
		govaluate.CLAUSE, govaluate.CLAUSE_CLOSE:
		return ""
	case govaluate.VARIABLE:
		name, _ := tok.Value.(string)
		if !allowedVariables[name] {
			return fmt.Sprintf("unknown identifier %q (the terminal price is spelled s, S or S_T)", name)
		}
		return ""
	case govaluate.MODIFIER:
		op, _ := tok.Value.(string)
		if !allowedOperators[op] {
			return fmt.Sprintf("operator %q is not allowed", op)
		}
		return ""
	case govaluate.PREFIX:
		op, _ := tok.Value.(string)
		if op != "-" {
			return fmt.Sprintf("prefix operator %q is not allowed", op)
		}
		return ""
	default:
		return fmt.Sprintf("%v token is not allowed in a payoff expression", tok.Kind)
	}
}

// fold reduces variadic numeric arguments with op, mirroring how max/min
// accept any number of operands.
func fold(name string, op func(a, b float64) float64, args []interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s expects at least 1 argument", name)
	}
	acc, err := number(name, args[0])
	if err != nil {
		return nil, err
	}
	for _, raw := range args[1:] {
		v, err := number(name, raw)
		if err != nil {
			return nil, err
		}
		acc = op(acc, v)
	}
	return acc, nil
}

func number(fn string, raw interface{}) (float64, error) {
	v, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s expects numeric arguments, got %T", fn, raw)
	}
	return v, nil
}
