package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"
)

// Calculator evaluates arithmetic expressions.
type Calculator struct{}

func (Calculator) Name() string { return "calculator" }

func (Calculator) Description() string {
	return "Evaluate an arithmetic expression. Supports + - * / %, ^ for powers, parentheses, " +
		"and the functions sqrt, abs, floor, ceil, round, ln, log10, pow, min, max."
}

func (Calculator) Parameters() (map[string]interface{}, []string) {
	return map[string]interface{}{
		"expression": map[string]interface{}{
			"type":        "string",
			"description": "Expression to evaluate, e.g. (3 + 4) * 2 ^ 3",
		},
	}, []string{"expression"}
}

func (c Calculator) Run(_ context.Context, input json.RawMessage) (string, error) {
	var params struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", err
	}

	v, err := Evaluate(params.Expression)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

// Evaluate computes the value of an arithmetic expression.
// "^" is exponentiation and binds tighter than "*".
func Evaluate(expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, errors.New("expression is empty")
	}

	// Go parses ^ as XOR with additive precedence; rewrite it to a call so
	// it gets power semantics and binds tighter than * and /.
	rewritten, err := rewritePowers(expr)
	if err != nil {
		return 0, err
	}

	node, err := parser.ParseExpr(rewritten)
	if err != nil {
		return 0, fmt.Errorf("invalid expression %q: %w", expr, err)
	}

	v, err := eval(node)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("expression %q is not a finite number", expr)
	}
	return v, nil
}

func eval(node ast.Expr) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal %s", n.Value)
		}
		return strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64)

	case *ast.ParenExpr:
		return eval(n.X)

	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)

	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, errors.New("division by zero")
			}
			return x / y, nil
		case token.REM:
			if y == 0 {
				return 0, errors.New("division by zero")
			}
			return math.Mod(x, y), nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)

	case *ast.Ident:
		switch strings.ToLower(n.Name) {
		case "pi":
			return math.Pi, nil
		case "e":
			return math.E, nil
		}
		return 0, fmt.Errorf("unknown identifier %q", n.Name)

	case *ast.CallExpr:
		return call(n)
	}
	return 0, fmt.Errorf("unsupported expression")
}

func call(n *ast.CallExpr) (float64, error) {
	ident, ok := n.Fun.(*ast.Ident)
	if !ok {
		return 0, errors.New("unsupported function call")
	}

	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		v, err := eval(a)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}

	unary := map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"ln":    math.Log,
		"log10": math.Log10,
	}
	binary := map[string]func(float64, float64) float64{
		"pow": math.Pow,
		"min": math.Min,
		"max": math.Max,
	}

	name := strings.ToLower(ident.Name)
	if fn, ok := unary[name]; ok {
		if len(args) != 1 {
			return 0, fmt.Errorf("%s takes 1 argument, got %d", name, len(args))
		}
		return fn(args[0]), nil
	}
	if fn, ok := binary[name]; ok {
		if len(args) != 2 {
			return 0, fmt.Errorf("%s takes 2 arguments, got %d", name, len(args))
		}
		return fn(args[0], args[1]), nil
	}
	return 0, fmt.Errorf("unknown function %q", ident.Name)
}

// rewritePowers turns "a ^ b" into "pow(a, b)", right-associative, where a
// and b are operands (numbers, identifiers, calls or parenthesised groups),
// optionally with a leading unary minus on the exponent.
func rewritePowers(expr string) (string, error) {
	for {
		i := strings.LastIndex(expr, "^")
		if i < 0 {
			return expr, nil
		}

		ls, err := operandStart(expr, i)
		if err != nil {
			return "", err
		}
		re, err := operandEnd(expr, i+1)
		if err != nil {
			return "", err
		}

		base := strings.TrimSpace(expr[ls:i])
		exp := strings.TrimSpace(expr[i+1 : re])
		expr = expr[:ls] + "pow(" + base + ", " + exp + ")" + expr[re:]
	}
}

func operandStart(s string, caret int) (int, error) {
	j := caret - 1
	for j >= 0 && s[j] == ' ' {
		j--
	}
	if j < 0 {
		return 0, errors.New("missing base before ^")
	}

	if s[j] == ')' {
		depth := 0
		for ; j >= 0; j-- {
			switch s[j] {
			case ')':
				depth++
			case '(':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if j < 0 {
			return 0, errors.New("unbalanced parentheses")
		}
		// Include a function name directly before the group.
		for j > 0 && isOperandChar(s[j-1]) {
			j--
		}
		return j, nil
	}

	if !isOperandChar(s[j]) {
		return 0, errors.New("missing base before ^")
	}
	for j > 0 && isOperandChar(s[j-1]) {
		j--
	}
	return j, nil
}

func operandEnd(s string, start int) (int, error) {
	j := start
	for j < len(s) && s[j] == ' ' {
		j++
	}
	if j < len(s) && (s[j] == '-' || s[j] == '+') {
		j++
	}
	if j >= len(s) {
		return 0, errors.New("missing exponent after ^")
	}

	for j < len(s) && isOperandChar(s[j]) {
		j++
	}
	if j < len(s) && s[j] == '(' {
		depth := 0
		for ; j < len(s); j++ {
			switch s[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				return j + 1, nil
			}
		}
		return 0, errors.New("unbalanced parentheses")
	}
	if j == start {
		return 0, errors.New("missing exponent after ^")
	}
	return j, nil
}

func isOperandChar(c byte) bool {
	return c == '.' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
