package literal

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

var errDivisionByZero = errors.New("division by zero")

// Evaluate computes a numeric expression made of number literals, unary
// sign, + - * / and parentheses. Anything else is rejected.
func Evaluate(expr string) (float64, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", expr, err)
	}
	return eval(node)
}

func eval(node ast.Expr) (float64, error) {
	switch e := node.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT && e.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal %s", e.Value)
		}
		return strconv.ParseFloat(e.Value, 64)

	case *ast.ParenExpr:
		return eval(e.X)

	case *ast.UnaryExpr:
		x, err := eval(e.X)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return -x, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", e.Op)

	case *ast.BinaryExpr:
		x, err := eval(e.X)
		if err != nil {
			return 0, err
		}
		y, err := eval(e.Y)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, errDivisionByZero
			}
			return x / y, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", e.Op)
	}

	return 0, fmt.Errorf("unsupported expression %T", node)
}
