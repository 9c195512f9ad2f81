package condition

import (
	"math"
	"strings"
)

// Eval runs the program against facts and returns the raw result
func (p *Program) Eval(facts FactContext) (Value, error) {
	return eval(p.root, facts)
}

// EvalBool runs the program and converts the result by truthiness
func (p *Program) EvalBool(facts FactContext) (bool, error) {
	v, err := p.Eval(facts)
	if err != nil {
		return false, err
	}
	ok, err := v.Truthy()
	if err != nil {
		return false, errorf("condition result is null")
	}
	return ok, nil
}

func eval(n node, facts FactContext) (Value, error) {
	switch n := n.(type) {
	case *literalNode:
		return n.val, nil

	case *identNode:
		v, ok := facts[n.name]
		if !ok {
			return Null(), errorAt(n.at, "name %q is not defined", n.name)
		}
		return v, nil

	case *listNode:
		items := make([]Value, len(n.items))
		for i, item := range n.items {
			v, err := eval(item, facts)
			if err != nil {
				return Null(), err
			}
			items[i] = v
		}
		return Value{kind: KindList, list: items}, nil

	case *callNode:
		args := make([]Value, len(n.args))
		for i, arg := range n.args {
			v, err := eval(arg, facts)
			if err != nil {
				return Null(), err
			}
			args[i] = v
		}
		v, err := builtins[n.fn].call(args)
		if err != nil {
			return Null(), errorAt(n.at, "%s(): %s", n.fn, err.Msg)
		}
		return v, nil

	case *unaryNode:
		x, err := eval(n.x, facts)
		if err != nil {
			return Null(), err
		}
		if n.op == "not" {
			b, err := truth(x, n.at)
			if err != nil {
				return Null(), err
			}
			return Bool(!b), nil
		}
		if x.kind != KindNumber {
			return Null(), errorAt(n.at, "unary %s requires a number, got %s", n.op, x.kind)
		}
		if n.op == "-" {
			return Number(-x.n), nil
		}
		return x, nil

	case *logicalNode:
		x, err := eval(n.x, facts)
		if err != nil {
			return Null(), err
		}
		xb, err := truth(x, n.at)
		if err != nil {
			return Null(), err
		}
		if n.op == "and" && !xb {
			return Bool(false), nil
		}
		if n.op == "or" && xb {
			return Bool(true), nil
		}
		y, err := eval(n.y, facts)
		if err != nil {
			return Null(), err
		}
		yb, err := truth(y, n.at)
		if err != nil {
			return Null(), err
		}
		return Bool(yb), nil

	case *arithNode:
		x, err := eval(n.x, facts)
		if err != nil {
			return Null(), err
		}
		y, err := eval(n.y, facts)
		if err != nil {
			return Null(), err
		}
		return arith(n.op, x, y, n.at)

	case *compareNode:
		left, err := eval(n.operands[0], facts)
		if err != nil {
			return Null(), err
		}
		for i, op := range n.ops {
			right, err := eval(n.operands[i+1], facts)
			if err != nil {
				return Null(), err
			}
			ok, err := compare(op, left, right, n.at)
			if err != nil {
				return Null(), err
			}
			if !ok {
				return Bool(false), nil
			}
			left = right
		}
		return Bool(true), nil
	}
	return Null(), errorf("unsupported expression")
}

func truth(v Value, at int) (bool, error) {
	if v.kind == KindNull {
		return false, errorAt(at, "null used in a boolean context")
	}
	b, _ := v.Truthy()
	return b, nil
}

func arith(op string, x, y Value, at int) (Value, error) {
	if x.kind == KindNull || y.kind == KindNull {
		return Null(), errorAt(at, "arithmetic %q on null", op)
	}
	if op == "+" {
		switch {
		case x.kind == KindString && y.kind == KindString:
			return String(x.s + y.s), nil
		case x.kind == KindList && y.kind == KindList:
			items := make([]Value, 0, len(x.list)+len(y.list))
			items = append(items, x.list...)
			items = append(items, y.list...)
			return Value{kind: KindList, list: items}, nil
		}
	}
	if x.kind != KindNumber || y.kind != KindNumber {
		return Null(), errorAt(at, "unsupported operands for %q: %s and %s", op, x.kind, y.kind)
	}
	switch op {
	case "+":
		return Number(x.n + y.n), nil
	case "-":
		return Number(x.n - y.n), nil
	case "*":
		return Number(x.n * y.n), nil
	case "/":
		if y.n == 0 {
			return Null(), errorAt(at, "division by zero")
		}
		return Number(x.n / y.n), nil
	case "%":
		if y.n == 0 {
			return Null(), errorAt(at, "modulo by zero")
		}
		// result takes the sign of the divisor
		r := math.Mod(x.n, y.n)
		if r != 0 && (r < 0) != (y.n < 0) {
			r += y.n
		}
		return Number(r), nil
	}
	return Null(), errorAt(at, "unknown operator %q", op)
}

func compare(op string, x, y Value, at int) (bool, error) {
	switch op {
	case "==":
		return x.Equal(y), nil
	case "!=":
		return !x.Equal(y), nil
	case "in", "not in":
		found, err := contains(y, x)
		if err != nil {
			return false, errorAt(at, "%s", err.Msg)
		}
		if op == "not in" {
			return !found, nil
		}
		return found, nil
	}

	if x.kind == KindNull || y.kind == KindNull {
		return false, errorAt(at, "cannot order null with %q", op)
	}
	var c int
	switch {
	case x.kind == KindNumber && y.kind == KindNumber:
		c = cmpFloat(x.n, y.n)
	case x.kind == KindString && y.kind == KindString:
		c = strings.Compare(x.s, y.s)
	default:
		return false, errorAt(at, "cannot compare %s and %s with %q", x.kind, y.kind, op)
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, errorAt(at, "unknown operator %q", op)
}

// contains reports whether needle is in haystack: substring for strings,
// element equality for lists
func contains(haystack, needle Value) (bool, *Error) {
	switch haystack.kind {
	case KindString:
		if needle.kind != KindString {
			return false, errorf("'in <string>' requires a string on the left, got %s", needle.kind)
		}
		return strings.Contains(haystack.s, needle.s), nil
	case KindList:
		for _, item := range haystack.list {
			if item.Equal(needle) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errorf("argument of type %s is not a container", haystack.kind)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
