package condition

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type builtin struct {
	minArgs int
	maxArgs int // -1 for variadic
	call    func(args []Value) (Value, *Error)
}

func (b builtin) arity() string {
	switch {
	case b.maxArgs < 0:
		return "at least " + strconv.Itoa(b.minArgs) + " argument(s)"
	case b.minArgs == b.maxArgs:
		return strconv.Itoa(b.minArgs) + " argument(s)"
	default:
		return strconv.Itoa(b.minArgs) + " to " + strconv.Itoa(b.maxArgs) + " arguments"
	}
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"len":      {1, 1, builtinLen},
		"min":      {1, -1, func(args []Value) (Value, *Error) { return extreme(args, -1) }},
		"max":      {1, -1, func(args []Value) (Value, *Error) { return extreme(args, 1) }},
		"sum":      {1, 2, builtinSum},
		"abs":      {1, 1, builtinAbs},
		"round":    {1, 2, builtinRound},
		"lower":    {1, 1, stringFunc(strings.ToLower)},
		"upper":    {1, 1, stringFunc(strings.ToUpper)},
		"contains": {2, 2, builtinContains},
		"str":      {1, 1, func(args []Value) (Value, *Error) { return String(args[0].String()), nil }},
		"int":      {1, 1, builtinInt},
		"float":    {1, 1, builtinFloat},
		"bool":     {1, 1, builtinBool},
	}
}

func builtinLen(args []Value) (Value, *Error) {
	switch v := args[0]; v.kind {
	case KindString:
		return Number(float64(utf8.RuneCountInString(v.s))), nil
	case KindList:
		return Number(float64(len(v.list))), nil
	default:
		return Null(), errorf("object of type %s has no len", v.kind)
	}
}

// extreme implements min (sign -1) and max (sign 1) over a single list
// argument or over the arguments themselves
func extreme(args []Value, sign int) (Value, *Error) {
	items := args
	if len(args) == 1 {
		if args[0].kind != KindList {
			return Null(), errorf("expected a list or several arguments, got %s", args[0].kind)
		}
		items = args[0].list
	}
	if len(items) == 0 {
		return Null(), errorf("empty sequence")
	}
	best := items[0]
	for _, item := range items[1:] {
		var c int
		switch {
		case best.kind == KindNumber && item.kind == KindNumber:
			c = cmpFloat(item.n, best.n)
		case best.kind == KindString && item.kind == KindString:
			c = strings.Compare(item.s, best.s)
		default:
			return Null(), errorf("cannot compare %s and %s", best.kind, item.kind)
		}
		if c*sign > 0 {
			best = item
		}
	}
	if best.kind != KindNumber && best.kind != KindString {
		return Null(), errorf("cannot order %s", best.kind)
	}
	return best, nil
}

func builtinSum(args []Value) (Value, *Error) {
	if args[0].kind != KindList {
		return Null(), errorf("expected a list, got %s", args[0].kind)
	}
	total := 0.0
	if len(args) == 2 {
		if args[1].kind != KindNumber {
			return Null(), errorf("start must be a number, got %s", args[1].kind)
		}
		total = args[1].n
	}
	for _, item := range args[0].list {
		if item.kind != KindNumber {
			return Null(), errorf("cannot sum %s", item.kind)
		}
		total += item.n
	}
	return Number(total), nil
}

func builtinAbs(args []Value) (Value, *Error) {
	if args[0].kind != KindNumber {
		return Null(), errorf("expected a number, got %s", args[0].kind)
	}
	return Number(math.Abs(args[0].n)), nil
}

// builtinRound rounds half to even
func builtinRound(args []Value) (Value, *Error) {
	if args[0].kind != KindNumber {
		return Null(), errorf("expected a number, got %s", args[0].kind)
	}
	if len(args) == 1 {
		return Number(math.RoundToEven(args[0].n)), nil
	}
	if args[1].kind != KindNumber {
		return Null(), errorf("digits must be a number, got %s", args[1].kind)
	}
	scale := math.Pow(10, math.Trunc(args[1].n))
	return Number(math.RoundToEven(args[0].n*scale) / scale), nil
}

func stringFunc(fn func(string) string) func([]Value) (Value, *Error) {
	return func(args []Value) (Value, *Error) {
		if args[0].kind != KindString {
			return Null(), errorf("expected a string, got %s", args[0].kind)
		}
		return String(fn(args[0].s)), nil
	}
}

func builtinContains(args []Value) (Value, *Error) {
	found, err := contains(args[0], args[1])
	if err != nil {
		return Null(), err
	}
	return Bool(found), nil
}

func builtinInt(args []Value) (Value, *Error) {
	v, err := builtinFloat(args)
	if err != nil {
		return Null(), err
	}
	return Number(math.Trunc(v.n)), nil
}

func builtinFloat(args []Value) (Value, *Error) {
	switch v := args[0]; v.kind {
	case KindNumber:
		return v, nil
	case KindBool:
		if v.b {
			return Number(1), nil
		}
		return Number(0), nil
	case KindString:
		f, err := parseNumber(v.s)
		if err != nil {
			return Null(), errorf("cannot convert %q to a number", v.s)
		}
		return Number(f), nil
	default:
		return Null(), errorf("cannot convert %s to a number", v.kind)
	}
}

// parseNumber accepts thousands separators and a leading currency symbol
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$£€¥")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func builtinBool(args []Value) (Value, *Error) {
	if args[0].kind == KindNull {
		return Bool(false), nil
	}
	b, _ := args[0].Truthy()
	return Bool(b), nil
}
