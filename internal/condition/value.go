package condition

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is the tagged union conditions operate on. The zero Value is null
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
}

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value  { return Value{kind: KindString, s: s} }

// List copies its arguments
func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Interface returns the Go representation: nil, bool, float64, string or []any
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders the value the way str() does
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			if item.kind == KindString {
				parts[i] = strconv.Quote(item.s)
			} else {
				parts[i] = item.String()
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "null"
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Truthy reports the boolean meaning of a non-null value. Empty strings,
// empty lists, zero and false are false. Null has no truth value
func (v Value) Truthy() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindNumber:
		return v.n != 0, nil
	case KindString:
		return v.s != "", nil
	case KindList:
		return len(v.list) > 0, nil
	default:
		return false, errorf("null has no truth value")
	}
}

// Equal is total: values of different kinds are unequal and null equals
// only null
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// FromAny converts a loosely typed fact value into a Value
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case []string:
		out := make([]Value, len(t))
		for i, s := range t {
			out[i] = String(s)
		}
		return Value{kind: KindList, list: out}, nil
	case []float64:
		out := make([]Value, len(t))
		for i, f := range t {
			out[i] = Number(f)
		}
		return Value{kind: KindList, list: out}, nil
	case []int:
		out := make([]Value, len(t))
		for i, n := range t {
			out[i] = Number(float64(n))
		}
		return Value{kind: KindList, list: out}, nil
	case []any:
		out := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Null(), fmt.Errorf("list item %d: %w", i, err)
			}
			out[i] = v
		}
		return Value{kind: KindList, list: out}, nil
	default:
		return Null(), fmt.Errorf("unsupported fact type %T", x)
	}
}
