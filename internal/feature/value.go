package feature

import (
	"encoding/json"
	"strconv"
)

// ValueKind tags the variant held by a Value
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindNumber
)

// Value is a property value: either a string or a number
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

// StringValue wraps s
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue wraps n
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Kind returns the held variant
func (v Value) Kind() ValueKind {
	return v.kind
}

// Str returns the string variant
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Num returns the number variant
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders the value as text, numbers in shortest form
func (v Value) String() string {
	if v.kind == KindNumber {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// Interface returns the value as a string or float64
func (v Value) Interface() interface{} {
	if v.kind == KindNumber {
		return v.num
	}
	return v.str
}

// MarshalJSON encodes strings as JSON strings and numbers as JSON numbers
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// ValueOf converts a decoded JSON or tile value into a Value
func ValueOf(x interface{}) (Value, bool) {
	switch t := x.(type) {
	case string:
		return StringValue(t), true
	case float64:
		return NumberValue(t), true
	case float32:
		return NumberValue(float64(t)), true
	case int:
		return NumberValue(float64(t)), true
	case int64:
		return NumberValue(float64(t)), true
	case uint64:
		return NumberValue(float64(t)), true
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return StringValue(t.String()), true
		}
		return NumberValue(n), true
	default:
		return Value{}, false
	}
}
