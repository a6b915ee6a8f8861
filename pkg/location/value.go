package location

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
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
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a parsed JSON value. Exactly one of the payload fields is meaningful,
// selected by Kind. Numbers keep their literal text so integers survive exactly.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
}

// ParseValue parses a single JSON document.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Value{kind: KindNull}, nil
	case bool:
		return Value{kind: KindBool, b: v}, nil
	case json.Number:
		return Value{kind: KindNumber, num: v}, nil
	case string:
		return Value{kind: KindString, str: v}, nil
	case []any:
		arr := make([]Value, 0, len(v))
		for _, elem := range v {
			child, err := fromRaw(elem)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, child)
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(v))
		for key, elem := range v {
			child, err := fromRaw(elem)
			if err != nil {
				return Value{}, err
			}
			obj[key] = child
		}
		return Value{kind: KindObject, obj: obj}, nil
	}
	return Value{}, fmt.Errorf("unsupported JSON type %T", raw)
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Str returns the string payload. Use Render for a diagnostic rendering.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Float returns the number payload as a float64.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the number payload when it is an integer literal that fits in int64.
func (v Value) Int() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	i, err := v.num.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

// Array returns the elements of an array value.
func (v Value) Array() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

// Index returns element i of an array value. ok is false when v is not an array
// or i is out of range.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Len returns the number of elements of an array value, or 0.
func (v Value) Len() int {
	if v.kind != KindArray {
		return 0
	}
	return len(v.arr)
}

// native converts v back into the encoding/json generic representation.
func (v Value) native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, elem := range v.arr {
			out[i] = elem.native()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for key, elem := range v.obj {
			out[key] = elem.native()
		}
		return out
	}
	return nil
}

// Render returns the compact JSON text of v for error messages.
func (v Value) Render() string {
	data, err := json.Marshal(v.native())
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(data)
}
