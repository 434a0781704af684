package options

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind classifies a render option value
type ValueKind int

const (
	StringKind ValueKind = iota
	NumberKind
	BoolKind
)

func (k ValueKind) String() string {
	switch k {
	case StringKind:
		return "string"
	case NumberKind:
		return "number"
	case BoolKind:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a single render option. Compiler options are flags, so only
// strings, numbers and booleans are representable.
type Value struct {
	kind ValueKind
	str  string
	num  json.Number
	b    bool
}

// String returns a string value
func String(s string) Value { return Value{kind: StringKind, str: s} }

// Number returns a numeric value
func Number(f float64) Value {
	return Value{kind: NumberKind, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// NumberLiteral returns a numeric value keeping n's text, so integers beyond
// float64 precision pass through unchanged
func NumberLiteral(n json.Number) Value { return Value{kind: NumberKind, num: n} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: BoolKind, b: b} }

// Kind reports which member of the union v holds
func (v Value) Kind() ValueKind { return v.kind }

// AsBool returns the boolean held by v and whether v is a boolean
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == BoolKind }

// String formats the value the way it is passed on a command line
func (v Value) String() string {
	switch v.kind {
	case NumberKind:
		return v.num.String()
	case BoolKind:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// Interface returns the value as a plain Go value
func (v Value) Interface() any {
	switch v.kind {
	case NumberKind:
		return v.num
	case BoolKind:
		return v.b
	default:
		return v.str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := valueOf(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func valueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return String(x), nil
	case json.Number:
		return NumberLiteral(x), nil
	case float64:
		return Number(x), nil
	case bool:
		return Bool(x), nil
	case nil:
		return Value{}, fmt.Errorf("null is not a valid render option value")
	default:
		return Value{}, fmt.Errorf("%T is not a valid render option value (want string, number or bool)", raw)
	}
}

// RenderOptions maps compiler option names to values
type RenderOptions map[string]Value

// Clone returns a copy that can be modified without affecting r
func (r RenderOptions) Clone() RenderOptions {
	out := make(RenderOptions, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether key is set
func (r RenderOptions) Has(key string) bool {
	_, ok := r[key]
	return ok
}
