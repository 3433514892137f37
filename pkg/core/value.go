package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Value is the closed set of values that can travel through a command:
// Null, String, Bool, Int, Float, Map and List.
type Value interface {
	appendJSON(buf *bytes.Buffer) error
}

// Null is the absent value. It normalizes to the empty string.
type Null struct{}

// String is text. It normalizes to itself, unquoted.
type String string

// Bool normalizes to true or false.
type Bool bool

// Int is an integral number.
type Int int64

// Float is a floating point number. NaN and infinities cannot be normalized.
// Integral values keep a trailing ".0" so they stay distinct from Int.
type Float float64

// float32Value renders at single precision so float32(0.1) stays "0.1".
type float32Value float32

// Field is one entry of a Map.
type Field struct {
	Key   string
	Value Value
}

// Map is an ordered mapping. Fields are rendered in slice order.
type Map []Field

// List is a sequence of values.
type List []Value

// rawJSON holds an already encoded JSON document for values that were
// lifted through encoding/json.
type rawJSON []byte

func (Null) appendJSON(buf *bytes.Buffer) error {
	buf.WriteString("null")
	return nil
}

func (s String) appendJSON(buf *bytes.Buffer) error {
	return encodeJSON(buf, string(s))
}

func (b Bool) appendJSON(buf *bytes.Buffer) error {
	if b {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
	return nil
}

func (i Int) appendJSON(buf *bytes.Buffer) error {
	fmt.Fprintf(buf, "%d", int64(i))
	return nil
}

func (f Float) appendJSON(buf *bytes.Buffer) error {
	return appendFloat(buf, float64(f), 64)
}

func (f float32Value) appendJSON(buf *bytes.Buffer) error {
	return appendFloat(buf, float64(f), 32)
}

// appendFloat writes the shortest representation of f at the given bit size,
// using the same exponent cutoffs as encoding/json.
func appendFloat(buf *bytes.Buffer, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: unsupported float value %v", ErrSerialization, f)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	b := strconv.AppendFloat(nil, f, format, -1, bits)
	if format == 'e' {
		// 1e-07 becomes 1e-7
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, ".0"...)
	}
	buf.Write(b)
	return nil
}

func (m Map) appendJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeJSON(buf, f.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := valueOrNull(f.Value).appendJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (l List) appendJSON(buf *bytes.Buffer) error {
	buf.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := valueOrNull(v).appendJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func (r rawJSON) appendJSON(buf *bytes.Buffer) error {
	buf.Write(r)
	return nil
}

func valueOrNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// encodeJSON writes the compact encoding of v without a trailing newline and
// without escaping HTML characters.
func encodeJSON(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// ValueOf lifts a Go value into a Value. Maps with string keys become a Map
// with sorted keys, since Go maps carry no insertion order. Errors become
// their message. Types without a direct mapping are encoded with
// encoding/json; failures are reported as ErrSerialization.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case float32:
		return float32Value(x), nil
	case float64:
		return Float(x), nil
	case error:
		return String(x.Error()), nil
	case []string:
		l := make(List, len(x))
		for i, s := range x {
			l[i] = String(s)
		}
		return l, nil
	case []any:
		l := make(List, len(x))
		for i, item := range x {
			iv, err := ValueOf(item)
			if err != nil {
				return nil, err
			}
			l[i] = iv
		}
		return l, nil
	case map[string]string:
		m := make(Map, 0, len(x))
		for _, k := range sortedKeys(x) {
			m = append(m, Field{Key: k, Value: String(x[k])})
		}
		return m, nil
	case map[string]any:
		m := make(Map, 0, len(x))
		for _, k := range sortedKeys(x) {
			fv, err := ValueOf(x[k])
			if err != nil {
				return nil, err
			}
			m = append(m, Field{Key: k, Value: fv})
		}
		return m, nil
	}

	var buf bytes.Buffer
	if err := encodeJSON(&buf, v); err != nil {
		return nil, err
	}
	return rawJSON(buf.Bytes()), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize converts v into the string carried by a command: empty for
// nil, the text itself for strings and compact JSON for everything else.
func Normalize(v any) (string, error) {
	val, err := ValueOf(v)
	if err != nil {
		return "", err
	}
	switch x := val.(type) {
	case Null:
		return "", nil
	case String:
		return string(x), nil
	}
	var buf bytes.Buffer
	if err := val.appendJSON(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// isAbsent reports whether v is nil or the Null value.
func isAbsent(v any) bool {
	switch v.(type) {
	case nil, Null:
		return true
	}
	return false
}
