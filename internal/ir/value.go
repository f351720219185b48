package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// IRValue is a sealed interface for operation parameter values.
// Only IRString, IRInt, IRBool, IRArray, and IRObject implement it.
// There is no float variant: scalars are carried as decimal text so that
// fingerprints never depend on float formatting.
type IRValue interface {
	irValue()
}

// IRString is a string parameter value.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer parameter value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool is a boolean parameter value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject maps string keys to values. Use SortedKeys for deterministic
// iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// IRPair is a key-value pair for typed IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// P is a shorthand for IRPair.
// Example: Params(P("rhs", IRString("2.0")), P("dim", IRInt(1)))
func P(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// Params builds an IRObject from pairs. Later pairs win on duplicate keys.
func Params(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in UTF-16 code unit order, the order canonical
// JSON requires. Go's native string order is UTF-8 and differs for
// characters outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// CloneValue deep-copies a value. Arrays and objects are copied so the
// result shares no mutable storage with v.
func CloneValue(v IRValue) IRValue {
	switch val := v.(type) {
	case IRArray:
		if val == nil {
			return IRArray(nil)
		}
		out := make(IRArray, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	case IRObject:
		return val.Clone()
	default:
		return v
	}
}

// Clone deep-copies the object. A nil object clones to nil.
func (obj IRObject) Clone() IRObject {
	if obj == nil {
		return nil
	}
	out := make(IRObject, len(obj))
	for k, v := range obj {
		out[k] = CloneValue(v)
	}
	return out
}

// FormatValue renders a value for human-readable descriptors.
// Objects render as {k=v, ...} with sorted keys, arrays as [a, b].
func FormatValue(v IRValue) string {
	switch val := v.(type) {
	case IRString:
		return string(val)
	case IRInt:
		return fmt.Sprintf("%d", int64(val))
	case IRBool:
		return fmt.Sprintf("%t", bool(val))
	case IRArray:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = FormatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case IRObject:
		keys := val.SortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + FormatValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FromGo converts a decoded Go value (from JSON, YAML or CUE) to an IRValue.
// Floats and nulls are rejected.
func FromGo(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a valid parameter value")
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are forbidden in params: %s", val)
		}
		return IRInt(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in params: %v (quote scalars as text)", val)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %T", v)
	}
}

// MarshalJSON writes the object with sorted keys.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for
// fingerprints.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := marshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case IRArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case IRObject:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

// UnmarshalJSON decodes an object, rejecting floats and nulls.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(IRObject, len(raw))
	for k, v := range raw {
		irVal, err := FromGo(v)
		if err != nil {
			return fmt.Errorf("IRObject key %q: %w", k, err)
		}
		out[k] = irVal
	}
	*obj = out
	return nil
}
