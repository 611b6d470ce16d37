package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/golobby/cast"
)

// ValueMap is an insertion-ordered map of string keys to arbitrary values.
//
// A ValueMap is mutable while it is being built. Payload constructors take a
// deep copy, so a map handed to a payload can be reused or changed by the
// caller without affecting the payload. Every read method accepts a nil
// receiver and treats it as empty.
type ValueMap struct {
	keys   []string
	values map[string]any
}

// Properties describe a tracked event or screen.
type Properties = ValueMap

// Traits describe a user or a group.
type Traits = ValueMap

var (
	typeInt     = reflect.TypeOf(int(0))
	typeFloat64 = reflect.TypeOf(float64(0))
	typeBool    = reflect.TypeOf(false)
)

// NewValueMap returns an empty map.
func NewValueMap() *ValueMap {
	return &ValueMap{values: make(map[string]any)}
}

// FromMap builds a ValueMap from m. Keys are inserted in sorted order since
// Go maps carry none.
func FromMap(m map[string]any) *ValueMap {
	v := NewValueMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Put(k, m[k])
	}
	return v
}

// Put sets key to value and returns the map for chaining. Re-putting an
// existing key keeps its original position.
func (v *ValueMap) Put(key string, value any) *ValueMap {
	if v.values == nil {
		v.values = make(map[string]any)
	}
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
	return v
}

// PutAll copies every entry of other into v, in other's order.
func (v *ValueMap) PutAll(other *ValueMap) *ValueMap {
	other.Range(func(k string, val any) bool {
		v.Put(k, cloneValue(val))
		return true
	})
	return v
}

// Remove deletes key.
func (v *ValueMap) Remove(key string) *ValueMap {
	if v == nil {
		return v
	}
	if _, ok := v.values[key]; !ok {
		return v
	}
	delete(v.values, key)
	for i, k := range v.keys {
		if k == key {
			v.keys = append(v.keys[:i:i], v.keys[i+1:]...)
			break
		}
	}
	return v
}

// Get returns the raw value for key.
func (v *ValueMap) Get(key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v.values[key]
	return val, ok
}

// Has reports whether key is present.
func (v *ValueMap) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Len returns the number of entries.
func (v *ValueMap) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the keys in insertion order.
func (v *ValueMap) Keys() []string {
	if v == nil {
		return nil
	}
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
func (v *ValueMap) Range(fn func(key string, value any) bool) {
	if v == nil {
		return
	}
	for _, k := range v.keys {
		if !fn(k, v.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy. Cloning nil yields an empty map.
func (v *ValueMap) Clone() *ValueMap {
	c := NewValueMap()
	if v == nil {
		return c
	}
	c.keys = make([]string, len(v.keys))
	copy(c.keys, v.keys)
	for k, val := range v.values {
		c.values[k] = cloneValue(val)
	}
	return c
}

// Map returns a deep copy as a plain map. Nested ValueMaps become maps too.
func (v *ValueMap) Map() map[string]any {
	m := make(map[string]any, v.Len())
	v.Range(func(k string, val any) bool {
		m[k] = plainValue(val)
		return true
	})
	return m
}

// String returns the value for key rendered as a string, or def.
func (v *ValueMap) String(key, def string) string {
	val, ok := v.Get(key)
	if !ok || val == nil {
		return def
	}
	switch t := val.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(val)
}

// Int returns the value for key as an int, or def. Strings are coerced.
func (v *ValueMap) Int(key string, def int) int {
	val, ok := v.Get(key)
	if !ok {
		return def
	}
	switch t := val.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		if t == float32(int(t)) {
			return int(t)
		}
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := cast.FromType(t, typeInt); err == nil {
			if i, ok := n.(int); ok {
				return i
			}
		}
	}
	return def
}

// Float returns the value for key as a float64, or def. Strings are coerced.
func (v *ValueMap) Float(key string, def float64) float64 {
	val, ok := v.Get(key)
	if !ok {
		return def
	}
	switch t := val.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := cast.FromType(t, typeFloat64); err == nil {
			if fl, ok := f.(float64); ok {
				return fl
			}
		}
	}
	return def
}

// Bool returns the value for key as a bool, or def. Strings are coerced.
func (v *ValueMap) Bool(key string, def bool) bool {
	val, ok := v.Get(key)
	if !ok {
		return def
	}
	switch t := val.(type) {
	case bool:
		return t
	case string:
		if b, err := cast.FromType(t, typeBool); err == nil {
			if bl, ok := b.(bool); ok {
				return bl
			}
		}
	}
	return def
}

// ValueMap returns the nested map at key. Plain maps are converted.
// Missing or non-map values yield nil.
func (v *ValueMap) ValueMap(key string) *ValueMap {
	val, ok := v.Get(key)
	if !ok {
		return nil
	}
	switch t := val.(type) {
	case *ValueMap:
		return t
	case map[string]any:
		return FromMap(t)
	}
	return nil
}

// MarshalJSON renders the map as a JSON object in insertion order.
func (v *ValueMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	v.Range(func(k string, val any) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		var kb, vb []byte
		if kb, err = json.Marshal(k); err != nil {
			return false
		}
		if vb, err = json.Marshal(val); err != nil {
			err = fmt.Errorf("marshal %q: %w", k, err)
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
// Nested objects decode as *ValueMap.
func (v *ValueMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	decoded, err := decodeValue(dec)
	if err != nil {
		return err
	}
	m, ok := decoded.(*ValueMap)
	if !ok {
		return fmt.Errorf("payload: expected JSON object, got %T", decoded)
	}
	*v = *m
	return nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewValueMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("payload: invalid object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.Put(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("payload: unexpected delimiter %v", t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

func cloneValue(val any) any {
	switch t := val.(type) {
	case *ValueMap:
		return t.Clone()
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = cloneValue(item)
		}
		return m
	case []any:
		list := make([]any, len(t))
		for i, item := range t {
			list[i] = cloneValue(item)
		}
		return list
	case []string:
		list := make([]string, len(t))
		copy(list, t)
		return list
	}
	return val
}

func plainValue(val any) any {
	switch t := val.(type) {
	case *ValueMap:
		return t.Map()
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = plainValue(item)
		}
		return m
	case []any:
		list := make([]any, len(t))
		for i, item := range t {
			list[i] = plainValue(item)
		}
		return list
	}
	return cloneValue(val)
}
