package config

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/golobby/cast"
)

// Config is a read-only view of a decoded settings document.
//
// Accessors never fail: a missing key or a value of the wrong shape yields
// the caller's default. Settings often arrive as strings (environment
// overrides, dashboard exports), so numeric and boolean accessors coerce
// string values with golobby/cast.
type Config struct {
	data map[string]any
}

var (
	typeInt     = reflect.TypeOf(int(0))
	typeFloat64 = reflect.TypeOf(float64(0))
	typeBool    = reflect.TypeOf(false)
)

// New wraps data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// coerce converts a string setting to typ.
func coerce(s string, typ reflect.Type) (any, bool) {
	v, err := cast.FromType(strings.TrimSpace(s), typ)
	if err != nil {
		return nil, false
	}
	return v, true
}

// String returns the string at key. Non-string values yield defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration at key. Strings are parsed with
// time.ParseDuration; bare numbers, and numeric strings, are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.data[key].(type) {
	case time.Duration:
		return val
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d
		}
		if f, ok := coerce(val, typeFloat64); ok {
			return time.Duration(f.(float64) * float64(time.Second))
		}
	}
	return defaultVal
}

// Bool returns the boolean at key. Strings accepted by strconv.ParseBool
// are coerced.
func (c Config) Bool(key string, defaultVal bool) bool {
	switch val := c.data[key].(type) {
	case bool:
		return val
	case string:
		if b, ok := coerce(val, typeBool); ok {
			return b.(bool)
		}
	}
	return defaultVal
}

// Int returns the integer at key. Floats convert only when they carry no
// fractional part.
func (c Config) Int(key string, defaultVal int) int {
	switch val := c.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	case string:
		if n, ok := coerce(val, typeInt); ok {
			return n.(int)
		}
	}
	return defaultVal
}

// Float returns the float at key.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch val := c.data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, ok := coerce(val, typeFloat64); ok {
			return f.(float64)
		}
	}
	return defaultVal
}

// StringSlice returns the list at key. A single string is split on commas,
// so "kafka-1:9092, kafka-2:9092" and a YAML list read the same. A list
// holding a non-string yields defaultVal.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch val := c.data[key].(type) {
	case []string:
		return val
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Sub returns the section at key. Missing or non-map values yield an empty
// Config, so lookups chain without nil checks:
//
//	cfg.Sub("plan").Sub("track").Sub("Signed Up").Bool("enabled", true)
func (c Config) Sub(key string) Config {
	switch val := c.data[key].(type) {
	case map[string]any:
		return New(val)
	case Config:
		return val
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, item := range val {
			if s, ok := k.(string); ok {
				converted[s] = item
			}
		}
		return New(converted)
	}
	return New(nil)
}

// Keys returns the top-level keys, sorted.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Any returns the raw value at key.
func (c Config) Any(key string, defaultVal any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return defaultVal
}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Len returns the number of top-level keys.
func (c Config) Len() int { return len(c.data) }

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any { return c.data }
