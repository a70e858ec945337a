package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Properties is the JSON-shaped configuration bag carried by nodes and schedules.
type Properties map[string]any

func (p Properties) Has(key string) bool {
	_, ok := p[key]

	return ok
}

func (p Properties) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}

	if s, ok := v.(string); ok {
		return s
	}

	return Stringify(v)
}

func (p Properties) Float(key string, def float64) float64 {
	if f, ok := ToFloat(p[key]); ok {
		return f
	}

	return def
}

func (p Properties) Int(key string, def int) int {
	if f, ok := ToFloat(p[key]); ok {
		return int(f)
	}

	return def
}

func (p Properties) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	return def
}

// Map returns a nested map, accepting both map[string]any and Properties.
func (p Properties) Map(key string) map[string]any {
	return AsMap(p[key])
}

func (p Properties) Slice(key string) []any {
	switch v := p[key].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}

		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}

		return out
	}

	return nil
}

func AsMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Properties:
		return m
	case ExecutionContext:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}

		return out
	}

	return nil
}

// ToFloat coerces numbers and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)

		return f, err == nil
	}

	return 0, false
}

// Stringify renders a value the way templates display it: integral floats
// lose their fraction and containers become JSON.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(s)
	case json.Number:
		return s.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(data)
}

// ToBool converts loosely typed values to a boolean. nil and the empty
// string count as false.
func ToBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case string:
		if strings.TrimSpace(b) == "" {
			return false, nil
		}

		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("cannot convert string %q to boolean: %w", b, err)
		}

		return parsed, nil
	}

	if f, ok := ToFloat(v); ok {
		return f != 0, nil
	}

	return false, fmt.Errorf("cannot convert %T to boolean", v)
}

// Strings returns a list property. A comma-separated string is split.
func (p Properties) Strings(key string) []string {
	if s, ok := p[key].(string); ok {
		var out []string

		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}

		return out
	}

	items := p.Slice(key)
	out := make([]string, 0, len(items))

	for _, item := range items {
		out = append(out, Stringify(item))
	}

	return out
}
