// Package template provides ${path.to.var} substitution for user-authored node properties.
package template

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/models"
)

var tokenPattern = regexp.MustCompile(`\$\{([^{}]+)\}`)

// HasMarkers reports whether s contains at least one ${...} token.
func HasMarkers(s string) bool {
	return strings.Contains(s, "${") && tokenPattern.MatchString(s)
}

// IsToken reports whether s is exactly one ${...} token, as left behind
// when a path could not be resolved.
func IsToken(s string) bool {
	m := tokenPattern.FindStringIndex(s)

	return m != nil && m[0] == 0 && m[1] == len(s)
}

// Render replaces every ${a.b.c} token with the value found by walking data.
//
// A root key that does not exist, or a walk through a value that is not a
// container, leaves the token untouched. A missing key below an existing map
// renders as the empty string. Render never fails.
func Render(tmpl string, data map[string]any) string {
	if !strings.Contains(tmpl, "${") {
		return tmpl
	}

	return tokenPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		path := strings.TrimSpace(token[2 : len(token)-1])

		value, ok := resolve(data, path)
		if !ok {
			return token
		}

		return models.Stringify(value)
	})
}

// RenderValue renders strings inside arbitrarily nested maps and slices.
// A string made of exactly one token yields the resolved value with its
// original type, so "${order.total}" stays a number.
func RenderValue(v any, data map[string]any) any {
	switch t := v.(type) {
	case string:
		if m := tokenPattern.FindStringSubmatchIndex(t); m != nil && m[0] == 0 && m[1] == len(t) {
			if value, ok := resolve(data, strings.TrimSpace(t[m[2]:m[3]])); ok {
				return value
			}

			return t
		}

		return Render(t, data)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = RenderValue(vv, data)
		}

		return out
	case models.Properties:
		return RenderValue(map[string]any(t), data)
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Render(vv, data)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = RenderValue(vv, data)
		}

		return out
	case []string:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = Render(vv, data)
		}

		return out
	default:
		return v
	}
}

// RenderMap renders every value of m; nil in, nil out.
func RenderMap(m map[string]any, data map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out, _ := RenderValue(m, data).(map[string]any)

	return out
}

// RenderStrings renders a string map such as HTTP headers or query params.
func RenderStrings(m map[string]any, data map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = Render(s, data)
		} else {
			out[k] = models.Stringify(RenderValue(v, data))
		}
	}

	return out
}

// Lookup walks a dotted path and reports whether every segment exists.
func Lookup(data map[string]any, path string) (any, bool) {
	var current any = data

	for _, segment := range strings.Split(strings.TrimSpace(path), ".") {
		segment = strings.TrimSpace(segment)

		if m := models.AsMap(current); m != nil {
			next, ok := m[segment]
			if !ok {
				return nil, false
			}

			current = next

			continue
		}

		items, ok := current.([]any)
		if !ok {
			return nil, false
		}

		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(items) {
			return nil, false
		}

		current = items[idx]
	}

	return current, true
}

// resolve implements Render's lookup rules; ok=false means leave the token.
func resolve(data map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")

	root := strings.TrimSpace(segments[0])
	current, ok := data[root]
	if root == "" || !ok {
		return nil, false
	}

	for _, segment := range segments[1:] {
		segment = strings.TrimSpace(segment)

		if current == nil {
			return nil, true
		}

		if m := models.AsMap(current); m != nil {
			current = m[segment]

			continue
		}

		items, isSlice := current.([]any)
		if !isSlice {
			return nil, false
		}

		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, false
		}

		if idx < 0 || idx >= len(items) {
			return nil, true
		}

		current = items[idx]
	}

	return current, true
}
