package models

// ExecutionContext is the key-value state threaded through one execution.
// The engine owns the live map; executors only ever see a Clone.
type ExecutionContext map[string]any

// Clone deep-copies nested maps and slices so a snapshot cannot alias the
// live context.
func (c ExecutionContext) Clone() ExecutionContext {
	if c == nil {
		return ExecutionContext{}
	}

	out := make(ExecutionContext, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}

	return out
}

// Merge applies delta on top of c, last write wins per top-level key.
func (c ExecutionContext) Merge(delta map[string]any) {
	for k, v := range delta {
		c[k] = cloneValue(v)
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}

		return m
	case ExecutionContext:
		return map[string]any(t.Clone())
	case Properties:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}

		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}

		return s
	case []map[string]any:
		s := make([]map[string]any, len(t))
		for i, vv := range t {
			s[i], _ = cloneValue(vv).(map[string]any)
		}

		return s
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, vv := range t {
			m[k] = vv
		}

		return m
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
