package dotpath

// Clone deep-copies maps and slices; other values are shared
func Clone(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}
	out, _ := cloneValue(tree).(map[string]any)
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// IsEmpty reports whether v is nil or the empty string
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}

// Compact returns a copy of tree with every empty value removed from maps.
// Slice elements that are empty become nil so positions are preserved.
func Compact(tree map[string]any) map[string]any {
	out, _ := compactValue(tree).(map[string]any)
	return out
}

func compactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsEmpty(val) {
				continue
			}
			out[k] = compactValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			if IsEmpty(val) {
				continue
			}
			out[i] = compactValue(val)
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return t
	default:
		return v
	}
}

// HasValue reports whether tree holds any non-empty leaf
func HasValue(tree map[string]any) bool {
	return hasValue(tree)
}

func hasValue(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for _, val := range t {
			if hasValue(val) {
				return true
			}
		}
		return false
	case []any:
		for _, val := range t {
			if hasValue(val) {
				return true
			}
		}
		return false
	default:
		return !IsEmpty(v)
	}
}
