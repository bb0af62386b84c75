// Package dotpath reads and writes nested map[string]any trees addressed by
// dot-separated paths such as "address.city" or "items.0.name".
//
// Writes never mutate their input: Set copies only the maps and slices along
// the touched path and shares every other branch with the original tree.
package dotpath

import (
	"strconv"
	"strings"
)

// Split breaks a path into segments. Bracket indices are accepted, so
// "items[0].name" and "items.0.name" are the same path.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	parts := strings.Split(path, ".")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Join is the inverse of Split
func Join(segs ...string) string {
	return strings.Join(segs, ".")
}

// Get returns the value at path
func Get(tree map[string]any, path string) (any, bool) {
	if tree == nil {
		return nil, false
	}
	return getIn(tree, Split(path))
}

func getIn(node any, segs []string) (any, bool) {
	if len(segs) == 0 {
		return node, true
	}
	seg := segs[0]
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[seg]
		if !ok {
			return nil, false
		}
		return getIn(child, segs[1:])
	case []any:
		idx, ok := index(seg)
		if !ok || idx >= len(n) {
			return nil, false
		}
		return getIn(n[idx], segs[1:])
	default:
		return nil, false
	}
}

// Set returns a copy of tree with value stored at path.
// Missing intermediates are created: a slice when the next segment is numeric, a map otherwise.
func Set(tree map[string]any, path string, value any) map[string]any {
	segs := Split(path)
	if len(segs) == 0 {
		if m, ok := value.(map[string]any); ok {
			return m
		}
		return tree
	}
	var root any = tree
	if tree == nil {
		root = map[string]any{}
	}
	out, _ := setIn(root, segs, value).(map[string]any)
	return out
}

func setIn(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	seg, rest := segs[0], segs[1:]

	if idx, ok := index(seg); ok {
		if s, isSlice := node.([]any); isSlice || node == nil {
			size := len(s)
			if idx >= size {
				size = idx + 1
			}
			out := make([]any, size)
			copy(out, s)
			out[idx] = setIn(out[idx], rest, value)
			return out
		}
	}

	src, _ := node.(map[string]any)
	out := make(map[string]any, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	out[seg] = setIn(src[seg], rest, value)
	return out
}

func index(seg string) (int, bool) {
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
