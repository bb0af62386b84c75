package validation

import (
	"sort"

	"github.com/devesharp/statehooks/pkg/dotpath"
)

// FieldErrors maps field paths to messages. In the nested shape the map
// mirrors the record, with messages at the leaves.
type FieldErrors map[string]any

// Len counts messages
func (f FieldErrors) Len() int {
	return len(f.Flatten())
}

// Empty reports whether there are no messages
func (f FieldErrors) Empty() bool {
	return f.Len() == 0
}

// Get returns the message for a dot path in either shape
func (f FieldErrors) Get(path string) (string, bool) {
	if msg, ok := f[path].(string); ok {
		return msg, true
	}
	v, ok := dotpath.Get(f, path)
	if !ok {
		return "", false
	}
	msg, ok := v.(string)
	return msg, ok
}

// Flatten converts either shape into dot paths
func (f FieldErrors) Flatten() map[string]string {
	out := make(map[string]string)
	flatten("", map[string]any(f), out)
	return out
}

// Fields returns the flattened paths in order
func (f FieldErrors) Fields() []string {
	flat := f.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case string:
			out[key] = t
		case map[string]any:
			flatten(key, t, out)
		case FieldErrors:
			flatten(key, t, out)
		}
	}
}
