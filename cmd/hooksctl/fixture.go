package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devesharp/statehooks/list"
)

// fixture is an in-memory table of records read from YAML
type fixture struct {
	records []map[string]any
	nextID  int
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	var records []map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	f := &fixture{records: records}
	for _, r := range records {
		if id, ok := r["id"].(int); ok && id >= f.nextID {
			f.nextID = id + 1
		}
	}
	return f, nil
}

// search filters by exact field match, sorts and pages the records
func (f *fixture) search(ctx context.Context, filters list.Filters) (list.Page[map[string]any], error) {
	if err := ctx.Err(); err != nil {
		return list.Page[map[string]any]{}, err
	}

	var matched []map[string]any
	for _, r := range f.records {
		if matches(r, filters.Fields) {
			matched = append(matched, r)
		}
	}

	if s := filters.Sort; s != nil && s.Column != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := fmt.Sprint(matched[i][s.Column]), fmt.Sprint(matched[j][s.Column])
			if s.Direction == list.Desc {
				return b < a
			}
			return a < b
		})
	}

	start := min(max(0, filters.Offset), len(matched))
	end := min(start+filters.Limit, len(matched))
	return list.Page[map[string]any]{Results: matched[start:end], Count: len(matched)}, nil
}

func matches(r map[string]any, fields map[string]any) bool {
	for k, want := range fields {
		if fmt.Sprint(r[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func (f *fixture) find(id any) (map[string]any, bool) {
	for _, r := range f.records {
		if fmt.Sprint(r["id"]) == fmt.Sprint(id) {
			return r, true
		}
	}
	return nil, false
}

func (f *fixture) insert(r map[string]any) map[string]any {
	out := make(map[string]any, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out["id"] = f.nextID
	f.nextID++
	f.records = append(f.records, out)
	return out
}

func (f *fixture) replace(id any, r map[string]any) (map[string]any, bool) {
	for i, existing := range f.records {
		if fmt.Sprint(existing["id"]) == fmt.Sprint(id) {
			out := make(map[string]any, len(r))
			for k, v := range r {
				out[k] = v
			}
			out["id"] = existing["id"]
			f.records[i] = out
			return out, true
		}
	}
	return nil, false
}

// parseAssignments turns key=value pairs into a map, decoding each value as YAML
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		var val any
		if err := yaml.Unmarshal([]byte(v), &val); err != nil {
			return nil, fmt.Errorf("value of %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func readYAMLMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}
