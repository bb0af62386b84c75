package list

import (
	"context"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/devesharp/statehooks/pkg/dotpath"
)

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders results by one column
type Sort struct {
	Column    string
	Direction Direction
}

// Filters is the query sent to the list resolver
type Filters struct {
	Offset int
	Limit  int
	Sort   *Sort
	Fields map[string]any
}

// Clone returns a deep copy
func (f Filters) Clone() Filters {
	out := Filters{
		Offset: f.Offset,
		Limit:  f.Limit,
		Fields: dotpath.Clone(f.Fields),
	}
	if f.Sort != nil {
		s := *f.Sort
		out.Sort = &s
	}
	return out
}

// filterValues has the fields of Filters without its Equal method, which
// cmp would otherwise call back into
type filterValues Filters

// Equal reports whether both filters describe the same query.
// A nil and an empty Fields map are equal.
func (f Filters) Equal(o Filters) bool {
	return cmp.Equal(filterValues(f), filterValues(o), cmpopts.EquateEmpty())
}

// Page returns the zero-based page index
func (f Filters) Page() int {
	if f.Limit <= 0 {
		return 0
	}
	return f.Offset / f.Limit
}

// merge applies fields on top of f; a nil value deletes the key
func (f Filters) merge(fields map[string]any) Filters {
	out := f.Clone()
	if out.Fields == nil {
		out.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		if v == nil {
			delete(out.Fields, k)
			continue
		}
		out.Fields[k] = v
	}
	return out
}

// Page is what a list resolver returns: one page of results and the total count
type Page[T any] struct {
	Results []T
	Count   int
}

// ResolveFunc fetches one page for the given filters
type ResolveFunc[T any] func(ctx context.Context, filters Filters) (Page[T], error)

// SearchOutcome is reported after every search cycle
type SearchOutcome[T any] struct {
	Success bool
	Data    Page[T]
	Err     error
	Filters Filters
}

// FilterCodec converts filters to and from a query string
type FilterCodec interface {
	Encode(filters Filters) (string, error)
	Decode(encoded string) (Filters, error)
}
