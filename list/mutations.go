package list

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/imdario/mergo"
)

// ErrPositionOutOfRange is returned by ChangePosition for an invalid index
var ErrPositionOutOfRange = errors.New("position out of range")

// PushResource appends item. Total and offset advance by one so the next page
// does not fetch the item again.
func (a *Accumulator[T]) PushResource(item T) {
	a.mu.Lock()
	a.st.Items = append(append([]T(nil), a.st.Items...), item)
	a.st.Total++
	a.st.Filters.Offset++
	a.mu.Unlock()
	a.publish()
}

// UpdateResource replaces the item with the given id
func (a *Accumulator[T]) UpdateResource(id any, item T) bool {
	a.mu.Lock()
	i := a.indexOf(id)
	if i < 0 {
		a.mu.Unlock()
		return false
	}
	items := append([]T(nil), a.st.Items...)
	items[i] = item
	a.st.Items = items
	a.mu.Unlock()
	a.publish()
	return true
}

// PutResource merges the non-zero fields of patch into the item with the given id
func (a *Accumulator[T]) PutResource(id any, patch T) (bool, error) {
	a.mu.Lock()
	i := a.indexOf(id)
	if i < 0 {
		a.mu.Unlock()
		return false, nil
	}
	merged, err := mergeResource(a.st.Items[i], patch)
	if err != nil {
		a.mu.Unlock()
		return false, fmt.Errorf("merging resource %v: %w", id, err)
	}
	items := append([]T(nil), a.st.Items...)
	items[i] = merged
	a.st.Items = items
	a.mu.Unlock()
	a.publish()
	return true, nil
}

// PutManyResources merges every patch into the item sharing its id
func (a *Accumulator[T]) PutManyResources(patches ...T) error {
	var errs []error
	for _, patch := range patches {
		if _, err := a.PutResource(a.idOf(patch), patch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeleteResource removes the item with the given id and decrements the total
func (a *Accumulator[T]) DeleteResource(id any) bool {
	return a.DeleteManyResources(id) == 1
}

// DeleteManyResources removes every item whose id is listed and returns how many were removed
func (a *Accumulator[T]) DeleteManyResources(ids ...any) int {
	drop := make(map[any]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	a.mu.Lock()
	items := make([]T, 0, len(a.st.Items))
	for _, item := range a.st.Items {
		if !drop[a.idOf(item)] {
			items = append(items, item)
		}
	}
	removed := len(a.st.Items) - len(items)
	a.st.Items = items
	a.st.Total = max(0, a.st.Total-removed)
	a.mu.Unlock()

	if removed > 0 {
		a.publish()
	}
	return removed
}

// ChangePosition moves the item at index from to index to
func (a *Accumulator[T]) ChangePosition(from, to int) error {
	a.mu.Lock()
	n := len(a.st.Items)
	if from < 0 || from >= n || to < 0 || to >= n {
		a.mu.Unlock()
		return fmt.Errorf("%w: move %d to %d in %d items", ErrPositionOutOfRange, from, to, n)
	}
	items := append([]T(nil), a.st.Items...)
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]T{item}, items[to:]...)...)
	a.st.Items = items
	a.mu.Unlock()
	a.publish()
	return nil
}

// indexOf finds an item by id; callers hold a.mu
func (a *Accumulator[T]) indexOf(id any) int {
	for i, item := range a.st.Items {
		if a.idOf(item) == id {
			return i
		}
	}
	return -1
}

// defaultID reads "id" from map items or the ID field from struct items
func defaultID[T any](item T) any {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		id := v.MapIndex(reflect.ValueOf("id").Convert(v.Type().Key()))
		if !id.IsValid() {
			return nil
		}
		return id.Interface()
	case reflect.Struct:
		for _, name := range []string{"ID", "Id"} {
			if f := v.FieldByName(name); f.IsValid() && f.CanInterface() {
				return f.Interface()
			}
		}
	}
	return nil
}

// mergeResource copies dst before merging so earlier snapshots keep their items
func mergeResource[T any](dst, patch T) (T, error) {
	v := reflect.ValueOf(dst)
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return patch, nil
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		merged := cp.Interface().(T)
		if err := mergo.Merge(&merged, patch, mergo.WithOverride); err != nil {
			return dst, err
		}
		return merged, nil

	case reflect.Ptr:
		pv := reflect.ValueOf(patch)
		if pv.IsNil() {
			return dst, nil
		}
		if v.IsNil() {
			return patch, nil
		}
		cp := reflect.New(v.Elem().Type())
		cp.Elem().Set(v.Elem())
		if err := mergo.Merge(cp.Interface(), pv.Elem().Interface(), mergo.WithOverride); err != nil {
			return dst, err
		}
		return cp.Interface().(T), nil

	default:
		merged := dst
		if err := mergo.Merge(&merged, patch, mergo.WithOverride); err != nil {
			return dst, err
		}
		return merged, nil
	}
}
