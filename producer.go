package statehooks

import (
	"context"
	"fmt"
	"sort"
)

// ProducerKind identifies the shape of a producer
type ProducerKind string

const (
	// KindUndefined marks a declared key with no producer behind it
	KindUndefined ProducerKind = ""
	// KindSync is a plain function called without a context
	KindSync ProducerKind = "sync"
	// KindAsync is a context-aware function
	KindAsync ProducerKind = "async"
	// KindDeferred is a pre-created future
	KindDeferred ProducerKind = "deferred"
)

// Producer is a unit of work yielding a value, possibly asynchronously
type Producer struct {
	kind     ProducerKind
	sync     func() (any, error)
	async    func(ctx context.Context) (any, error)
	deferred *Future
}

// ResolverMap names the producers that run together as one load
type ResolverMap map[string]Producer

// Sync wraps a function that returns its value directly
func Sync(fn func() (any, error)) Producer {
	if fn == nil {
		return Producer{}
	}
	return Producer{kind: KindSync, sync: fn}
}

// Async wraps a context-aware function
func Async(fn func(ctx context.Context) (any, error)) Producer {
	if fn == nil {
		return Producer{}
	}
	return Producer{kind: KindAsync, async: fn}
}

// Deferred wraps a future that may already be running
func Deferred(f *Future) Producer {
	if f == nil {
		return Producer{}
	}
	return Producer{kind: KindDeferred, deferred: f}
}

// Value wraps a constant
func Value(v any) Producer {
	return Deferred(Resolved(v))
}

// Kind returns the producer shape
func (p Producer) Kind() ProducerKind {
	return p.kind
}

// Defined reports whether the producer has something to run
func (p Producer) Defined() bool {
	return p.kind != KindUndefined
}

// invoke normalizes every producer shape into one blocking call.
// A function result that is itself a *Future is awaited.
func (p Producer) invoke(ctx context.Context) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, newPanicError(r)
		}
	}()

	switch p.kind {
	case KindSync:
		val, err = p.sync()
	case KindAsync:
		val, err = p.async(ctx)
	case KindDeferred:
		return p.deferred.Await(ctx)
	case KindUndefined:
		return nil, ErrResolverNotFound
	default:
		return nil, fmt.Errorf("unknown producer kind %q", p.kind)
	}

	if err != nil {
		return nil, err
	}
	if f, ok := val.(*Future); ok {
		return f.Await(ctx)
	}
	return val, nil
}

// Keys returns the resolver keys in a stable order
func (m ResolverMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the map
func (m ResolverMap) Clone() ResolverMap {
	out := make(ResolverMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
