package statehooks

import (
	"context"
	"sync"
)

// Future is a value that settles exactly once, either resolved or rejected
type Future struct {
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

// NewFuture creates an unsettled future
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already settled with val
func Resolved(val any) *Future {
	f := NewFuture()
	f.Resolve(val)
	return f
}

// Rejected returns a future already settled with reason
func Rejected(reason any) *Future {
	f := NewFuture()
	f.Reject(reason)
	return f
}

// Go runs fn on its own goroutine and returns a future for its outcome.
// A panic inside fn rejects the future with a *PanicError.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f := NewFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(newPanicError(r))
			}
		}()
		val, err := fn(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(val)
	}()
	return f
}

// Resolve settles the future with val. Later calls are ignored.
func (f *Future) Resolve(val any) {
	f.once.Do(func() {
		f.val = val
		close(f.done)
	})
}

// Reject settles the future with a failure. Non-error reasons are normalized.
func (f *Future) Reject(reason any) {
	err := NormalizeError(reason)
	if err == nil {
		err = &ThrownValue{Value: reason}
	}
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future settles
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has a value or failure
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx ends
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
