package list

import (
	"context"

	"github.com/rs/zerolog"

	statehooks "github.com/devesharp/statehooks"
)

// DefaultLimit is the page size used when none is configured
const DefaultLimit = 20

// Option configures an Accumulator
type Option[T any] func(*Accumulator[T])

// WithLimit sets the page size
func WithLimit[T any](limit int) Option[T] {
	return func(a *Accumulator[T]) {
		if limit > 0 {
			a.initial.Limit = limit
		}
	}
}

// WithInitialFilters sets the filters used on mount and by ResetFilters
func WithInitialFilters[T any](f Filters) Option[T] {
	return func(a *Accumulator[T]) {
		limit := a.initial.Limit
		a.initial = f.Clone()
		if a.initial.Limit <= 0 {
			a.initial.Limit = limit
		}
	}
}

// WithInfinite enables infinite scroll
func WithInfinite[T any](inf Infinite) Option[T] {
	return func(a *Accumulator[T]) {
		a.infinite = inf
	}
}

// WithResolvers adds view resolvers that run alongside the first page on mount
func WithResolvers[T any](resolvers statehooks.ResolverMap) Option[T] {
	return func(a *Accumulator[T]) {
		for k, p := range resolvers {
			a.extra[k] = p
		}
	}
}

// WithIDFunc sets how item identity is read
func WithIDFunc[T any](fn func(T) any) Option[T] {
	return func(a *Accumulator[T]) {
		a.idOf = fn
	}
}

// OnBeforeSearch registers a hook called before the resolver starts
func OnBeforeSearch[T any](fn func(ctx context.Context, filters Filters)) Option[T] {
	return func(a *Accumulator[T]) {
		a.onBeforeSearch = append(a.onBeforeSearch, fn)
	}
}

// OnChangeFilters registers a hook called once the resolver started with new filters
func OnChangeFilters[T any](fn func(next, prev Filters)) Option[T] {
	return func(a *Accumulator[T]) {
		a.onChangeFilters = append(a.onChangeFilters, fn)
	}
}

// OnAfterSearch registers a hook called when a search settles
func OnAfterSearch[T any](fn func(ctx context.Context, outcome SearchOutcome[T])) Option[T] {
	return func(a *Accumulator[T]) {
		a.onAfterSearch = append(a.onAfterSearch, fn)
	}
}

// OnSearchSuccess registers a hook called with every page loaded
func OnSearchSuccess[T any](fn func(page Page[T])) Option[T] {
	return func(a *Accumulator[T]) {
		a.onSuccess = append(a.onSuccess, fn)
	}
}

// OnSearchError registers a hook called with every failed search
func OnSearchError[T any](fn func(err error)) Option[T] {
	return func(a *Accumulator[T]) {
		a.onError = append(a.onError, fn)
	}
}

// WithFilterCodec encodes filters after every successful search
func WithFilterCodec[T any](codec FilterCodec) Option[T] {
	return func(a *Accumulator[T]) {
		a.codec = codec
	}
}

// OnFiltersEncoded receives the encoded filters after every successful search
func OnFiltersEncoded[T any](fn func(encoded string)) Option[T] {
	return func(a *Accumulator[T]) {
		a.onEncoded = append(a.onEncoded, fn)
	}
}

// WithEngineOptions passes options to the underlying engine
func WithEngineOptions[T any](opts ...statehooks.EngineOption) Option[T] {
	return func(a *Accumulator[T]) {
		a.engineOpts = append(a.engineOpts, opts...)
	}
}

// WithLogger sets the logger
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(a *Accumulator[T]) {
		a.logger = logger
	}
}
