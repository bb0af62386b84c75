package form

import (
	"github.com/rs/zerolog"

	statehooks "github.com/devesharp/statehooks"
	"github.com/devesharp/statehooks/pkg/validation"
)

// Option configures a Tracker
type Option func(*Tracker)

// WithID sets the id of the record being edited
func WithID(id any) Option {
	return func(t *Tracker) {
		t.id = id
	}
}

// WithInitialData seeds the record before anything is loaded
func WithInitialData(data Record) Option {
	return func(t *Tracker) {
		t.initial = data
	}
}

// WithResolvers sets the get, create, update and save resolvers
func WithResolvers(r Resolvers) Option {
	return func(t *Tracker) {
		t.resolvers = r
	}
}

// WithCustomResolvers adds resolvers loaded alongside the record
func WithCustomResolvers(resolvers statehooks.ResolverMap) Option {
	return func(t *Tracker) {
		for k, p := range resolvers {
			t.custom[k] = p
		}
	}
}

// WithTransformSubmit rewrites the payload before it reaches a resolver
func WithTransformSubmit(fn func(Record) Record) Option {
	return func(t *Tracker) {
		t.transformSubmit = fn
	}
}

// WithTransformLoaded rewrites loaded and saved records before they are stored
func WithTransformLoaded(fn func(Record) Record) Option {
	return func(t *Tracker) {
		t.transformLoaded = fn
	}
}

// WithValidation validates every submission with schema
func WithValidation(schema validation.Schema, opts ...validation.Option) Option {
	return func(t *Tracker) {
		t.schema = schema
		t.validationOpts = opts
	}
}

// WithSchema validates every submission against validator tag rules
func WithSchema(rules map[string]any, opts ...validation.Option) Option {
	return WithValidation(validation.Rules(rules), opts...)
}

// WithUpdateResourceOnSave controls whether a successful update replaces the
// original record (default true)
func WithUpdateResourceOnSave(update bool) Option {
	return func(t *Tracker) {
		t.updateOnSave = update
	}
}

// WithStrictResolvers makes a submission without a matching resolver fail
// instead of succeeding with the submitted data
func WithStrictResolvers() Option {
	return func(t *Tracker) {
		t.strict = true
	}
}

// OnSuccess registers a handler for successful submissions; it receives the
// resolver result before any transform
func OnSuccess(fn func(result Record, action Action)) Option {
	return func(t *Tracker) {
		t.onSuccess = append(t.onSuccess, fn)
	}
}

// OnFailure registers a handler for failed submissions
func OnFailure(fn func(err error, action Action)) Option {
	return func(t *Tracker) {
		t.onFailure = append(t.onFailure, fn)
	}
}

// OnErrorData registers a handler for validation errors
func OnErrorData(fn func(errs validation.FieldErrors)) Option {
	return func(t *Tracker) {
		t.onErrorData = append(t.onErrorData, fn)
	}
}

// OnLoad registers a handler for every loaded record, before any transform
func OnLoad(fn func(data Record)) Option {
	return func(t *Tracker) {
		t.onLoad = append(t.onLoad, fn)
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithEngineOptions passes options to the underlying engine
func WithEngineOptions(opts ...statehooks.EngineOption) Option {
	return func(t *Tracker) {
		t.engineOpts = append(t.engineOpts, opts...)
	}
}

// WithReloadOptions configures the reload controller behind Reload. Trackers
// keep their data and reload without delay unless told otherwise.
func WithReloadOptions(opts ...statehooks.ReloadOption) Option {
	return func(t *Tracker) {
		t.reloadOpts = append(t.reloadOpts, opts...)
	}
}
