package validation

import (
	"context"
	"fmt"

	"github.com/devesharp/statehooks/pkg/dotpath"
)

// maxSynthesizedObjects bounds how many missing objects one call may fill in
const maxSynthesizedObjects = 32

type options struct {
	nested    bool
	messages  map[string]string
	transform func(ctx context.Context, data map[string]any) (map[string]any, error)
}

// Option configures Validate
type Option func(*options)

// Nested shapes the result like the record instead of using dot paths
func Nested() Option {
	return func(o *options) {
		o.nested = true
	}
}

// WithMessages overrides messages per field path
func WithMessages(messages map[string]string) Option {
	return func(o *options) {
		if o.messages == nil {
			o.messages = make(map[string]string, len(messages))
		}
		for k, v := range messages {
			o.messages[k] = v
		}
	}
}

// WithTransform rewrites the data before it is validated
func WithTransform(fn func(ctx context.Context, data map[string]any) (map[string]any, error)) Option {
	return func(o *options) {
		o.transform = fn
	}
}

// Validate runs schema against data and returns the field errors found.
// An empty map means data is valid. The error is only set when the transform fails.
//
// A nested object that is missing entirely is replaced by an empty object and
// the data validated again, so its leaf messages are reported instead of a
// single "expected object" message.
func Validate(ctx context.Context, schema Schema, data map[string]any, opts ...Option) (FieldErrors, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.transform != nil {
		transformed, err := o.transform(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("transforming data before validation: %w", err)
		}
		data = transformed
	}

	work := data
	var issues []Issue
	for synthesized := 0; ; {
		issues = schema.SafeParse(ctx, work)
		filled := false
		for _, issue := range issues {
			if issue.Code != CodeExpectedObject || len(issue.Path) == 0 || synthesized >= maxSynthesizedObjects {
				continue
			}
			path := dotpath.Join(issue.Path...)
			if v, ok := dotpath.Get(work, path); ok && v != nil {
				continue
			}
			work = dotpath.Set(work, path, map[string]any{})
			synthesized++
			filled = true
		}
		if !filled {
			break
		}
	}

	return build(issues, o), nil
}

func build(issues []Issue, o *options) FieldErrors {
	errs := FieldErrors{}
	for _, issue := range issues {
		key := dotpath.Join(issue.Path...)
		if key == "" {
			key = FormKey
		}
		msg := issue.Message
		if override, ok := o.messages[key]; ok {
			msg = override
		}

		if !o.nested || key == FormKey {
			if _, exists := errs[key]; !exists {
				errs[key] = msg
			}
			continue
		}
		if _, exists := dotpath.Get(errs, key); exists {
			continue
		}
		errs = dotpath.Set(errs, key, msg)
	}
	return errs
}
