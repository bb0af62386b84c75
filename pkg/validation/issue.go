// Package validation converts schema parse failures into field error maps
// that forms can display next to their inputs.
package validation

import (
	"context"
	"fmt"
	"strings"
)

// CodeExpectedObject marks an issue raised because a nested object is missing
const CodeExpectedObject = "expected_object"

// FormKey holds issues that are not attached to any field
const FormKey = "_form"

// Issue is one validation failure
type Issue struct {
	Path    []string
	Code    string
	Message string
}

// Error returns the issue message with its path
func (i Issue) Error() string {
	if len(i.Path) > 0 {
		return fmt.Sprintf("%s at path %s", i.Message, strings.Join(i.Path, "."))
	}
	return i.Message
}

// Schema validates a record and reports every issue found
type Schema interface {
	SafeParse(ctx context.Context, data map[string]any) []Issue
}

// SchemaFunc adapts a function to Schema
type SchemaFunc func(ctx context.Context, data map[string]any) []Issue

// SafeParse calls f
func (f SchemaFunc) SafeParse(ctx context.Context, data map[string]any) []Issue {
	return f(ctx, data)
}
