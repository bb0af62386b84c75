// Package form tracks an editable record against its last saved copy and
// submits it through create or update resolvers.
package form

import (
	"context"
	"errors"
	"fmt"

	statehooks "github.com/devesharp/statehooks"
	"github.com/devesharp/statehooks/pkg/validation"
)

// Record is an editable resource
type Record = map[string]any

// Action tells a create submission from an update
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// GetKey is the resolver key used to load the record
const GetKey = "get"

var (
	// ErrInvalidResult is returned when a resolver succeeds without a record
	ErrInvalidResult = errors.New("resolver returned an invalid result")
	// ErrResolverMissing is reported when no resolver handles the submitted action
	ErrResolverMissing = errors.New("no resolver for action")
	// ErrValidation is returned when validation blocks a submission
	ErrValidation = errors.New("validation failed")
)

// Resolvers talk to the backing store. Save handles both actions when the
// specific resolver is missing; id is nil for creates.
type Resolvers struct {
	Get    func(ctx context.Context, id any) (Record, error)
	Create func(ctx context.Context, data Record) (Record, error)
	Update func(ctx context.Context, id any, data Record) (Record, error)
	Save   func(ctx context.Context, id any, data Record) (Record, error)
}

// SubmitResult reports the outcome of one submission
type SubmitResult struct {
	Success     bool
	Action      Action
	Data        Record
	Err         error
	FieldErrors validation.FieldErrors
}

// LoadError wraps a failed load with its HTTP-like status, zero when unknown
type LoadError struct {
	Status int
	Cause  error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("loading record (status %d): %v", e.Status, e.Cause)
	}
	return fmt.Sprintf("loading record: %v", e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// State is a snapshot of a tracker
type State struct {
	ID       any
	Current  Record
	Original Record
	Status   statehooks.StatusInfo

	IsDirty            bool
	IsSaving           bool
	IsNotFound         bool
	IsNotAuthorization bool

	LoadErr     error
	FieldErrors validation.FieldErrors
}
