package statehooks

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrResolverNotFound is returned when a resolver key has no producer behind it
var ErrResolverNotFound = errors.New("resolver not found")

// ErrSuperseded is returned for a result that a newer run replaced before it settled
var ErrSuperseded = errors.New("superseded by a newer run")

// ResolverError attributes a producer failure to its resolver key
type ResolverError struct {
	Key     string
	Cause   error
	Context string
}

func (e *ResolverError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("resolver %q failed during %s: %v", e.Key, e.Context, e.Cause)
	}
	return fmt.Sprintf("resolver %q failed: %v", e.Key, e.Cause)
}

func (e *ResolverError) Unwrap() error {
	return e.Cause
}

// ThrownValue carries a non-error value used as a failure reason
type ThrownValue struct {
	Value any
}

func (e *ThrownValue) Error() string {
	return fmt.Sprint(e.Value)
}

// PanicError is produced when a producer panics
type PanicError struct {
	Value      any
	StackTrace []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("producer panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// NormalizeError converts any failure reason into an error.
// Errors pass through untouched, nil stays nil, everything else becomes a *ThrownValue.
func NormalizeError(reason any) error {
	switch r := reason.(type) {
	case nil:
		return nil
	case error:
		return r
	default:
		return &ThrownValue{Value: r}
	}
}

func newResolverError(key string, cause error, context string) *ResolverError {
	var re *ResolverError
	if errors.As(cause, &re) && re.Key == key {
		return re
	}
	return &ResolverError{
		Key:     key,
		Cause:   cause,
		Context: context,
	}
}

func newPanicError(recovered any) *PanicError {
	return &PanicError{
		Value:      recovered,
		StackTrace: debug.Stack(),
	}
}

// CauseOf returns the underlying failure of a *ResolverError, or err itself
func CauseOf(err error) error {
	var re *ResolverError
	if errors.As(err, &re) {
		return re.Cause
	}
	return err
}
