package statehooks

import (
	"context"
	"sort"
)

// Extension provides hooks into resolver, search and submit operations
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Wrap intercepts an operation
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnError is notified when an operation fails
	OnError(err error, op *Operation)
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation) {
}

// Operation describes what operation is happening
type Operation struct {
	Kind  OperationKind
	Key   string
	RunID string
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpResolve is a single producer invocation
	OpResolve OperationKind = "resolve"
	// OpRunAll is a full pass over a resolver map
	OpRunAll OperationKind = "run_all"
	// OpSearch is a list search cycle
	OpSearch OperationKind = "search"
	// OpLoad is a form load
	OpLoad OperationKind = "load"
	// OpSubmit is a form submission
	OpSubmit OperationKind = "submit"
)

// Chain is an ordered set of extensions
type Chain []Extension

// NewChain sorts exts by Order
func NewChain(exts ...Extension) Chain {
	c := make(Chain, len(exts))
	copy(c, exts)
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Order() < c[j].Order()
	})
	return c
}

// Run executes next wrapped by every extension; the lowest Order runs outermost
func (c Chain) Run(ctx context.Context, op *Operation, next func() (any, error)) (any, error) {
	for i := len(c) - 1; i >= 0; i-- {
		ext := c[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(ctx, currentNext, op)
		}
	}

	result, err := next()
	if err != nil {
		for _, ext := range c {
			ext.OnError(err, op)
		}
	}
	return result, err
}
