package statehooks

// StatusInfo is the aggregated load state of one engine.
// Exactly one of IsLoading, IsStarted and IsErrorOnLoad is true.
type StatusInfo struct {
	IsLoading       bool
	IsStarted       bool
	IsErrorOnLoad   bool
	IsCriticalError bool
}

// Loading is the status while a full run is in flight
func Loading() StatusInfo {
	return StatusInfo{IsLoading: true}
}

// Started is the status after every producer succeeded
func Started() StatusInfo {
	return StatusInfo{IsStarted: true}
}

// ErrorOnLoad is the status after at least one producer failed
func ErrorOnLoad(critical bool) StatusInfo {
	return StatusInfo{IsErrorOnLoad: true, IsCriticalError: critical}
}

// OutcomeStatus tells success from failure for one key
type OutcomeStatus string

const (
	// OutcomeSuccess means the producer yielded a value
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailure means the producer failed
	OutcomeFailure OutcomeStatus = "failure"
)

// Outcome is the settled result of one producer
type Outcome struct {
	Key    string
	Status OutcomeStatus
	Value  any
	Err    error
}

// OK reports whether the producer succeeded
func (o Outcome) OK() bool {
	return o.Status == OutcomeSuccess
}

// ResolutionResult maps resolver keys to their outcomes.
// It is replaced as a whole, never mutated in place.
type ResolutionResult map[string]Outcome

// Values returns the successful values only
func (r ResolutionResult) Values() map[string]any {
	out := make(map[string]any, len(r))
	for k, o := range r {
		if o.OK() {
			out[k] = o.Value
		}
	}
	return out
}

// Errors returns the failures only
func (r ResolutionResult) Errors() map[string]error {
	out := make(map[string]error)
	for k, o := range r {
		if !o.OK() {
			out[k] = o.Err
		}
	}
	return out
}

// HasErrors reports whether any producer failed
func (r ResolutionResult) HasErrors() bool {
	for _, o := range r {
		if !o.OK() {
			return true
		}
	}
	return false
}

// Value returns the value stored for key, if it succeeded
func (r ResolutionResult) Value(key string) (any, bool) {
	o, ok := r[key]
	if !ok || !o.OK() {
		return nil, false
	}
	return o.Value, true
}

// Err returns the failure stored for key
func (r ResolutionResult) Err(key string) error {
	o, ok := r[key]
	if !ok || o.OK() {
		return nil
	}
	return o.Err
}

func (r ResolutionResult) clone() ResolutionResult {
	out := make(ResolutionResult, len(r))
	for k, o := range r {
		out[k] = o
	}
	return out
}

// ValueAs returns the value stored for key asserted to T
func ValueAs[T any](r ResolutionResult, key string) (T, bool) {
	var zero T
	v, ok := r.Value(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// KeyState is the loading state of a single resolver key
type KeyState struct {
	IsLoading bool
	Err       error
}

// Lifecycle tracks whether the current mount already ran its first pass
type Lifecycle int32

const (
	// NeverRun is the state before the first pass of a mount
	NeverRun Lifecycle = iota
	// RanThisMount means the first pass was started for the current mount
	RanThisMount
	// TornDown means the owner unmounted
	TornDown
)

func (l Lifecycle) String() string {
	switch l {
	case NeverRun:
		return "never-run"
	case RanThisMount:
		return "ran-this-mount"
	case TornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}
