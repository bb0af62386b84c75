package statehooks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Engine runs a named set of producers and derives one aggregated status from them
type Engine struct {
	mu        sync.Mutex
	resolvers ResolverMap
	critical  map[string]bool
	allGen    uint64
	keyGen    map[string]uint64

	runOnMount     bool
	limit          int
	chain          Chain
	logger         zerolog.Logger
	onStarted      []func(map[string]any)
	onErrorStarted []func(map[string]error)
	onKeySettled   []func(Outcome)

	lifecycle atomic.Int32
	status    *Cell[StatusInfo]
	result    *Cell[ResolutionResult]
	keyStates *Cell[map[string]KeyState]
}

// NewEngine creates an engine over resolvers
func NewEngine(resolvers ResolverMap, opts ...EngineOption) *Engine {
	if resolvers == nil {
		resolvers = ResolverMap{}
	}
	e := &Engine{
		resolvers:  resolvers.Clone(),
		critical:   make(map[string]bool),
		keyGen:     make(map[string]uint64),
		runOnMount: true,
		logger:     zerolog.Nop(),
		status:     NewCell(Loading()),
		result:     NewCell(ResolutionResult{}),
		keyStates:  NewCell(map[string]KeyState{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Mount runs the first pass for the current mount.
// Calls after the first one are no-ops until Unmount.
func (e *Engine) Mount(ctx context.Context) (ResolutionResult, error) {
	for {
		cur := Lifecycle(e.lifecycle.Load())
		if cur == RanThisMount {
			return e.Result(), nil
		}
		if e.lifecycle.CompareAndSwap(int32(cur), int32(RanThisMount)) {
			break
		}
	}

	if !e.runOnMount {
		e.status.Set(Started())
		return e.Result(), nil
	}
	return e.RunAll(ctx)
}

// Unmount tears the engine down; results still in flight are discarded
func (e *Engine) Unmount() {
	e.lifecycle.Store(int32(TornDown))

	e.mu.Lock()
	e.allGen++
	for k := range e.keyGen {
		e.keyGen[k]++
	}
	e.mu.Unlock()
}

// Lifecycle returns the mount state
func (e *Engine) Lifecycle() Lifecycle {
	return Lifecycle(e.lifecycle.Load())
}

// RunAll runs every producer concurrently and replaces the stored result once all settled.
// A run overtaken by a newer one returns its result with ErrSuperseded and stores nothing.
func (e *Engine) RunAll(ctx context.Context) (ResolutionResult, error) {
	runID := uuid.NewString()

	e.mu.Lock()
	e.allGen++
	gen := e.allGen
	for k := range e.keyGen {
		e.keyGen[k]++
	}
	resolvers := e.resolvers.Clone()
	e.mu.Unlock()

	keys := resolvers.Keys()
	log := e.logger.With().Str("run_id", runID).Logger()
	log.Debug().Int("keys", len(keys)).Msg("running resolvers")

	e.status.Set(Loading())
	e.keyStates.Update(func(m map[string]KeyState) map[string]KeyState {
		out := make(map[string]KeyState, len(keys))
		for _, k := range keys {
			out[k] = KeyState{IsLoading: true}
		}
		return out
	})

	start := time.Now()
	outcomes, _ := e.chain.Run(ctx, &Operation{Kind: OpRunAll, RunID: runID}, func() (any, error) {
		return e.collect(ctx, runID, keys, resolvers), nil
	})
	result, ok := outcomes.(ResolutionResult)
	if !ok {
		result = ResolutionResult{}
	}

	e.mu.Lock()
	if gen != e.allGen {
		e.mu.Unlock()
		log.Debug().Msg("discarding superseded run")
		return result, ErrSuperseded
	}
	critical := false
	for k, o := range result {
		if !o.OK() && e.critical[k] {
			critical = true
		}
	}
	status := Started()
	if result.HasErrors() {
		status = ErrorOnLoad(critical)
	}
	notifyResult := e.result.Commit(func(ResolutionResult) ResolutionResult { return result })
	notifyKeys := e.keyStates.Commit(func(map[string]KeyState) map[string]KeyState {
		out := make(map[string]KeyState, len(result))
		for k, o := range result {
			out[k] = KeyState{Err: o.Err}
		}
		return out
	})
	notifyStatus := e.status.Commit(func(StatusInfo) StatusInfo { return status })
	e.mu.Unlock()

	notifyResult()
	notifyKeys()
	notifyStatus()

	for _, k := range keys {
		for _, fn := range e.onKeySettled {
			fn(result[k])
		}
	}

	if status.IsErrorOnLoad {
		errs := result.Errors()
		log.Warn().Int("failed", len(errs)).Dur("duration", time.Since(start)).Msg("resolvers settled with errors")
		for _, fn := range e.onErrorStarted {
			fn(errs)
		}
	} else {
		log.Debug().Dur("duration", time.Since(start)).Msg("resolvers settled")
		values := result.Values()
		for _, fn := range e.onStarted {
			fn(values)
		}
	}

	return result, nil
}

// collect waits for every producer; one failure never cancels its siblings
func (e *Engine) collect(ctx context.Context, runID string, keys []string, resolvers ResolverMap) ResolutionResult {
	outcomes := make([]Outcome, len(keys))

	var g errgroup.Group
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, key := range keys {
		g.Go(func() error {
			outcomes[i] = e.runProducer(ctx, runID, key, resolvers[key])
			return nil
		})
	}
	_ = g.Wait()

	result := make(ResolutionResult, len(outcomes))
	for _, o := range outcomes {
		result[o.Key] = o
	}
	return result
}

func (e *Engine) runProducer(ctx context.Context, runID, key string, p Producer) Outcome {
	op := &Operation{Kind: OpResolve, Key: key, RunID: runID}
	val, err := e.chain.Run(ctx, op, func() (any, error) {
		return p.invoke(ctx)
	})
	if err != nil {
		return Outcome{
			Key:    key,
			Status: OutcomeFailure,
			Err:    newResolverError(key, err, ""),
		}
	}
	return Outcome{Key: key, Status: OutcomeSuccess, Value: val}
}

// RunOne runs a single producer and updates only its slot.
// An unknown key fails fast with ErrResolverNotFound. When a newer run for the
// same key started meanwhile, the outcome is returned with ErrSuperseded and not stored.
func (e *Engine) RunOne(ctx context.Context, key string) (Outcome, error) {
	e.mu.Lock()
	p, ok := e.resolvers[key]
	if !ok {
		e.mu.Unlock()
		return Outcome{}, newResolverError(key, ErrResolverNotFound, "run")
	}
	e.keyGen[key]++
	gen := e.keyGen[key]
	e.mu.Unlock()

	runID := uuid.NewString()
	e.keyStates.Update(func(m map[string]KeyState) map[string]KeyState {
		out := cloneKeyStates(m)
		out[key] = KeyState{IsLoading: true, Err: m[key].Err}
		return out
	})

	outcome := e.runProducer(ctx, runID, key, p)

	e.mu.Lock()
	if gen != e.keyGen[key] {
		e.mu.Unlock()
		e.logger.Debug().Str("run_id", runID).Str("key", key).Msg("discarding superseded resolver result")
		return outcome, ErrSuperseded
	}
	notifyResult := e.result.Commit(func(r ResolutionResult) ResolutionResult {
		out := r.clone()
		out[key] = outcome
		return out
	})
	notifyKeys := e.keyStates.Commit(func(m map[string]KeyState) map[string]KeyState {
		out := cloneKeyStates(m)
		out[key] = KeyState{Err: outcome.Err}
		return out
	})
	e.mu.Unlock()

	notifyResult()
	notifyKeys()
	for _, fn := range e.onKeySettled {
		fn(outcome)
	}

	if !outcome.OK() {
		e.logger.Warn().Str("run_id", runID).Str("key", key).Err(outcome.Err).Msg("resolver failed")
	}
	return outcome, nil
}

// Execute runs a producer without storing its outcome
func (e *Engine) Execute(ctx context.Context, key string) (any, error) {
	e.mu.Lock()
	p, ok := e.resolvers[key]
	e.mu.Unlock()
	if !ok || !p.Defined() {
		return nil, newResolverError(key, ErrResolverNotFound, "execute")
	}

	o := e.runProducer(ctx, uuid.NewString(), key, p)
	if !o.OK() {
		return nil, o.Err
	}
	return o.Value, nil
}

// SetResolver adds or replaces a producer. It takes effect on the next run.
func (e *Engine) SetResolver(key string, p Producer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolvers[key] = p
}

// Resolvers returns a copy of the resolver map
func (e *Engine) Resolvers() ResolverMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolvers.Clone()
}

// HasResolver reports whether key is declared
func (e *Engine) HasResolver(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.resolvers[key]
	return ok
}

// Result returns the latest stored result
func (e *Engine) Result() ResolutionResult {
	return e.result.Get()
}

// Status returns the aggregated status
func (e *Engine) Status() StatusInfo {
	return e.status.Get()
}

// KeyState returns the loading state of one key
func (e *Engine) KeyState(key string) KeyState {
	return e.keyStates.Get()[key]
}

// StatusCell exposes the status for subscription
func (e *Engine) StatusCell() *Cell[StatusInfo] {
	return e.status
}

// ResultCell exposes the result for subscription
func (e *Engine) ResultCell() *Cell[ResolutionResult] {
	return e.result
}

// SetStatus overrides the aggregated status
func (e *Engine) SetStatus(s StatusInfo) {
	e.status.Set(s)
}

// ClearResult removes the given keys from the stored result, or everything when none are given
func (e *Engine) ClearResult(keys ...string) {
	e.result.Update(func(r ResolutionResult) ResolutionResult {
		if len(keys) == 0 {
			return ResolutionResult{}
		}
		out := r.clone()
		for _, k := range keys {
			delete(out, k)
		}
		return out
	})
}

// Logger returns the engine logger
func (e *Engine) Logger() zerolog.Logger {
	return e.logger
}

// Extensions returns the engine extension chain
func (e *Engine) Extensions() Chain {
	return e.chain
}

func cloneKeyStates(m map[string]KeyState) map[string]KeyState {
	out := make(map[string]KeyState, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
