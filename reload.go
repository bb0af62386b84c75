package statehooks

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultReloadDelay smooths UI transitions before a debounced full reload
const DefaultReloadDelay = time.Second

// ReloadController provides reload control over an engine's results
type ReloadController struct {
	engine *Engine
	delay  time.Duration
	flight singleflight.Group

	mu       sync.RWMutex
	keepData bool
}

// ReloadOption is a modifier for reload controllers
type ReloadOption func(*ReloadController)

// WithKeepDataOnReload keeps previous results visible until the new run completes
func WithKeepDataOnReload(keep bool) ReloadOption {
	return func(c *ReloadController) {
		c.keepData = keep
	}
}

// WithReloadDelay sets how long ReloadAll waits when asked to wait before running
func WithReloadDelay(d time.Duration) ReloadOption {
	return func(c *ReloadController) {
		c.delay = d
	}
}

// NewReloadController creates a controller for engine
func NewReloadController(engine *Engine, opts ...ReloadOption) *ReloadController {
	c := &ReloadController{
		engine: engine,
		delay:  DefaultReloadDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Engine returns the controlled engine
func (c *ReloadController) Engine() *Engine {
	return c.engine
}

// SetKeepDataOnReload toggles data retention for later reloads
func (c *ReloadController) SetKeepDataOnReload(keep bool) {
	c.mu.Lock()
	c.keepData = keep
	c.mu.Unlock()
}

// KeepDataOnReload reports whether reloads keep previous results visible
func (c *ReloadController) KeepDataOnReload() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keepData
}

// ReloadAll resets the status to loading and re-runs every producer.
// With waitBeforeRun the run starts after the reload delay.
func (c *ReloadController) ReloadAll(ctx context.Context, waitBeforeRun bool) (ResolutionResult, error) {
	c.engine.SetStatus(Loading())
	if !c.KeepDataOnReload() {
		c.engine.ClearResult()
	}

	if waitBeforeRun && c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return c.engine.Result(), ctx.Err()
		}
	}

	return c.engine.RunAll(ctx)
}

// ReloadOne re-runs exactly one producer.
// Concurrent reloads of the same key share one invocation.
func (c *ReloadController) ReloadOne(ctx context.Context, key string) (Outcome, error) {
	if !c.engine.HasResolver(key) {
		return Outcome{}, newResolverError(key, ErrResolverNotFound, "reload")
	}
	if !c.KeepDataOnReload() {
		c.engine.ClearResult(key)
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		return c.engine.RunOne(ctx, key)
	})
	o, _ := v.(Outcome)
	return o, err
}

// Peek returns the stored value for key without running anything
func (c *ReloadController) Peek(key string) (any, bool) {
	return c.engine.Result().Value(key)
}

// Release drops stored results for keys, or all results when none are given
func (c *ReloadController) Release(keys ...string) {
	c.engine.ClearResult(keys...)
}
