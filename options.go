package statehooks

import "github.com/rs/zerolog"

// EngineOption is a modifier for engines
type EngineOption func(*Engine)

// WithRunOnMount controls whether Mount runs every producer (default true)
func WithRunOnMount(run bool) EngineOption {
	return func(e *Engine) {
		e.runOnMount = run
	}
}

// WithConcurrencyLimit caps how many producers run at once; zero means unlimited
func WithConcurrencyLimit(n int) EngineOption {
	return func(e *Engine) {
		if n < 0 {
			panic("statehooks: concurrency limit must be non-negative")
		}
		e.limit = n
	}
}

// WithCriticalKeys marks keys whose failure is a critical error
func WithCriticalKeys(keys ...string) EngineOption {
	return func(e *Engine) {
		for _, k := range keys {
			e.critical[k] = true
		}
	}
}

// WithExtension registers an extension on the engine
func WithExtension(ext Extension) EngineOption {
	return func(e *Engine) {
		e.chain = NewChain(append(e.chain, ext)...)
	}
}

// WithLogger sets the engine logger
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// OnStarted registers a handler for a full run in which every producer succeeded
func OnStarted(fn func(values map[string]any)) EngineOption {
	return func(e *Engine) {
		e.onStarted = append(e.onStarted, fn)
	}
}

// OnErrorStarted registers a handler for a full run in which some producer failed
func OnErrorStarted(fn func(errs map[string]error)) EngineOption {
	return func(e *Engine) {
		e.onErrorStarted = append(e.onErrorStarted, fn)
	}
}

// OnKeySettled registers a handler called after every stored per-key outcome,
// from both full runs and single-key runs
func OnKeySettled(fn func(o Outcome)) EngineOption {
	return func(e *Engine) {
		e.onKeySettled = append(e.onKeySettled, fn)
	}
}
