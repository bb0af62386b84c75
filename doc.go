// Package statehooks provides resolver orchestration and derived load state for
// component-scoped data hooks.
//
// # Overview
//
// statehooks organizes data loading around four concepts:
//
//  1. Producers: units of work yielding a value, synchronously, asynchronously or as a Future
//  2. Engines: run a named set of producers and derive one aggregated status from them
//  3. Reload controllers: re-run everything or a single key, optionally keeping data visible
//  4. Cells: observable values that consumers read and subscribe to
//
// The list and form packages build pagination, infinite scroll, dirty tracking and
// create/update submission on top of the engine.
//
// # Basic Usage
//
//	engine := statehooks.NewEngine(statehooks.ResolverMap{
//	    "user": statehooks.Async(func(ctx context.Context) (any, error) {
//	        return api.User(ctx, id)
//	    }),
//	    "roles": statehooks.Sync(func() (any, error) {
//	        return cachedRoles, nil
//	    }),
//	    "flags": statehooks.Deferred(flagsFuture),
//	})
//
//	result, _ := engine.Mount(ctx)
//	if engine.Status().IsErrorOnLoad {
//	    log.Println(result.Errors())
//	}
//	user, _ := statehooks.ValueAs[*User](result, "user")
//
// Every producer runs concurrently. One failure never cancels or hides its siblings:
// successful values are stored, failures are reported per key, and the status becomes
// IsStarted only when nothing failed.
//
// # Mount Semantics
//
// Mount runs the first pass once per mount. Repeated Mount calls are no-ops until
// Unmount, so duplicate invocations from a host framework do not re-run producers.
// Results still in flight when Unmount is called are discarded.
//
// # Reloading
//
//	reload := statehooks.NewReloadController(engine, statehooks.WithKeepDataOnReload(true))
//
//	// Re-run every producer after the debounce delay
//	reload.ReloadAll(ctx, true)
//
//	// Re-run one key; the aggregated status is untouched
//	reload.ReloadOne(ctx, "roles")
//
// Each run carries a generation number. A run that a newer run overtook returns
// ErrSuperseded and leaves the stored state alone.
//
// # Extensions
//
// Extensions wrap every producer invocation as well as list searches and form
// submissions. The extensions package ships zerolog logging and Prometheus metrics.
//
//	engine := statehooks.NewEngine(resolvers,
//	    statehooks.WithExtension(extensions.NewLoggingExtension(logger)),
//	)
package statehooks
