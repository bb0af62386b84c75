package form

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"

	statehooks "github.com/devesharp/statehooks"
	"github.com/devesharp/statehooks/pkg/dotpath"
	"github.com/devesharp/statehooks/pkg/validation"
)

// Tracker holds one editable record, its last saved copy and the load and
// save state around them
type Tracker struct {
	engine    *statehooks.Engine
	reload    *statehooks.ReloadController
	resolvers Resolvers
	custom    statehooks.ResolverMap
	initial   Record
	logger    zerolog.Logger

	transformSubmit func(Record) Record
	transformLoaded func(Record) Record
	schema          validation.Schema
	validationOpts  []validation.Option
	updateOnSave    bool
	strict          bool
	engineOpts      []statehooks.EngineOption
	reloadOpts      []statehooks.ReloadOption

	onSuccess   []func(Record, Action)
	onFailure   []func(error, Action)
	onErrorData []func(validation.FieldErrors)
	onLoad      []func(Record)

	mu          sync.Mutex
	id          any
	current     Record
	original    Record
	currentVer  uint64
	originalVer uint64
	dirty       dirtyMemo
	saving      bool
	notFound    bool
	notAuth     bool
	loadErr     error
	fieldErrors validation.FieldErrors
	cell        *statehooks.Cell[State]
}

type dirtyMemo struct {
	valid       bool
	currentVer  uint64
	originalVer uint64
	value       bool
}

// New creates a tracker
func New(opts ...Option) *Tracker {
	t := &Tracker{
		custom:       statehooks.ResolverMap{},
		updateOnSave: true,
		logger:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.current = dotpath.Clone(t.initial)
	if t.current == nil {
		t.current = Record{}
	}

	resolvers := t.custom.Clone()
	if t.resolvers.Get != nil {
		resolvers[GetKey] = statehooks.Async(t.fetch)
	}
	engineOpts := append([]statehooks.EngineOption{
		statehooks.WithLogger(t.logger),
		statehooks.WithCriticalKeys(GetKey),
	}, t.engineOpts...)
	t.engine = statehooks.NewEngine(resolvers, engineOpts...)
	reloadOpts := append([]statehooks.ReloadOption{
		statehooks.WithKeepDataOnReload(true),
		statehooks.WithReloadDelay(0),
	}, t.reloadOpts...)
	t.reload = statehooks.NewReloadController(t.engine, reloadOpts...)
	t.cell = statehooks.NewCell(t.snapshotLocked())

	return t
}

// fetch loads the record for the id current at invocation time
func (t *Tracker) fetch(ctx context.Context) (any, error) {
	id := t.ID()
	if isAbsentID(id) {
		return nil, nil
	}
	op := &statehooks.Operation{Kind: statehooks.OpLoad, Key: GetKey}
	return t.engine.Extensions().Run(ctx, op, func() (any, error) {
		rec, err := t.resolvers.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		return rec, nil
	})
}

// Mount loads the record, when there is an id, together with the custom resolvers.
// Calls after the first one are no-ops until Unmount.
func (t *Tracker) Mount(ctx context.Context) error {
	if t.engine.Lifecycle() == statehooks.RanThisMount {
		return nil
	}
	res, err := t.engine.Mount(ctx)
	if errors.Is(err, statehooks.ErrSuperseded) {
		return nil
	}
	t.applyLoad(res)
	return nil
}

// Unmount tears the tracker down; loads in flight are discarded
func (t *Tracker) Unmount() {
	t.engine.Unmount()
}

// Reload loads the record and the custom resolvers again after the reload
// delay, keeping the current data visible meanwhile
func (t *Tracker) Reload(ctx context.Context) error {
	return t.reloadAll(ctx, true)
}

func (t *Tracker) reloadAll(ctx context.Context, wait bool) error {
	res, err := t.reload.ReloadAll(ctx, wait)
	if errors.Is(err, statehooks.ErrSuperseded) {
		return nil
	}
	if err != nil {
		return err
	}
	t.applyLoad(res)
	return nil
}

// SetID switches the tracker to another record. The data goes back to the
// initial data, the original is cleared and the new record is loaded.
// Setting the same id again does nothing.
func (t *Tracker) SetID(ctx context.Context, id any) error {
	t.mu.Lock()
	if sameID(t.id, id) {
		t.mu.Unlock()
		return nil
	}
	t.id = id
	t.current = dotpath.Clone(t.initial)
	if t.current == nil {
		t.current = Record{}
	}
	t.original = nil
	t.currentVer++
	t.originalVer++
	t.notFound = false
	t.notAuth = false
	t.loadErr = nil
	t.fieldErrors = nil
	t.mu.Unlock()
	t.publish()

	t.logger.Debug().Interface("id", id).Msg("record identity changed")
	return t.reloadAll(ctx, false)
}

func (t *Tracker) applyLoad(res statehooks.ResolutionResult) {
	o, ok := res[GetKey]

	t.mu.Lock()
	t.notFound = false
	t.notAuth = false
	t.loadErr = nil

	if ok && !o.OK() {
		cause := statehooks.CauseOf(o.Err)
		status := ClassifyStatus(cause)
		switch status {
		case 404:
			t.notFound = true
		case 401:
			t.notAuth = true
		}
		t.loadErr = &LoadError{Status: status, Cause: cause}
		t.mu.Unlock()
		t.publish()
		t.logger.Warn().Err(cause).Int("status", status).Msg("loading record failed")
		return
	}

	var raw Record
	if ok {
		raw, _ = o.Value.(Record)
	}
	if raw != nil {
		stored := t.loaded(raw)
		t.original = stored
		t.current = dotpath.Clone(stored)
		t.originalVer++
		t.currentVer++
	}
	t.mu.Unlock()
	t.publish()

	if raw != nil {
		for _, fn := range t.onLoad {
			fn(dotpath.Clone(raw))
		}
	}
}

// loaded applies the post-load transform to a copy of rec
func (t *Tracker) loaded(rec Record) Record {
	out := dotpath.Clone(rec)
	if t.transformLoaded != nil {
		out = t.transformLoaded(out)
	}
	return out
}

// Get reads a dot path from the current record
func (t *Tracker) Get(path string) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, _ := dotpath.Get(t.current, path)
	return v
}

// Set writes a dot path into the current record, creating missing objects
func (t *Tracker) Set(path string, value any) {
	t.mu.Lock()
	t.current = dotpath.Set(t.current, path, value)
	t.currentVer++
	t.mu.Unlock()
	t.publish()
}

// GetOriginal reads a dot path from the original record
func (t *Tracker) GetOriginal(path string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.original == nil {
		return nil, false
	}
	return dotpath.Get(t.original, path)
}

// SetData replaces the current record
func (t *Tracker) SetData(data Record) {
	t.mu.Lock()
	t.current = dotpath.Clone(data)
	if t.current == nil {
		t.current = Record{}
	}
	t.currentVer++
	t.mu.Unlock()
	t.publish()
}

// Reset puts the original record back, or the initial data when nothing was loaded
func (t *Tracker) Reset() {
	t.mu.Lock()
	src := t.original
	if src == nil {
		src = t.initial
	}
	t.current = dotpath.Clone(src)
	if t.current == nil {
		t.current = Record{}
	}
	t.currentVer++
	t.fieldErrors = nil
	t.mu.Unlock()
	t.publish()
}

// Data returns a copy of the current record
func (t *Tracker) Data() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return dotpath.Clone(t.current)
}

// Original returns a copy of the original record, nil before the first load
func (t *Tracker) Original() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return dotpath.Clone(t.original)
}

// ID returns the id of the record being edited
func (t *Tracker) ID() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// IsDirty reports whether the current record differs from the original.
// Nil and the empty string are the same value. The result is recomputed only
// after the current or original record changed.
func (t *Tracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirtyLocked()
}

// IsUpdateData is IsDirty
func (t *Tracker) IsUpdateData() bool {
	return t.IsDirty()
}

// RefreshCheck recomputes the dirty flag regardless of the memo
func (t *Tracker) RefreshCheck() bool {
	t.mu.Lock()
	t.dirty.valid = false
	t.mu.Unlock()
	t.publish()
	return t.IsDirty()
}

func (t *Tracker) dirtyLocked() bool {
	m := t.dirty
	if m.valid && m.currentVer == t.currentVer && m.originalVer == t.originalVer {
		return m.value
	}

	var dirty bool
	if t.original == nil {
		dirty = dotpath.HasValue(t.current)
	} else {
		dirty = !cmp.Equal(dotpath.Compact(t.current), dotpath.Compact(t.original), recordCompare...)
	}
	t.dirty = dirtyMemo{valid: true, currentVer: t.currentVer, originalVer: t.originalVer, value: dirty}
	return dirty
}

// ExecuteResolver runs a custom resolver without storing its result
func (t *Tracker) ExecuteResolver(ctx context.Context, key string) (any, error) {
	return t.engine.Execute(ctx, key)
}

// Resolved returns the outcomes of the last load
func (t *Tracker) Resolved() statehooks.ResolutionResult {
	return t.engine.Result()
}

// Engine returns the underlying resolver engine
func (t *Tracker) Engine() *statehooks.Engine {
	return t.engine
}

// State returns the current snapshot
func (t *Tracker) State() State {
	return t.cell.Get()
}

// Subscribe registers fn for state changes and returns the cancel function
func (t *Tracker) Subscribe(fn func(State)) func() {
	return t.cell.Subscribe(fn)
}

func (t *Tracker) publish() {
	t.mu.Lock()
	snap := t.snapshotLocked()
	notify := t.cell.Commit(func(State) State { return snap })
	t.mu.Unlock()
	notify()
}

func (t *Tracker) snapshotLocked() State {
	return State{
		ID:                 t.id,
		Current:            dotpath.Clone(t.current),
		Original:           dotpath.Clone(t.original),
		Status:             t.engine.Status(),
		IsDirty:            t.dirtyLocked(),
		IsSaving:           t.saving,
		IsNotFound:         t.notFound,
		IsNotAuthorization: t.notAuth,
		LoadErr:            t.loadErr,
		FieldErrors:        t.fieldErrors,
	}
}

// recordCompare compares records holding arbitrary leaf values, including
// structs with unexported fields such as *big.Int
var recordCompare = cmp.Options{
	cmpopts.EquateEmpty(),
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

// sameID compares ids with == when their type allows it
func sameID(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// isAbsentID treats nil and zero values as no id
func isAbsentID(id any) bool {
	if id == nil {
		return true
	}
	return reflect.ValueOf(id).IsZero()
}
