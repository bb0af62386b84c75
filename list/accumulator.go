// Package list accumulates paginated resources behind a filter state, either one
// page at a time or as an infinite scroll.
package list

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	statehooks "github.com/devesharp/statehooks"
)

// ResourcesKey is the resolver key of the page producer
const ResourcesKey = "resources"

// ErrInvalidPage is returned when the resources producer yields something other than a Page
var ErrInvalidPage = errors.New("resources resolver returned an invalid page")

type fetchMode int

const (
	modeReplace fetchMode = iota
	modeAppend
	modePrepend
)

type fetch struct {
	mode fetchMode
	// navigation fetches revert the offset when they fail
	navigation bool
}

// Accumulator holds a filtered, paginated list
type Accumulator[T any] struct {
	resolve  ResolveFunc[T]
	engine   *statehooks.Engine
	initial  Filters
	infinite Infinite
	extra    statehooks.ResolverMap
	idOf     func(T) any
	codec    FilterCodec
	logger   zerolog.Logger

	engineOpts      []statehooks.EngineOption
	onBeforeSearch  []func(context.Context, Filters)
	onChangeFilters []func(next, prev Filters)
	onAfterSearch   []func(context.Context, SearchOutcome[T])
	onSuccess       []func(Page[T])
	onError         []func(error)
	onEncoded       []func(string)

	mu    sync.Mutex
	seq   uint64
	query Filters
	head  int
	st    State[T]
	cell  *statehooks.Cell[State[T]]
}

// New creates an accumulator over resolve
func New[T any](resolve ResolveFunc[T], opts ...Option[T]) *Accumulator[T] {
	a := &Accumulator[T]{
		resolve: resolve,
		initial: Filters{Limit: DefaultLimit},
		extra:   statehooks.ResolverMap{},
		idOf:    defaultID[T],
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.infinite.Enabled {
		a.initial.Offset = a.infinite.InitialOffset
	}

	resolvers := a.extra.Clone()
	resolvers[ResourcesKey] = statehooks.Async(a.fetchResources)
	engineOpts := append([]statehooks.EngineOption{statehooks.WithLogger(a.logger)}, a.engineOpts...)
	a.engine = statehooks.NewEngine(resolvers, engineOpts...)

	a.st = State[T]{Filters: a.initial.Clone(), Status: a.engine.Status()}
	a.query = a.initial.Clone()
	a.head = a.initial.Offset
	a.st.derivePages()
	a.cell = statehooks.NewCell(a.snapshotLocked())

	return a
}

// fetchResources reads the latest query when invoked, not when registered
func (a *Accumulator[T]) fetchResources(ctx context.Context) (any, error) {
	a.mu.Lock()
	f := a.query.Clone()
	a.mu.Unlock()

	page, err := a.resolve(ctx, f)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Mount loads the first page together with the extra resolvers.
// Calls after the first one are no-ops until Unmount.
func (a *Accumulator[T]) Mount(ctx context.Context) error {
	if a.engine.Lifecycle() == statehooks.RanThisMount {
		return nil
	}

	a.mu.Lock()
	a.seq++
	seq := a.seq
	prev := a.st.Filters.Clone()
	a.query = prev.Clone()
	a.st.IsSearching = true
	a.mu.Unlock()
	a.publish()

	result, err := a.engine.Mount(ctx)
	if errors.Is(err, statehooks.ErrSuperseded) {
		return nil
	}

	o, ok := result[ResourcesKey]
	if !ok {
		a.mu.Lock()
		a.st.IsSearching = false
		a.mu.Unlock()
		a.publish()
		return nil
	}
	var fetchErr error
	if !o.OK() {
		fetchErr = statehooks.CauseOf(o.Err)
	}
	err = a.settle(ctx, seq, fetch{mode: modeReplace}, prev, prev, o.Value, fetchErr)
	if errors.Is(err, statehooks.ErrSuperseded) {
		return nil
	}
	return err
}

// Unmount tears the accumulator down; searches in flight are discarded
func (a *Accumulator[T]) Unmount() {
	a.mu.Lock()
	a.seq++
	a.mu.Unlock()
	a.engine.Unmount()
}

// Search merges fields into the filters and loads the first page.
// A nil field value removes that field. Without Force, a search that changes
// nothing issues no request.
func (a *Accumulator[T]) Search(ctx context.Context, fields map[string]any, opts ...SearchOption) error {
	so := searchOptions{}
	for _, opt := range opts {
		opt(&so)
	}

	a.mu.Lock()
	cur := a.st.Filters.Clone()
	a.mu.Unlock()

	next := cur.merge(fields)
	if so.limit > 0 {
		next.Limit = so.limit
	}
	if so.sortSet {
		next.Sort = so.sort
	}
	if !so.force && so.offset == nil && next.Equal(cur) {
		return nil
	}

	next.Offset = a.startOffset()
	if so.offset != nil {
		next.Offset = max(0, *so.offset)
	}
	return a.run(ctx, next, fetch{mode: modeReplace})
}

// Reload searches again with the current filters. In infinite mode the list
// restarts from the initial offset.
func (a *Accumulator[T]) Reload(ctx context.Context) error {
	a.mu.Lock()
	next := a.st.Filters.Clone()
	a.mu.Unlock()

	if a.infinite.Enabled {
		next.Offset = a.startOffset()
	}
	return a.run(ctx, next, fetch{mode: modeReplace})
}

// SetFilters merges fields into the filters without searching
func (a *Accumulator[T]) SetFilters(fields map[string]any) {
	a.mu.Lock()
	a.st.Filters = a.st.Filters.merge(fields)
	a.mu.Unlock()
	a.publish()
}

// ResetFilters restores the initial filters and searches
func (a *Accumulator[T]) ResetFilters(ctx context.Context) error {
	return a.run(ctx, a.initial.Clone(), fetch{mode: modeReplace})
}

// ApplyEncoded decodes filters with the configured codec and searches with them
func (a *Accumulator[T]) ApplyEncoded(ctx context.Context, encoded string) error {
	if a.codec == nil {
		return errors.New("no filter codec configured")
	}
	f, err := a.codec.Decode(encoded)
	if err != nil {
		return fmt.Errorf("decoding filters: %w", err)
	}
	if f.Limit <= 0 {
		f.Limit = a.limit()
	}
	f.Offset = max(0, f.Offset)
	return a.run(ctx, f, fetch{mode: modeReplace})
}

// SetSort changes the sort, restarts at offset zero and searches
func (a *Accumulator[T]) SetSort(ctx context.Context, s *Sort) error {
	a.mu.Lock()
	next := a.st.Filters.Clone()
	a.mu.Unlock()

	if s != nil {
		cp := *s
		s = &cp
	}
	next.Sort = s
	next.Offset = 0
	return a.run(ctx, next, fetch{mode: modeReplace})
}

// NextPage loads the page after the current one
func (a *Accumulator[T]) NextPage(ctx context.Context) error {
	return a.navigate(ctx, func(f Filters) int { return f.Offset + f.Limit })
}

// PreviousPage loads the page before the current one, never below offset zero
func (a *Accumulator[T]) PreviousPage(ctx context.Context) error {
	return a.navigate(ctx, func(f Filters) int { return f.Offset - f.Limit })
}

// SetPage loads the zero-based page n
func (a *Accumulator[T]) SetPage(ctx context.Context, n int) error {
	return a.navigate(ctx, func(f Filters) int { return n * f.Limit })
}

func (a *Accumulator[T]) navigate(ctx context.Context, offset func(Filters) int) error {
	a.mu.Lock()
	next := a.st.Filters.Clone()
	a.mu.Unlock()

	next.Offset = max(0, offset(next))
	return a.run(ctx, next, fetch{mode: modeReplace, navigation: true})
}

// LoadMore appends the next page in infinite mode. It does nothing in page
// mode, while a fetch is in flight or once the end was reached.
func (a *Accumulator[T]) LoadMore(ctx context.Context) error {
	if !a.infinite.Enabled {
		return nil
	}

	a.mu.Lock()
	if a.st.inFlight() || a.st.HasReachedEnd {
		a.mu.Unlock()
		return nil
	}
	next := a.st.Filters.Clone()
	next.Offset += next.Limit
	f := fetch{mode: modeAppend, navigation: true}
	seq, prev := a.begin(next, f)
	a.mu.Unlock()

	return a.exec(ctx, seq, prev, next, f)
}

// LoadPrevious prepends the page before the first loaded one. It only works
// in bidirectional mode and does nothing while a fetch is in flight or once
// the start was reached.
func (a *Accumulator[T]) LoadPrevious(ctx context.Context) error {
	if !a.infinite.Enabled || !a.infinite.Bidirectional {
		return nil
	}

	a.mu.Lock()
	if a.st.inFlight() || a.st.HasReachedStart {
		a.mu.Unlock()
		return nil
	}
	next := a.st.Filters.Clone()
	next.Offset = max(0, a.head-next.Limit)
	f := fetch{mode: modePrepend, navigation: true}
	seq, prev := a.begin(next, f)
	a.mu.Unlock()

	return a.exec(ctx, seq, prev, next, f)
}

// run executes one search cycle: before-search, producer start, change-filters,
// producer settle, after-search, then success or error
func (a *Accumulator[T]) run(ctx context.Context, next Filters, f fetch) error {
	a.mu.Lock()
	seq, prev := a.begin(next, f)
	a.mu.Unlock()

	return a.exec(ctx, seq, prev, next, f)
}

// begin marks a fetch as started and returns its sequence number and the
// filters it replaces; callers hold a.mu
func (a *Accumulator[T]) begin(next Filters, f fetch) (uint64, Filters) {
	a.seq++
	seq := a.seq
	prev := a.st.Filters.Clone()
	if f.mode != modePrepend {
		a.st.Filters = next.Clone()
	}
	a.query = next.Clone()
	switch f.mode {
	case modeAppend:
		a.st.IsLoadingMore = true
	case modePrepend:
		a.st.IsLoadingPrevious = true
	default:
		a.st.IsSearching = true
	}
	a.st.IsErrorOnSearching = false
	a.st.IsErrorOnSearchingInfiniteScroll = false
	return seq, prev
}

func (a *Accumulator[T]) exec(ctx context.Context, seq uint64, prev, next Filters, f fetch) error {
	a.publish()

	log := a.logger.With().Int("offset", next.Offset).Int("limit", next.Limit).Logger()
	log.Debug().Msg("searching resources")

	for _, fn := range a.onBeforeSearch {
		fn(ctx, next.Clone())
	}

	op := &statehooks.Operation{Kind: statehooks.OpSearch, Key: ResourcesKey}
	val, err := a.engine.Extensions().Run(ctx, op, func() (any, error) {
		pending := statehooks.Go(ctx, func(ctx context.Context) (any, error) {
			o, err := a.engine.RunOne(ctx, ResourcesKey)
			if err != nil {
				return nil, err
			}
			if !o.OK() {
				return nil, statehooks.CauseOf(o.Err)
			}
			return o.Value, nil
		})
		for _, fn := range a.onChangeFilters {
			fn(next.Clone(), prev.Clone())
		}
		return pending.Await(ctx)
	})
	if errors.Is(err, statehooks.ErrSuperseded) {
		log.Debug().Msg("search superseded")
		return err
	}

	return a.settle(ctx, seq, f, next, prev, val, err)
}

func (a *Accumulator[T]) settle(ctx context.Context, seq uint64, f fetch, next, prev Filters, val any, err error) error {
	var page Page[T]
	if err == nil {
		var ok bool
		if page, ok = val.(Page[T]); !ok {
			err = fmt.Errorf("%w: got %T", ErrInvalidPage, val)
		}
	}

	a.mu.Lock()
	if seq != a.seq {
		a.mu.Unlock()
		return statehooks.ErrSuperseded
	}
	a.st.IsSearching = false
	a.st.IsLoadingMore = false
	a.st.IsLoadingPrevious = false

	if err != nil {
		if f.navigation && f.mode != modePrepend {
			a.st.Filters.Offset = prev.Offset
		}
		if a.infinite.Enabled {
			a.st.IsErrorOnSearchingInfiniteScroll = true
		} else {
			a.st.IsErrorOnSearching = true
		}
		a.mu.Unlock()
		a.publish()

		a.logger.Warn().Err(err).Int("offset", next.Offset).Msg("search failed")
		outcome := SearchOutcome[T]{Err: err, Filters: next.Clone()}
		for _, fn := range a.onAfterSearch {
			fn(ctx, outcome)
		}
		for _, fn := range a.onError {
			fn(err)
		}
		return err
	}

	a.apply(f.mode, next, page)
	filters := a.st.Filters.Clone()
	a.mu.Unlock()
	a.publish()

	outcome := SearchOutcome[T]{Success: true, Data: page, Filters: next.Clone()}
	for _, fn := range a.onAfterSearch {
		fn(ctx, outcome)
	}
	for _, fn := range a.onSuccess {
		fn(page)
	}
	a.encode(filters)
	return nil
}

// apply stores a loaded page; callers hold a.mu
func (a *Accumulator[T]) apply(mode fetchMode, req Filters, page Page[T]) {
	short := len(page.Results) < req.Limit
	a.st.Total = page.Count

	switch mode {
	case modeAppend:
		items := make([]T, 0, len(a.st.Items)+len(page.Results))
		items = append(items, a.st.Items...)
		a.st.Items = append(items, page.Results...)
		a.st.HasReachedEnd = short

	case modePrepend:
		results := page.Results
		if want := a.head - req.Offset; len(results) > want {
			results = results[:want]
		}
		items := make([]T, 0, len(results)+len(a.st.Items))
		items = append(items, results...)
		a.st.Items = append(items, a.st.Items...)
		a.head = req.Offset
		a.st.HasReachedStart = req.Offset == 0 || short

	default:
		a.st.Items = append([]T(nil), page.Results...)
		a.head = req.Offset
		a.st.HasReachedEnd = short
		a.st.HasReachedStart = req.Offset == 0
	}
}

func (a *Accumulator[T]) encode(f Filters) {
	if a.codec == nil {
		return
	}
	encoded, err := a.codec.Encode(f)
	if err != nil {
		a.logger.Warn().Err(err).Msg("encoding filters")
		return
	}
	for _, fn := range a.onEncoded {
		fn(encoded)
	}
}

func (a *Accumulator[T]) startOffset() int {
	if a.infinite.Enabled {
		return a.infinite.InitialOffset
	}
	return 0
}

func (a *Accumulator[T]) limit() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st.Filters.Limit
}

// State returns the current snapshot
func (a *Accumulator[T]) State() State[T] {
	return a.cell.Get()
}

// Subscribe registers fn for state changes and returns the cancel function
func (a *Accumulator[T]) Subscribe(fn func(State[T])) func() {
	return a.cell.Subscribe(fn)
}

// Engine returns the underlying resolver engine
func (a *Accumulator[T]) Engine() *statehooks.Engine {
	return a.engine
}

// Resolved returns the outcome of the extra resolvers and the last page
func (a *Accumulator[T]) Resolved() statehooks.ResolutionResult {
	return a.engine.Result()
}

func (a *Accumulator[T]) publish() {
	a.mu.Lock()
	snap := a.snapshotLocked()
	notify := a.cell.Commit(func(State[T]) State[T] { return snap })
	a.mu.Unlock()
	notify()
}

func (a *Accumulator[T]) snapshotLocked() State[T] {
	snap := a.st
	snap.Items = append([]T(nil), a.st.Items...)
	snap.Filters = a.st.Filters.Clone()
	snap.Status = a.engine.Status()
	snap.derivePages()
	return snap
}

// SearchOption configures one Search call
type SearchOption func(*searchOptions)

type searchOptions struct {
	force   bool
	offset  *int
	limit   int
	sort    *Sort
	sortSet bool
}

// Force searches even when the filters did not change
func Force() SearchOption {
	return func(o *searchOptions) {
		o.force = true
	}
}

// AtOffset starts the search at offset n instead of the first page
func AtOffset(n int) SearchOption {
	return func(o *searchOptions) {
		o.offset = &n
	}
}

// WithPageSize changes the page size for this and later searches
func WithPageSize(n int) SearchOption {
	return func(o *searchOptions) {
		o.limit = n
	}
}

// WithSort changes the sort as part of the search
func WithSort(s *Sort) SearchOption {
	return func(o *searchOptions) {
		if s != nil {
			cp := *s
			s = &cp
		}
		o.sort = s
		o.sortSet = true
	}
}
