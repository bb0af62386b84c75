package list

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	statehooks "github.com/devesharp/statehooks"
)

type item struct {
	ID   int
	Name string
	Tag  string
}

// fakeSource serves a fixed dataset and records every request
type fakeSource struct {
	mu    sync.Mutex
	items []item
	calls []Filters
	fail  atomic.Bool
}

func newFakeSource(n int) *fakeSource {
	items := make([]item, n)
	for i := range items {
		items[i] = item{ID: i, Name: fmt.Sprintf("item-%d", i)}
	}
	return &fakeSource{items: items}
}

func (s *fakeSource) resolve(ctx context.Context, f Filters) (Page[item], error) {
	s.mu.Lock()
	s.calls = append(s.calls, f)
	s.mu.Unlock()

	if s.fail.Load() {
		return Page[item]{}, errors.New("backend down")
	}
	start := min(f.Offset, len(s.items))
	end := min(f.Offset+f.Limit, len(s.items))
	return Page[item]{Results: append([]item(nil), s.items[start:end]...), Count: len(s.items)}, nil
}

func (s *fakeSource) requests() []Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Filters(nil), s.calls...)
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMount_LoadsFirstPageWithExtraResolvers(t *testing.T) {
	src := newFakeSource(100)
	acc := New(src.resolve,
		WithLimit[item](10),
		WithResolvers[item](statehooks.ResolverMap{"categories": statehooks.Value([]string{"a", "b"})}),
	)

	require.NoError(t, acc.Mount(context.Background()))
	require.NoError(t, acc.Mount(context.Background()))

	st := acc.State()
	assert.Len(t, src.requests(), 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids(st.Items))
	assert.Equal(t, 100, st.Total)
	assert.True(t, st.Status.IsStarted)
	assert.False(t, st.IsSearching)

	cats, ok := acc.Resolved().Value("categories")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, cats)
}

func TestPagination_FirstAndLastPage(t *testing.T) {
	src := newFakeSource(100)
	acc := New(src.resolve, WithLimit[item](10))
	ctx := context.Background()
	require.NoError(t, acc.Mount(ctx))

	st := acc.State()
	assert.True(t, st.IsFirstPage)
	assert.False(t, st.IsLastPage)
	assert.Equal(t, 10, st.TotalPages)

	require.NoError(t, acc.SetPage(ctx, 9))
	st = acc.State()
	assert.Equal(t, 90, st.Filters.Offset)
	assert.True(t, st.IsLastPage)
	assert.False(t, st.IsFirstPage)
	assert.Equal(t, 9, st.CurrentPage)
}

func TestPagination_OffsetArithmetic(t *testing.T) {
	src := newFakeSource(100)
	acc := New(src.resolve, WithLimit[item](10))
	ctx := context.Background()

	require.NoError(t, acc.SetPage(ctx, 2))
	reqs := src.requests()
	assert.Equal(t, 20, reqs[len(reqs)-1].Offset)

	require.NoError(t, acc.Search(ctx, nil, Force(), AtOffset(5)))
	require.NoError(t, acc.PreviousPage(ctx))
	reqs = src.requests()
	assert.Equal(t, 0, reqs[len(reqs)-1].Offset)
	assert.Equal(t, 0, acc.State().Filters.Offset)

	require.NoError(t, acc.NextPage(ctx))
	assert.Equal(t, 10, acc.State().Filters.Offset)
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, ids(acc.State().Items))
}

func TestSearch_NoopMergeSkipsRequest(t *testing.T) {
	src := newFakeSource(5)
	acc := New(src.resolve)
	ctx := context.Background()

	require.NoError(t, acc.Search(ctx, map[string]any{"name": "a"}))
	require.NoError(t, acc.Search(ctx, map[string]any{}))
	assert.Len(t, src.requests(), 1)

	require.NoError(t, acc.Search(ctx, map[string]any{}, Force()))
	assert.Len(t, src.requests(), 2)
}

func TestSearch_MergesFieldsAndResetsOffset(t *testing.T) {
	src := newFakeSource(50)
	acc := New(src.resolve, WithLimit[item](10))
	ctx := context.Background()

	require.NoError(t, acc.Search(ctx, map[string]any{"name": "a", "tag": "x"}))
	require.NoError(t, acc.SetPage(ctx, 3))
	require.NoError(t, acc.Search(ctx, map[string]any{"tag": nil, "active": true}))

	f := acc.State().Filters
	assert.Equal(t, 0, f.Offset)
	assert.Equal(t, map[string]any{"name": "a", "active": true}, f.Fields)
}

func TestSearch_CallbackOrder(t *testing.T) {
	src := newFakeSource(5)
	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	started := make(chan struct{})
	resolve := func(ctx context.Context, f Filters) (Page[item], error) {
		close(started)
		time.Sleep(5 * time.Millisecond)
		record("producer settled")
		return src.resolve(ctx, f)
	}

	acc := New(resolve,
		OnBeforeSearch[item](func(ctx context.Context, f Filters) { record("before") }),
		OnChangeFilters[item](func(next, prev Filters) {
			<-started
			record("change")
			assert.Equal(t, "a", next.Fields["name"])
			assert.Empty(t, prev.Fields)
		}),
		OnAfterSearch[item](func(ctx context.Context, o SearchOutcome[item]) {
			record("after")
			assert.True(t, o.Success)
		}),
		OnSearchSuccess[item](func(Page[item]) { record("success") }),
		OnSearchError[item](func(error) { record("error") }),
	)

	require.NoError(t, acc.Search(context.Background(), map[string]any{"name": "a"}))
	assert.Equal(t, []string{"before", "change", "producer settled", "after", "success"}, order)
}

func TestSearch_ProducerReadsLatestFilters(t *testing.T) {
	src := newFakeSource(5)
	acc := New(src.resolve)
	ctx := context.Background()

	require.NoError(t, acc.Search(ctx, map[string]any{"name": "first"}))
	require.NoError(t, acc.Search(ctx, map[string]any{"name": "second"}))

	reqs := src.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "second", reqs[1].Fields["name"])
}

func TestSearch_SupersededResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	resolve := func(ctx context.Context, f Filters) (Page[item], error) {
		if calls.Add(1) == 1 {
			<-release
			return Page[item]{Results: []item{{ID: 1, Name: "stale"}}, Count: 1}, nil
		}
		return Page[item]{Results: []item{{ID: 2, Name: "fresh"}}, Count: 1}, nil
	}
	acc := New(resolve)
	ctx := context.Background()

	staleErr := make(chan error, 1)
	go func() { staleErr <- acc.Search(ctx, map[string]any{"q": "old"}) }()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, acc.Search(ctx, map[string]any{"q": "new"}))
	close(release)

	assert.ErrorIs(t, <-staleErr, statehooks.ErrSuperseded)
	assert.Equal(t, []int{2}, ids(acc.State().Items))
}

func TestNextPage_FailureRevertsOffset(t *testing.T) {
	src := newFakeSource(100)
	var gotErr error
	acc := New(src.resolve, WithLimit[item](10), OnSearchError[item](func(err error) { gotErr = err }))
	ctx := context.Background()
	require.NoError(t, acc.Mount(ctx))

	src.fail.Store(true)
	err := acc.NextPage(ctx)
	require.Error(t, err)

	st := acc.State()
	assert.Equal(t, 0, st.Filters.Offset)
	assert.True(t, st.IsErrorOnSearching)
	assert.False(t, st.IsErrorOnSearchingInfiniteScroll)
	assert.Len(t, st.Items, 10)
	assert.EqualError(t, gotErr, "backend down")

	src.fail.Store(false)
	require.NoError(t, acc.NextPage(ctx))
	assert.False(t, acc.State().IsErrorOnSearching)
}

func TestInfinite_LoadMoreUntilEnd(t *testing.T) {
	src := newFakeSource(25)
	acc := New(src.resolve, WithLimit[item](10), WithInfinite[item](Infinite{Enabled: true}))
	ctx := context.Background()
	require.NoError(t, acc.Mount(ctx))

	require.NoError(t, acc.LoadMore(ctx))
	assert.Len(t, acc.State().Items, 20)
	assert.False(t, acc.State().HasReachedEnd)

	require.NoError(t, acc.LoadMore(ctx))
	st := acc.State()
	assert.Len(t, st.Items, 25)
	assert.True(t, st.HasReachedEnd)

	require.NoError(t, acc.LoadMore(ctx))
	assert.Len(t, src.requests(), 3)
}

func TestInfinite_LoadMoreFailureKeepsItems(t *testing.T) {
	src := newFakeSource(25)
	acc := New(src.resolve, WithLimit[item](10), WithInfinite[item](Infinite{Enabled: true}))
	ctx := context.Background()
	require.NoError(t, acc.Mount(ctx))

	src.fail.Store(true)
	require.Error(t, acc.LoadMore(ctx))

	st := acc.State()
	assert.True(t, st.IsErrorOnSearchingInfiniteScroll)
	assert.False(t, st.IsErrorOnSearching)
	assert.Equal(t, 0, st.Filters.Offset)
	assert.Len(t, st.Items, 10)
}

func TestInfinite_LoadPreviousTrimsOverlap(t *testing.T) {
	src := newFakeSource(100)
	acc := New(src.resolve, WithLimit[item](10), WithInfinite[item](Infinite{
		Enabled:       true,
		Bidirectional: true,
		InitialOffset: 15,
	}))
	ctx := context.Background()
	require.NoError(t, acc.Mount(ctx))
	assert.Equal(t, 15, acc.State().Items[0].ID)
	assert.False(t, acc.State().HasReachedStart)

	require.NoError(t, acc.LoadPrevious(ctx))
	st := acc.State()
	assert.Equal(t, 5, st.Items[0].ID)
	assert.Len(t, st.Items, 20)
	assert.False(t, st.HasReachedStart)

	require.NoError(t, acc.LoadPrevious(ctx))
	st = acc.State()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, ids(st.Items[:6]))
	assert.Len(t, st.Items, 25)
	assert.True(t, st.HasReachedStart)

	require.NoError(t, acc.LoadPrevious(ctx))
	assert.Len(t, src.requests(), 3)
	assert.Equal(t, 15, acc.State().Filters.Offset)
}

func TestLoadPrevious_RequiresBidirectional(t *testing.T) {
	src := newFakeSource(100)
	acc := New(src.resolve, WithInfinite[item](Infinite{Enabled: true, InitialOffset: 40}))
	require.NoError(t, acc.LoadPrevious(context.Background()))
	assert.Empty(t, src.requests())
}

func TestSetSort_PreservesFields(t *testing.T) {
	src := newFakeSource(30)
	acc := New(src.resolve, WithLimit[item](10))
	ctx := context.Background()

	require.NoError(t, acc.Search(ctx, map[string]any{"name": "a"}))
	require.NoError(t, acc.NextPage(ctx))
	require.NoError(t, acc.SetSort(ctx, &Sort{Column: "name", Direction: Desc}))

	f := acc.State().Filters
	assert.Equal(t, 0, f.Offset)
	assert.Equal(t, &Sort{Column: "name", Direction: Desc}, f.Sort)
	assert.Equal(t, "a", f.Fields["name"])

	require.NoError(t, acc.SetSort(ctx, nil))
	assert.Nil(t, acc.State().Filters.Sort)
}

func TestSetFiltersAndReset(t *testing.T) {
	src := newFakeSource(30)
	acc := New(src.resolve, WithInitialFilters[item](Filters{Limit: 5, Fields: map[string]any{"tag": "x"}}))
	ctx := context.Background()

	acc.SetFilters(map[string]any{"name": "b"})
	assert.Empty(t, src.requests())
	assert.Equal(t, map[string]any{"tag": "x", "name": "b"}, acc.State().Filters.Fields)

	require.NoError(t, acc.ResetFilters(ctx))
	assert.Equal(t, map[string]any{"tag": "x"}, acc.State().Filters.Fields)
	assert.Len(t, acc.State().Items, 5)
}

type stubCodec struct{}

func (stubCodec) Encode(f Filters) (string, error) {
	return fmt.Sprintf("offset=%d&name=%v", f.Offset, f.Fields["name"]), nil
}

func (stubCodec) Decode(s string) (Filters, error) {
	if s == "" {
		return Filters{}, errors.New("empty")
	}
	return Filters{Offset: 10, Fields: map[string]any{"name": s}}, nil
}

func TestFilterCodec(t *testing.T) {
	src := newFakeSource(30)
	var encoded []string
	acc := New(src.resolve,
		WithLimit[item](10),
		WithFilterCodec[item](stubCodec{}),
		OnFiltersEncoded[item](func(s string) { encoded = append(encoded, s) }),
	)
	ctx := context.Background()

	require.NoError(t, acc.Search(ctx, map[string]any{"name": "a"}))
	require.NoError(t, acc.ApplyEncoded(ctx, "zed"))
	assert.Equal(t, []string{"offset=0&name=a", "offset=10&name=zed"}, encoded)
	assert.Equal(t, 10, acc.State().Filters.Limit)

	assert.Error(t, acc.ApplyEncoded(ctx, ""))
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	src := newFakeSource(3)
	acc := New(src.resolve)

	var mu sync.Mutex
	var searching []bool
	cancel := acc.Subscribe(func(s State[item]) {
		mu.Lock()
		searching = append(searching, s.IsSearching)
		mu.Unlock()
	})
	defer cancel()

	require.NoError(t, acc.Search(context.Background(), map[string]any{"name": "a"}))
	assert.Equal(t, []bool{true, false}, searching)
}

func TestFiltersEqual(t *testing.T) {
	a := Filters{Limit: 10, Fields: map[string]any{}}
	b := Filters{Limit: 10}
	assert.True(t, a.Equal(b))

	c := b.Clone()
	c.Sort = &Sort{Column: "id", Direction: Asc}
	assert.False(t, b.Equal(c))
	assert.True(t, c.Equal(c.Clone()))
}

func TestFiltersEqual_ReturnsPromptly(t *testing.T) {
	done := make(chan bool, 1)
	go func() {
		done <- Filters{Limit: 10, Fields: map[string]any{"name": "a"}}.Equal(Filters{Limit: 10, Fields: map[string]any{"name": "a"}})
	}()

	select {
	case eq := <-done:
		assert.True(t, eq)
	case <-time.After(2 * time.Second):
		t.Fatal("Filters.Equal did not return")
	}
}

func TestSearch_FilterThenPageWithinDeadline(t *testing.T) {
	src := newFakeSource(45)
	acc := New(src.resolve, WithLimit[item](10))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if err := acc.Mount(ctx); err != nil {
			done <- err
			return
		}
		if err := acc.Search(ctx, map[string]any{"name": "item"}); err != nil {
			done <- err
			return
		}
		if err := acc.Search(ctx, map[string]any{"name": "item"}); err != nil {
			done <- err
			return
		}
		done <- acc.SetPage(ctx, 4)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("search cycle did not finish before the deadline")
	}

	st := acc.State()
	assert.Len(t, src.requests(), 3)
	assert.Equal(t, []int{40, 41, 42, 43, 44}, ids(st.Items))
	assert.Equal(t, 4, st.CurrentPage)
	assert.True(t, st.IsLastPage)
	assert.Equal(t, map[string]any{"name": "item"}, st.Filters.Fields)
}

func TestLoadMore_NoopInPageMode(t *testing.T) {
	src := newFakeSource(50)
	acc := New(src.resolve, WithLimit[item](10))
	ctx := context.Background()
	require.NoError(t, acc.Mount(ctx))

	require.NoError(t, acc.LoadMore(ctx))
	assert.Len(t, src.requests(), 1)
	assert.Len(t, acc.State().Items, 10)
	assert.Equal(t, 0, acc.State().Filters.Offset)
}

func TestLoadMore_ConcurrentCallersIssueOneRequest(t *testing.T) {
	src := newFakeSource(50)
	release := make(chan struct{})
	var calls atomic.Int32
	resolve := func(ctx context.Context, f Filters) (Page[item], error) {
		if f.Offset > 0 {
			calls.Add(1)
			<-release
		}
		return src.resolve(ctx, f)
	}
	acc := New(resolve, WithLimit[item](10), WithInfinite[item](Infinite{Enabled: true}))
	ctx := context.Background()
	require.NoError(t, acc.Mount(ctx))

	var wg sync.WaitGroup
	var returned atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, acc.LoadMore(ctx))
			returned.Add(1)
		}()
	}
	require.Eventually(t, func() bool { return returned.Load() == 15 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, acc.State().Items, 20)
}
