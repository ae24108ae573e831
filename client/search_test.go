package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeSearchClient serves scripted pages and records every call.
type fakeSearchClient struct {
	mu      sync.Mutex
	calls   []SearchParams
	pages   map[int][]Vehicle
	failFor int // fail the first failFor calls
	block   chan struct{}
}

func (f *fakeSearchClient) SearchVehicles(_ context.Context, params SearchParams) ([]Vehicle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	n := len(f.calls)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if n <= f.failFor {
		return nil, &ConnectivityError{Err: errors.New("connection refused")}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[params.Page]
	if !ok {
		return []Vehicle{}, nil
	}
	return page, nil
}

func (f *fakeSearchClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSearchClient) lastCall() SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func makePage(n int, prefix string) []Vehicle {
	page := make([]Vehicle, n)
	for i := range page {
		page[i] = Vehicle{ID: fmt.Sprintf("%s-%d", prefix, i), Title: prefix}
	}
	return page
}

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestSearcher_CacheFreshness(t *testing.T) {
	remote := &fakeSearchClient{pages: map[int][]Vehicle{1: makePage(20, "p1")}}
	clock := newManualClock()
	s := NewSearcher(remote, NewMemoryStore(CacheTTL), nil, WithClock(clock.now))
	ctx := context.Background()

	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}
	if remote.callCount() != 1 {
		t.Fatalf("expected one remote call, got %d", remote.callCount())
	}

	// Identical search within the window: served from cache.
	clock.advance(4 * time.Minute)
	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}
	if remote.callCount() != 1 {
		t.Fatalf("fresh cache must suppress the remote call, got %d calls", remote.callCount())
	}
	if got := len(s.State().Vehicles); got != 20 {
		t.Fatalf("cached page must populate the list, got %d", got)
	}
}

func TestSearcher_CacheExpiry(t *testing.T) {
	remote := &fakeSearchClient{pages: map[int][]Vehicle{1: makePage(20, "p1")}}
	clock := newManualClock()
	// Store TTL is longer so expiry is decided by the entry timestamp,
	// not by the store sweep.
	s := NewSearcher(remote, NewMemoryStore(time.Hour), nil, WithClock(clock.now))
	ctx := context.Background()

	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}
	clock.advance(5 * time.Minute)
	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}
	if remote.callCount() != 2 {
		t.Fatalf("expired entry must refetch exactly once, got %d calls", remote.callCount())
	}

	// The refetch overwrote the entry: the next fetch hits cache again.
	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}
	if remote.callCount() != 2 {
		t.Fatalf("overwritten entry must be fresh again, got %d calls", remote.callCount())
	}
}

func TestSearcher_HasMoreHeuristic(t *testing.T) {
	for _, tc := range []struct {
		length  int
		hasMore bool
	}{
		{20, true},
		{19, false},
		{0, false},
	} {
		remote := &fakeSearchClient{pages: map[int][]Vehicle{1: makePage(tc.length, "p1")}}
		s := NewSearcher(remote, nil, nil)
		if err := s.Fetch(context.Background(), true); err != nil {
			t.Fatal(err)
		}
		if got := s.State().HasMore; got != tc.hasMore {
			t.Fatalf("page length %d: expected hasMore=%v, got %v", tc.length, tc.hasMore, got)
		}
	}
}

func TestSearcher_RefreshResetsPagination(t *testing.T) {
	remote := &fakeSearchClient{pages: map[int][]Vehicle{
		1: makePage(20, "p1"),
		2: makePage(20, "p2"),
	}}
	s := NewSearcher(remote, nil, nil)
	ctx := context.Background()

	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(s.State().Vehicles); got != 40 {
		t.Fatalf("expected 40 vehicles after two pages, got %d", got)
	}

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if remote.lastCall().Page != 1 {
		t.Fatalf("refresh must request page 1, requested %d", remote.lastCall().Page)
	}
	state := s.State()
	if len(state.Vehicles) != 20 {
		t.Fatalf("refresh must replace the list, got %d vehicles", len(state.Vehicles))
	}
	if state.Vehicles[0].Title != "p1" {
		t.Fatal("refresh must hold page 1 content")
	}
	if state.Page != 2 {
		t.Fatalf("expected next page 2 after refresh, got %d", state.Page)
	}
}

func TestSearcher_LoadMoreAppendsAndAdvances(t *testing.T) {
	remote := &fakeSearchClient{pages: map[int][]Vehicle{
		1: makePage(20, "p1"),
		2: makePage(5, "p2"),
	}}
	s := NewSearcher(remote, nil, nil)
	ctx := context.Background()

	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}
	state := s.State()
	if !state.HasMore || state.Page != 2 {
		t.Fatalf("full first page: expected hasMore and page 2, got %+v", state)
	}

	if err := s.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	state = s.State()
	if len(state.Vehicles) != 25 {
		t.Fatalf("load more must append, got %d vehicles", len(state.Vehicles))
	}
	if state.HasMore {
		t.Fatal("partial page must clear hasMore")
	}

	// Exhausted: further load-mores are no-ops.
	if err := s.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if remote.callCount() != 2 {
		t.Fatalf("load more without hasMore must not call remote, got %d calls", remote.callCount())
	}
}

func TestSearcher_RetryOnceSemantics(t *testing.T) {
	// The transparent retry lives in the HTTP client; at the orchestrator
	// level a failed fetch surfaces the error and leaves the list alone.
	remote := &fakeSearchClient{pages: map[int][]Vehicle{1: makePage(20, "p1")}}
	s := NewSearcher(remote, nil, nil)
	ctx := context.Background()

	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}

	remote.failFor = remote.callCount() + 1
	err := s.Fetch(ctx, true)
	if err == nil {
		t.Fatal("expected the failure to surface")
	}
	state := s.State()
	if state.Err == "" {
		t.Fatal("error must be recorded in the state")
	}
	if len(state.Vehicles) != 20 {
		t.Fatalf("failed fetch must leave the prior list untouched, got %d", len(state.Vehicles))
	}
	if state.Loading {
		t.Fatal("loading must clear on the failure path")
	}
}

func TestSearcher_GeoOmittedOnLocationFailure(t *testing.T) {
	remote := &fakeSearchClient{pages: map[int][]Vehicle{1: makePage(3, "p1")}}
	denied := LocationFunc(func(context.Context) (Coordinates, error) {
		return Coordinates{}, errors.New("permission denied")
	})
	s := NewSearcher(remote, nil, denied)

	if err := s.Fetch(context.Background(), true); err != nil {
		t.Fatalf("location failure must not surface: %v", err)
	}
	if remote.lastCall().Geo != nil {
		t.Fatal("denied location must omit geo parameters")
	}
	if s.State().Err != "" {
		t.Fatal("no user-visible error for a location failure alone")
	}
}

func TestSearcher_GeoIncludedWhenResolved(t *testing.T) {
	remote := &fakeSearchClient{pages: map[int][]Vehicle{1: makePage(3, "p1")}}
	s := NewSearcher(remote, nil, StaticLocation(Coordinates{Latitude: 37.77, Longitude: -122.41}), WithRadius(50))

	if err := s.Fetch(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	geo := remote.lastCall().Geo
	if geo == nil || geo.Latitude != 37.77 || geo.RadiusKm != 50 {
		t.Fatalf("expected resolved geo on the request, got %+v", geo)
	}
}

func TestSearcher_GeoIsPartOfCacheKey(t *testing.T) {
	min := 100.0
	base := SearchParams{Query: "atv", Filters: SearchFilters{MinPrice: &min}, Page: 1}
	withGeo := base
	withGeo.Geo = &Geo{Latitude: 37.77, Longitude: -122.41, RadiusKm: 100}

	if searchKey(base) == searchKey(withGeo) {
		t.Fatal("geo-bounded and unbounded searches must not share a cache key")
	}
}

func TestSearcher_StaleResponseDiscarded(t *testing.T) {
	block := make(chan struct{})
	remote := &fakeSearchClient{
		pages: map[int][]Vehicle{1: makePage(20, "stale")},
		block: block,
	}
	s := NewSearcher(remote, nil, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Fetch(ctx, true) }()

	// Wait for the first fetch to be in flight.
	for remote.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// A newer fetch takes over; script it to see fresh content.
	remote.mu.Lock()
	remote.block = nil
	remote.pages[1] = makePage(5, "fresh")
	remote.mu.Unlock()
	if err := s.Fetch(ctx, true); err != nil {
		t.Fatal(err)
	}

	// Release the stale fetch and let it finish.
	close(block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	state := s.State()
	if len(state.Vehicles) != 5 {
		t.Fatalf("stale response must not overwrite newer state, got %d vehicles", len(state.Vehicles))
	}
	if state.Vehicles[0].Title != "fresh" {
		t.Fatalf("expected fresh content, got %q", state.Vehicles[0].Title)
	}
	if state.Loading {
		t.Fatal("loading must be clear once the latest fetch finished")
	}
}

func TestSearcher_CorruptCacheEntryIsAMiss(t *testing.T) {
	store := NewMemoryStore(CacheTTL)
	remote := &fakeSearchClient{pages: map[int][]Vehicle{1: makePage(3, "p1")}}
	s := NewSearcher(remote, store, nil)

	store.Set(searchKey(SearchParams{Page: 1, Limit: PageLimit}), "{not json")

	if err := s.Fetch(context.Background(), true); err != nil {
		t.Fatalf("corrupt cache must read as a miss: %v", err)
	}
	if remote.callCount() != 1 {
		t.Fatalf("expected remote fallback, got %d calls", remote.callCount())
	}
	if got := len(s.State().Vehicles); got != 3 {
		t.Fatalf("expected remote results, got %d", got)
	}
}

func TestMemoryStore_SweepsExpiredEntriesOnWrite(t *testing.T) {
	clock := newManualClock()
	store := NewMemoryStore(CacheTTL)
	store.now = clock.now

	store.Set("old", "value")
	clock.advance(CacheTTL)
	store.Set("new", "value")

	if _, ok := store.Get("old"); ok {
		t.Fatal("expired entry must be swept on write")
	}
	if _, ok := store.Get("new"); !ok {
		t.Fatal("fresh entry must survive the sweep")
	}
}
