package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// CacheTTL is how long a cached search page stays authoritative.
const CacheTTL = 5 * time.Minute

// PageLimit is the fixed page size for vehicle search.
const PageLimit = 20

// SearchClient is the remote query dependency of the Searcher. Satisfied
// by *Client.
type SearchClient interface {
	SearchVehicles(ctx context.Context, params SearchParams) ([]Vehicle, error)
}

// SearchState is a snapshot of the search session.
type SearchState struct {
	Vehicles []Vehicle
	Loading  bool
	Err      string
	// Page is the next page a load-more would fetch.
	Page    int
	HasMore bool
}

// cacheEntry is the serialized form stored per search key.
type cacheEntry struct {
	Data      []Vehicle `json:"data"`
	Timestamp int64     `json:"timestamp"` // epoch millis
}

// Searcher drives a paginated, cached, optionally geo-bounded vehicle
// search session. All methods are safe for concurrent use; overlapping
// fetches are resolved by a generation counter so a stale response never
// overwrites newer state.
type Searcher struct {
	client   SearchClient
	store    Store
	location LocationProvider
	now      func() time.Time

	mu         sync.Mutex
	query      string
	filters    SearchFilters
	geo        *Geo
	geoOnce    bool
	radiusKm   float64
	vehicles   []Vehicle
	loading    bool
	err        string
	page       int
	hasMore    bool
	generation uint64
}

// SearcherOption customizes a Searcher.
type SearcherOption func(*Searcher)

// WithRadius sets the geo-bounding radius applied when a location
// resolves. Defaults to 100 km.
func WithRadius(km float64) SearcherOption {
	return func(s *Searcher) { s.radiusKm = km }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) SearcherOption {
	return func(s *Searcher) { s.now = now }
}

// NewSearcher creates a searcher. store and location may be nil to
// disable caching and geo-bounding respectively.
func NewSearcher(client SearchClient, store Store, location LocationProvider, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		client:   client,
		store:    store,
		location: location,
		now:      time.Now,
		radiusKm: 100,
		page:     1,
		hasMore:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current session.
func (s *Searcher) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicles := make([]Vehicle, len(s.vehicles))
	copy(vehicles, s.vehicles)
	return SearchState{
		Vehicles: vehicles,
		Loading:  s.loading,
		Err:      s.err,
		Page:     s.page,
		HasMore:  s.hasMore,
	}
}

// SetQuery changes the query text and refetches from page 1.
func (s *Searcher) SetQuery(ctx context.Context, query string) error {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	return s.Fetch(ctx, true)
}

// SetFilters changes the filters and refetches from page 1.
func (s *Searcher) SetFilters(ctx context.Context, filters SearchFilters) error {
	s.mu.Lock()
	s.filters = filters
	s.mu.Unlock()
	return s.Fetch(ctx, true)
}

// Refresh discards the list and refetches page 1.
func (s *Searcher) Refresh(ctx context.Context) error {
	return s.Fetch(ctx, true)
}

// LoadMore fetches the next page when one is expected and no fetch is in
// flight. Otherwise it is a no-op.
func (s *Searcher) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.Fetch(ctx, false)
}

// Fetch runs one search step: page 1 replacing the list when refresh is
// true, the current next page appending otherwise. A fresh cache entry
// short-circuits the network call. Location is resolved once per
// Searcher; failure to resolve silently disables geo-bounding.
func (s *Searcher) Fetch(ctx context.Context, refresh bool) error {
	s.resolveLocationOnce(ctx)

	s.mu.Lock()
	targetPage := s.page
	if refresh {
		targetPage = 1
	}
	params := SearchParams{
		Query:   s.query,
		Filters: s.filters,
		Geo:     s.geo,
		Page:    targetPage,
		Limit:   PageLimit,
	}
	key := searchKey(params)
	s.generation++
	gen := s.generation
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	if page, ok := s.cachedPage(key); ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return nil
		}
		s.applyPage(page, targetPage, refresh)
		s.loading = false
		return nil
	}

	page, err := s.client.SearchVehicles(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// A newer fetch superseded this one; discard the response and
		// leave loading to the newer fetch.
		return nil
	}
	s.loading = false
	if err != nil {
		s.err = err.Error()
		return err
	}

	s.writeCache(key, page)
	s.applyPage(page, targetPage, refresh)
	return nil
}

// applyPage merges one result page into the session. Callers hold s.mu.
func (s *Searcher) applyPage(page []Vehicle, targetPage int, refresh bool) {
	if refresh || targetPage == 1 {
		s.vehicles = page
	} else {
		s.vehicles = append(s.vehicles, page...)
	}
	s.hasMore = len(page) == PageLimit
	s.page = targetPage + 1
}

func (s *Searcher) resolveLocationOnce(ctx context.Context) {
	s.mu.Lock()
	done := s.geoOnce
	s.geoOnce = true
	provider := s.location
	radius := s.radiusKm
	s.mu.Unlock()
	if done || provider == nil {
		return
	}

	coords, err := provider.Resolve(ctx)
	if err != nil {
		// Denied or failed: proceed without geo-bounding.
		return
	}
	s.mu.Lock()
	s.geo = &Geo{Latitude: coords.Latitude, Longitude: coords.Longitude, RadiusKm: radius}
	s.mu.Unlock()
}

// cachedPage returns a page from the store when present, fresh and
// well-formed. Corrupt payloads read as misses.
func (s *Searcher) cachedPage(key string) ([]Vehicle, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, ok := s.store.Get(key)
	if !ok {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false
	}
	age := s.now().UnixMilli() - entry.Timestamp
	if age < 0 || age >= CacheTTL.Milliseconds() {
		return nil, false
	}
	return entry.Data, true
}

func (s *Searcher) writeCache(key string, page []Vehicle) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(cacheEntry{Data: page, Timestamp: s.now().UnixMilli()})
	if err != nil {
		return
	}
	s.store.Set(key, string(data))
}

// searchKey serializes the full request identity, geo included: searches
// from different locations must not collide.
func searchKey(params SearchParams) string {
	key, _ := json.Marshal(struct {
		Query   string        `json:"q"`
		Filters SearchFilters `json:"filters"`
		Geo     *Geo          `json:"geo"`
		Page    int           `json:"page"`
	}{params.Query, params.Filters, params.Geo, params.Page})
	return "search:" + string(key)
}
