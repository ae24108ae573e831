package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"advenrent_backend/internal/vehicles/repository"
	"advenrent_backend/platform/apperr"
	"advenrent_backend/platform/cache"
	"advenrent_backend/platform/logger"
)

type fakeRepo struct {
	searchCalls int
	results     []repository.Vehicle
	lastParams  repository.SearchParams
}

func (f *fakeRepo) Search(_ context.Context, params repository.SearchParams) ([]repository.Vehicle, error) {
	f.searchCalls++
	f.lastParams = params
	return f.results, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Vehicle, error) {
	for _, v := range f.results {
		if v.ID == id {
			return v, nil
		}
	}
	return repository.Vehicle{}, apperr.NotFound("vehicle not found")
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Vehicle, error) {
	v := repository.Vehicle{
		ID:      uuid.New(),
		OwnerID: params.OwnerID,
		Title:   params.Title,
		Type:    params.Type,
		Price:   params.Price,
	}
	f.results = append(f.results, v)
	return v, nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateParams) (repository.Vehicle, error) {
	for i, v := range f.results {
		if v.ID == params.ID {
			if params.Title != nil {
				f.results[i].Title = *params.Title
			}
			return f.results[i], nil
		}
	}
	return repository.Vehicle{}, apperr.NotFound("vehicle not found")
}

func (f *fakeRepo) ReplaceImages(_ context.Context, _ uuid.UUID, _ []string, _ int) ([]string, error) {
	return nil, nil
}

type memCache struct {
	entries map[string][]byte
	sets    int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return data, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.entries[key] = value
	m.sets++
	return nil
}

type testConfig struct{}

func (testConfig) GetSearchCacheTTL() time.Duration    { return 5 * time.Minute }
func (testConfig) GetMinioBucketVehicleImages() string { return "vehicle-images" }

func newTestService(repo *fakeRepo, c Cache) *Service {
	return New(repo, c, nil, testConfig{}, logger.New("development"))
}

func TestSearch_CachesSecondIdenticalQuery(t *testing.T) {
	repo := &fakeRepo{results: []repository.Vehicle{{ID: uuid.New(), Title: "KTM 450"}}}
	svc := newTestService(repo, newMemCache())
	ctx := context.Background()

	input := SearchInput{Query: "ktm", Page: 1, Limit: 20}
	first, err := svc.Search(ctx, input)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	second, err := svc.Search(ctx, input)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}

	if repo.searchCalls != 1 {
		t.Fatalf("expected one repository hit, got %d", repo.searchCalls)
	}
	if len(first) != 1 || len(second) != 1 || first[0].Title != second[0].Title {
		t.Fatal("cached page must match the original page")
	}
}

func TestSearch_DifferentFiltersMissCache(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newMemCache())
	ctx := context.Background()

	if _, err := svc.Search(ctx, SearchInput{Query: "atv", Page: 1, Limit: 20}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Search(ctx, SearchInput{Query: "atv", Page: 2, Limit: 20}); err != nil {
		t.Fatal(err)
	}
	min := 100.0
	if _, err := svc.Search(ctx, SearchInput{Query: "atv", MinPrice: &min, Page: 1, Limit: 20}); err != nil {
		t.Fatal(err)
	}

	if repo.searchCalls != 3 {
		t.Fatalf("distinct filter sets must each hit the repository, got %d calls", repo.searchCalls)
	}
}

func TestSearch_GeoIsPartOfCacheKey(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newMemCache())
	ctx := context.Background()

	lat1, lng1, radius := 37.77, -122.41, 100.0
	lat2, lng2 := 34.05, -118.24

	if _, err := svc.Search(ctx, SearchInput{Latitude: &lat1, Longitude: &lng1, RadiusKm: &radius, Page: 1, Limit: 20}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Search(ctx, SearchInput{Latitude: &lat2, Longitude: &lng2, RadiusKm: &radius, Page: 1, Limit: 20}); err != nil {
		t.Fatal(err)
	}

	if repo.searchCalls != 2 {
		t.Fatalf("searches from different locations must not share a cache entry, got %d calls", repo.searchCalls)
	}
}

func TestSearch_CacheKeyIsDeterministic(t *testing.T) {
	lat, lng, radius := 37.77, -122.41, 50.0
	a := SearchInput{Query: "jet ski", Type: "watercraft", Latitude: &lat, Longitude: &lng, RadiusKm: &radius, Page: 2, Limit: 20}
	b := SearchInput{Query: "jet ski", Type: "watercraft", Latitude: &lat, Longitude: &lng, RadiusKm: &radius, Page: 2, Limit: 20}

	if searchCacheKey(a) != searchCacheKey(b) {
		t.Fatal("identical inputs must produce identical cache keys")
	}
	b.Page = 3
	if searchCacheKey(a) == searchCacheKey(b) {
		t.Fatal("different pages must produce different cache keys")
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return context.DeadlineExceeded
}

func TestSearch_CacheFailureDegradesToRepo(t *testing.T) {
	repo := &fakeRepo{results: []repository.Vehicle{{ID: uuid.New(), Title: "Sea-Doo Spark"}}}
	svc := newTestService(repo, failingCache{})

	results, err := svc.Search(context.Background(), SearchInput{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("cache failures must not fail the search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected repository results, got %d", len(results))
	}
}

func TestSearch_NormalizesPageAndLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newMemCache())

	if _, err := svc.Search(context.Background(), SearchInput{Page: 0, Limit: 0}); err != nil {
		t.Fatal(err)
	}
	if repo.lastParams.Page != 1 || repo.lastParams.Limit != 20 {
		t.Fatalf("expected page=1 limit=20, got page=%d limit=%d", repo.lastParams.Page, repo.lastParams.Limit)
	}
}

func TestUpdate_RejectsNonOwner(t *testing.T) {
	owner := uuid.New()
	vehicleID := uuid.New()
	repo := &fakeRepo{results: []repository.Vehicle{{ID: vehicleID, OwnerID: owner, Title: "Polaris RZR"}}}
	svc := newTestService(repo, newMemCache())

	_, err := svc.Update(context.Background(), uuid.New(), vehicleID, UpdateInput{})
	if err == nil {
		t.Fatal("expected forbidden error for non-owner update")
	}
}

func TestReplaceImages_RejectsNonOwner(t *testing.T) {
	owner := uuid.New()
	vehicleID := uuid.New()
	repo := &fakeRepo{results: []repository.Vehicle{{ID: vehicleID, OwnerID: owner, Title: "Can-Am Maverick"}}}
	svc := newTestService(repo, newMemCache())

	images := []ImageInput{{Data: "data:image/png;base64,aGVsbG8="}}
	_, err := svc.ReplaceImages(context.Background(), uuid.New(), vehicleID, images, 0)
	if err == nil {
		t.Fatal("expected forbidden error for non-owner image replacement")
	}
}

func TestDecodeImage_DataURI(t *testing.T) {
	contentType, data, err := decodeImage(ImageInput{Data: "data:image/png;base64,aGVsbG8="})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("expected image/png, got %s", contentType)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestDecodeImage_RejectsGarbage(t *testing.T) {
	if _, _, err := decodeImage(ImageInput{Data: "data:image/png;base64,!!!"}); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, _, err := decodeImage(ImageInput{Data: "aGVsbG8="}); err == nil {
		t.Fatal("expected error when content type is missing")
	}
}
