// Package service implements vehicle listing business logic: cached search,
// listing CRUD with ownership enforcement, and image handling.
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"advenrent_backend/internal/storage"
	"advenrent_backend/internal/vehicles/repository"
	"advenrent_backend/platform/apperr"
	"advenrent_backend/platform/cache"
	"advenrent_backend/platform/logger"
)

// Config is the subset of application configuration the service needs.
type Config interface {
	GetSearchCacheTTL() time.Duration
	GetMinioBucketVehicleImages() string
}

// Cache is the key-value cache boundary. Satisfied by *cache.Cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Location is a geographic point attached to a listing.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Vehicle is the resolved listing view returned to callers: image object
// keys are replaced with presigned download URLs.
type Vehicle struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	Description string    `json:"description"`
	Location    *Location `json:"location,omitempty"`
	Features    []string  `json:"features"`
	Image       string    `json:"image"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SearchInput carries normalized search filters. Geo fields are
// all-or-nothing; the handler drops partial coordinates before calling.
type SearchInput struct {
	Query     string
	Type      string
	MinPrice  *float64
	MaxPrice  *float64
	StartDate *time.Time
	EndDate   *time.Time
	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64
	Page      int
	Limit     int
}

// ImageInput is a single uploaded photo, base64-encoded by the client.
type ImageInput struct {
	Data        string // raw base64 or a data: URI
	ContentType string // used when Data is raw base64
}

// CreateInput holds everything needed to publish a listing.
type CreateInput struct {
	Title        string
	Type         string
	Price        float64
	Description  string
	Latitude     *float64
	Longitude    *float64
	Features     []string
	Images       []ImageInput
	PrimaryIndex int
}

// UpdateInput applies a partial listing update. Nil fields are untouched.
type UpdateInput struct {
	Title        *string
	Type         *string
	Price        *float64
	Description  *string
	Latitude     *float64
	Longitude    *float64
	Features     []string
	Images       []ImageInput // nil leaves images untouched
	PrimaryIndex int
}

// Service implements vehicle listing operations.
type Service struct {
	repo    repository.Repository
	cache   Cache
	storage storage.Service
	cfg     Config
	log     *logger.Logger
}

// New creates a vehicles service. storage may be nil when object storage is
// not configured; image uploads are then rejected.
func New(repo repository.Repository, c Cache, st storage.Service, cfg Config, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: c, storage: st, cfg: cfg, log: log}
}

// searchCacheKey derives a deterministic cache key from the full filter set.
// Geo coordinates participate in the key: two searches from different
// locations must not share a cache entry.
func searchCacheKey(input SearchInput) string {
	payload, _ := json.Marshal(struct {
		Query     string     `json:"q"`
		Type      string     `json:"type"`
		MinPrice  *float64   `json:"minPrice"`
		MaxPrice  *float64   `json:"maxPrice"`
		StartDate *time.Time `json:"startDate"`
		EndDate   *time.Time `json:"endDate"`
		Latitude  *float64   `json:"lat"`
		Longitude *float64   `json:"lng"`
		RadiusKm  *float64   `json:"radius"`
		Page      int        `json:"page"`
		Limit     int        `json:"limit"`
	}(input))
	sum := sha256.Sum256(payload)
	return "search:vehicles:" + hex.EncodeToString(sum[:])
}

// Search returns one page of listings matching the filters. Results are
// cached; a cache read error degrades to a miss rather than failing the
// request, and cache writes are best-effort.
func (s *Service) Search(ctx context.Context, input SearchInput) ([]Vehicle, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 || input.Limit > 100 {
		input.Limit = 20
	}

	key := searchCacheKey(input)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached []Vehicle
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("search cache read failed", "error", err)
	} else {
		s.log.CacheMiss(key)
	}

	rows, err := s.repo.Search(ctx, repository.SearchParams{
		Query:     input.Query,
		Type:      input.Type,
		MinPrice:  input.MinPrice,
		MaxPrice:  input.MaxPrice,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		RadiusKm:  input.RadiusKm,
		Page:      input.Page,
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "search failed", err)
	}

	results := make([]Vehicle, 0, len(rows))
	for _, row := range rows {
		results = append(results, s.resolve(ctx, row))
	}

	if data, err := json.Marshal(results); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cfg.GetSearchCacheTTL()); err != nil {
			s.log.Warn("search cache write failed", "error", err)
		}
	}
	return results, nil
}

// Get returns a single listing by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	return s.resolve(ctx, row), nil
}

// Create publishes a new listing owned by ownerID. Images are decoded,
// validated and uploaded before the listing row is written; an upload
// failure aborts the whole operation.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (Vehicle, error) {
	keys, err := s.uploadImages(ctx, input.Images)
	if err != nil {
		return Vehicle{}, err
	}

	primary := input.PrimaryIndex
	if primary < 0 || primary >= len(keys) {
		primary = 0
	}

	row, err := s.repo.Create(ctx, repository.CreateParams{
		OwnerID:      ownerID,
		Title:        input.Title,
		Type:         input.Type,
		Price:        input.Price,
		Description:  input.Description,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Features:     input.Features,
		ImageKeys:    keys,
		PrimaryIndex: primary,
	})
	if err != nil {
		s.deleteKeys(ctx, keys)
		return Vehicle{}, apperr.Wrap(apperr.KindInternal, "failed to create listing", err)
	}

	s.log.Info("vehicle listed", "vehicle_id", row.ID, "owner_id", ownerID)
	return s.resolve(ctx, row), nil
}

// Update applies a partial update to a listing the caller owns.
func (s *Service) Update(ctx context.Context, userID, vehicleID uuid.UUID, input UpdateInput) (Vehicle, error) {
	existing, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return Vehicle{}, err
	}
	if existing.OwnerID != userID {
		return Vehicle{}, apperr.Forbidden("you do not own this listing")
	}

	row, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:          vehicleID,
		Title:       input.Title,
		Type:        input.Type,
		Price:       input.Price,
		Description: input.Description,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Features:    input.Features,
	})
	if err != nil {
		return Vehicle{}, apperr.Wrap(apperr.KindInternal, "failed to update listing", err)
	}

	if input.Images != nil {
		if err := s.swapImages(ctx, vehicleID, input.Images, input.PrimaryIndex); err != nil {
			return Vehicle{}, err
		}
		row, err = s.repo.GetByID(ctx, vehicleID)
		if err != nil {
			return Vehicle{}, err
		}
	}

	return s.resolve(ctx, row), nil
}

// ReplaceImages swaps the full image set of a listing. Only the owner
// may do this; the previous objects are removed from storage after the
// database swap succeeds.
func (s *Service) ReplaceImages(ctx context.Context, userID, vehicleID uuid.UUID, images []ImageInput, primaryIndex int) (Vehicle, error) {
	existing, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return Vehicle{}, err
	}
	if existing.OwnerID != userID {
		return Vehicle{}, apperr.Forbidden("you do not own this listing")
	}

	if err := s.swapImages(ctx, vehicleID, images, primaryIndex); err != nil {
		return Vehicle{}, err
	}
	row, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return Vehicle{}, err
	}
	return s.resolve(ctx, row), nil
}

func (s *Service) swapImages(ctx context.Context, vehicleID uuid.UUID, images []ImageInput, primaryIndex int) error {
	keys, err := s.uploadImages(ctx, images)
	if err != nil {
		return err
	}
	if primaryIndex < 0 || primaryIndex >= len(keys) {
		primaryIndex = 0
	}
	oldKeys, err := s.repo.ReplaceImages(ctx, vehicleID, keys, primaryIndex)
	if err != nil {
		s.deleteKeys(ctx, keys)
		return apperr.Wrap(apperr.KindInternal, "failed to update listing images", err)
	}
	s.deleteKeys(ctx, oldKeys)
	return nil
}

// resolve converts a persistence row into the API view, swapping object
// keys for presigned URLs. URL resolution failures degrade to empty
// strings rather than failing the whole page.
func (s *Service) resolve(ctx context.Context, row repository.Vehicle) Vehicle {
	v := Vehicle{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Type:        row.Type,
		Price:       row.Price,
		Rating:      row.Rating,
		Reviews:     row.Reviews,
		Description: row.Description,
		Features:    row.Features,
		Images:      []string{},
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if v.Features == nil {
		v.Features = []string{}
	}
	if row.Latitude != nil && row.Longitude != nil {
		v.Location = &Location{Latitude: *row.Latitude, Longitude: *row.Longitude}
	}

	if s.storage == nil {
		return v
	}
	bucket := s.cfg.GetMinioBucketVehicleImages()
	for _, key := range row.ImageKeys {
		signed, err := s.storage.GenerateDownloadURL(ctx, bucket, key)
		if err != nil {
			s.log.Warn("presign failed", "key", key, "error", err)
			continue
		}
		v.Images = append(v.Images, signed.URL)
		if row.PrimaryImageKey != nil && key == *row.PrimaryImageKey {
			v.Image = signed.URL
		}
	}
	if v.Image == "" && len(v.Images) > 0 {
		v.Image = v.Images[0]
	}
	return v
}

// uploadImages decodes and stores every image, returning object keys in
// input order. On any failure the already-uploaded keys are removed.
func (s *Service) uploadImages(ctx context.Context, images []ImageInput) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if s.storage == nil {
		return nil, apperr.Validation("image upload is not available")
	}

	bucket := s.cfg.GetMinioBucketVehicleImages()
	keys := make([]string, 0, len(images))
	for i, img := range images {
		contentType, data, err := decodeImage(img)
		if err != nil {
			s.deleteKeys(ctx, keys)
			return nil, apperr.Validation(fmt.Sprintf("image %d: %v", i, err))
		}
		if err := s.storage.ValidateContentType(contentType); err != nil {
			s.deleteKeys(ctx, keys)
			return nil, apperr.Validation(fmt.Sprintf("image %d: %v", i, err))
		}
		if err := s.storage.ValidateFileSize(int64(len(data))); err != nil {
			s.deleteKeys(ctx, keys)
			return nil, apperr.Validation(fmt.Sprintf("image %d: %v", i, err))
		}
		name := fmt.Sprintf("photo-%d%s", i, extensionFor(contentType))
		key, err := s.storage.UploadFile(ctx, bucket, "vehicles", name, contentType, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			s.deleteKeys(ctx, keys)
			return nil, apperr.Wrap(apperr.KindInternal, "image upload failed", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Service) deleteKeys(ctx context.Context, keys []string) {
	if s.storage == nil {
		return
	}
	bucket := s.cfg.GetMinioBucketVehicleImages()
	for _, key := range keys {
		if err := s.storage.DeleteObject(ctx, bucket, key); err != nil {
			s.log.Warn("orphan image cleanup failed", "key", key, "error", err)
		}
	}
}

// decodeImage accepts either a data: URI or raw base64 with an explicit
// content type.
func decodeImage(img ImageInput) (string, []byte, error) {
	payload := img.Data
	contentType := img.ContentType

	if strings.HasPrefix(payload, "data:") {
		rest, ok := strings.CutPrefix(payload, "data:")
		if !ok {
			return "", nil, fmt.Errorf("malformed data URI")
		}
		meta, encoded, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, fmt.Errorf("malformed data URI")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = encoded
	}

	if contentType == "" {
		return "", nil, fmt.Errorf("missing content type")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty image")
	}
	return contentType, data, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}
