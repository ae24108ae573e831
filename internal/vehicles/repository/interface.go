package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Vehicle is the persistence model for a rental listing. Image fields hold
// object-store keys; presigned URLs are resolved at the service layer.
type Vehicle struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	Title           string
	Type            string
	Price           float64
	Rating          float64
	Reviews         int
	Description     string
	Latitude        *float64
	Longitude       *float64
	Features        []string
	ImageKeys       []string
	PrimaryImageKey *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SearchParams are the normalized search filters. Nil pointer fields are
// absent filters. Geo fields are all-or-nothing: either every one of
// Latitude/Longitude/RadiusKm is set or none is.
type SearchParams struct {
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

// CreateParams holds everything needed to insert a listing.
type CreateParams struct {
	OwnerID     uuid.UUID
	Title       string
	Type        string
	Price       float64
	Description string
	Latitude    *float64
	Longitude   *float64
	Features    []string
	ImageKeys   []string
	// PrimaryIndex selects which of ImageKeys is the primary photo.
	PrimaryIndex int
}

// UpdateParams applies a partial listing update with COALESCE semantics.
type UpdateParams struct {
	ID          uuid.UUID
	Title       *string
	Type        *string
	Price       *float64
	Description *string
	Latitude    *float64
	Longitude   *float64
	Features    []string // nil leaves features untouched; empty slice clears them
}

// Repository is the vehicles persistence boundary.
type Repository interface {
	Search(ctx context.Context, params SearchParams) ([]Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (Vehicle, error)
	Create(ctx context.Context, params CreateParams) (Vehicle, error)
	Update(ctx context.Context, params UpdateParams) (Vehicle, error)
	// ReplaceImages swaps the image set and returns the replaced object keys
	// so the caller can delete them from storage.
	ReplaceImages(ctx context.Context, vehicleID uuid.UUID, imageKeys []string, primaryIndex int) ([]string, error)
}
