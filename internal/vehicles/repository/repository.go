package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"advenrent_backend/platform/apperr"
)

const vehicleNotFoundMessage = "vehicle not found"

// Repo implements the vehicles repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new vehicles repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Search returns one page of listings matching the filters, ordered by
// rating. Features and images for the page are hydrated concurrently.
func (r *Repo) Search(ctx context.Context, params SearchParams) ([]Vehicle, error) {
	query, args := buildSearchQuery(params)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]Vehicle, 0, params.Limit)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Title, &v.Type, &v.Price, &v.Rating, &v.Reviews,
			&v.Description, &v.Latitude, &v.Longitude, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		index[v.ID] = len(vehicles)
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search vehicles rows: %w", err)
	}

	if len(vehicles) == 0 {
		return vehicles, nil
	}

	ids := make([]uuid.UUID, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}

	g, gctx := errgroup.WithContext(ctx)

	featuresByID := make(map[uuid.UUID][]string)
	imagesByID := make(map[uuid.UUID][]string)
	primaryByID := make(map[uuid.UUID]string)

	g.Go(func() error {
		return r.loadFeatures(gctx, ids, featuresByID)
	})
	g.Go(func() error {
		return r.loadImages(gctx, ids, imagesByID, primaryByID)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for id, i := range index {
		vehicles[i].Features = featuresByID[id]
		vehicles[i].ImageKeys = imagesByID[id]
		if primary, ok := primaryByID[id]; ok {
			p := primary
			vehicles[i].PrimaryImageKey = &p
		}
	}

	return vehicles, nil
}

func (r *Repo) loadFeatures(ctx context.Context, ids []uuid.UUID, out map[uuid.UUID][]string) error {
	rows, err := r.pool.Query(ctx, `
		SELECT vehicle_id, feature
		FROM vehicle_features
		WHERE vehicle_id = ANY($1)
		ORDER BY feature
	`, ids)
	if err != nil {
		return fmt.Errorf("load vehicle features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var feature string
		if err := rows.Scan(&id, &feature); err != nil {
			return fmt.Errorf("scan vehicle feature: %w", err)
		}
		out[id] = append(out[id], feature)
	}
	return rows.Err()
}

func (r *Repo) loadImages(ctx context.Context, ids []uuid.UUID, out map[uuid.UUID][]string, primary map[uuid.UUID]string) error {
	rows, err := r.pool.Query(ctx, `
		SELECT vehicle_id, object_key, is_primary
		FROM vehicle_images
		WHERE vehicle_id = ANY($1)
		ORDER BY position
	`, ids)
	if err != nil {
		return fmt.Errorf("load vehicle images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var key string
		var isPrimary bool
		if err := rows.Scan(&id, &key, &isPrimary); err != nil {
			return fmt.Errorf("scan vehicle image: %w", err)
		}
		out[id] = append(out[id], key)
		if isPrimary {
			primary[id] = key
		}
	}
	return rows.Err()
}

// GetByID retrieves one listing with its features and images.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	var v Vehicle
	err := r.pool.QueryRow(ctx, `
		SELECT v.id, v.owner_id, v.title, v.type, v.price, v.rating, v.reviews,
			v.description, v.latitude, v.longitude, v.created_at, v.updated_at
		FROM vehicles v
		WHERE v.id = $1
	`, id).Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Type, &v.Price, &v.Rating, &v.Reviews,
		&v.Description, &v.Latitude, &v.Longitude, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, apperr.NotFound(vehicleNotFoundMessage)
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("get vehicle by id: %w", err)
	}

	ids := []uuid.UUID{v.ID}
	featuresByID := make(map[uuid.UUID][]string)
	imagesByID := make(map[uuid.UUID][]string)
	primaryByID := make(map[uuid.UUID]string)

	if err := r.loadFeatures(ctx, ids, featuresByID); err != nil {
		return Vehicle{}, err
	}
	if err := r.loadImages(ctx, ids, imagesByID, primaryByID); err != nil {
		return Vehicle{}, err
	}

	v.Features = featuresByID[v.ID]
	v.ImageKeys = imagesByID[v.ID]
	if primary, ok := primaryByID[v.ID]; ok {
		v.PrimaryImageKey = &primary
	}

	return v, nil
}

// Create inserts a listing with its features and images in one transaction.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Vehicle, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Vehicle{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var vehicleID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO vehicles (owner_id, title, type, price, description, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, params.OwnerID, params.Title, params.Type, params.Price, params.Description,
		params.Latitude, params.Longitude,
	).Scan(&vehicleID)
	if err != nil {
		return Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}

	for _, feature := range params.Features {
		if _, err = tx.Exec(ctx, `
			INSERT INTO vehicle_features (vehicle_id, feature)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, vehicleID, feature); err != nil {
			return Vehicle{}, fmt.Errorf("create vehicle feature: %w", err)
		}
	}

	if err = insertImages(ctx, tx, vehicleID, params.ImageKeys, params.PrimaryIndex); err != nil {
		return Vehicle{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Vehicle{}, err
	}

	return r.GetByID(ctx, vehicleID)
}

// Update applies a partial update to a listing.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Vehicle, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Vehicle{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	result, err := tx.Exec(ctx, `
		UPDATE vehicles
		SET title = COALESCE($2, title),
			type = COALESCE($3, type),
			price = COALESCE($4, price),
			description = COALESCE($5, description),
			latitude = COALESCE($6, latitude),
			longitude = COALESCE($7, longitude),
			updated_at = now()
		WHERE id = $1
	`, params.ID, params.Title, params.Type, params.Price, params.Description,
		params.Latitude, params.Longitude,
	)
	if err != nil {
		return Vehicle{}, fmt.Errorf("update vehicle: %w", err)
	}
	if result.RowsAffected() == 0 {
		err = apperr.NotFound(vehicleNotFoundMessage)
		return Vehicle{}, err
	}

	if params.Features != nil {
		if _, err = tx.Exec(ctx, `
			DELETE FROM vehicle_features WHERE vehicle_id = $1
		`, params.ID); err != nil {
			return Vehicle{}, fmt.Errorf("clear vehicle features: %w", err)
		}
		for _, feature := range params.Features {
			if _, err = tx.Exec(ctx, `
				INSERT INTO vehicle_features (vehicle_id, feature)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, params.ID, feature); err != nil {
				return Vehicle{}, fmt.Errorf("update vehicle feature: %w", err)
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return Vehicle{}, err
	}

	return r.GetByID(ctx, params.ID)
}

// ReplaceImages swaps the full image set for a listing.
func (r *Repo) ReplaceImages(ctx context.Context, vehicleID uuid.UUID, imageKeys []string, primaryIndex int) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	rows, err := tx.Query(ctx, `
		SELECT object_key FROM vehicle_images WHERE vehicle_id = $1
	`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list vehicle images: %w", err)
	}

	var oldKeys []string
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan vehicle image key: %w", err)
		}
		oldKeys = append(oldKeys, key)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		DELETE FROM vehicle_images WHERE vehicle_id = $1
	`, vehicleID); err != nil {
		return nil, fmt.Errorf("delete vehicle images: %w", err)
	}

	if err = insertImages(ctx, tx, vehicleID, imageKeys, primaryIndex); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return oldKeys, nil
}

func insertImages(ctx context.Context, tx pgx.Tx, vehicleID uuid.UUID, keys []string, primaryIndex int) error {
	for i, key := range keys {
		if _, err := tx.Exec(ctx, `
			INSERT INTO vehicle_images (vehicle_id, object_key, is_primary, position)
			VALUES ($1, $2, $3, $4)
		`, vehicleID, key, i == primaryIndex, i); err != nil {
			return fmt.Errorf("insert vehicle image: %w", err)
		}
	}
	return nil
}
