package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")
var ErrEmailTaken = errors.New("email already in use")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UpdateProfileParams struct {
	FullName *string
	Email    *string
	Phone    *string
}

// CreateUser inserts a user and its profile row in one transaction.
// The profile starts with the renter role; role upgrades go through SetRole.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash, fullName string) (User, error) {
	var user User
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, full_name, phone, created_at, updated_at
	`, email, passwordHash, fullName).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrEmailTaken
		}
		return User{}, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, user.ID); err != nil {
		return User{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return User{}, err
	}

	user.Role = "renter"
	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.getUser(ctx, `WHERE u.email = $1`, email)
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	return r.getUser(ctx, `WHERE u.id = $1`, userID)
}

func (r *Repository) getUser(ctx context.Context, where string, arg interface{}) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.phone,
			COALESCE(p.role, 'renter'), u.created_at, u.updated_at
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
	`+where, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

// SetRole upserts the profile role for a user.
func (r *Repository) SetRole(ctx context.Context, userID uuid.UUID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
	`, userID, role)
	return err
}

// UpdateProfile applies a partial user update with COALESCE semantics.
// When the email changes, uniqueness against other accounts is verified
// inside the same transaction.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if params.Email != nil {
		var existing uuid.UUID
		err = tx.QueryRow(ctx, `
			SELECT id FROM users WHERE email = $1 AND id != $2
		`, *params.Email, userID).Scan(&existing)
		if err == nil {
			err = ErrEmailTaken
			return User{}, err
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return User{}, err
		}
		err = nil
	}

	var user User
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			updated_at = now()
		WHERE id = $1
		RETURNING id, email, password_hash, full_name, phone, created_at, updated_at
	`, userID, params.FullName, params.Email, params.Phone).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrNotFound
		return User{}, err
	}
	if err != nil {
		return User{}, err
	}

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(role, 'renter') FROM profiles WHERE user_id = $1
	`, userID).Scan(&user.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		user.Role = "renter"
		err = nil
	}
	if err != nil {
		return User{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return User{}, err
	}

	return user, nil
}

func (r *Repository) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, expires_at FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash).Scan(&userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, time.Time{}, ErrNotFound
	}
	return userID, expiresAt, err
}

func (r *Repository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash)
	return err
}

func (r *Repository) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID)
	return err
}

func isUniqueViolation(err error) bool {
	// 23505 is the Postgres unique_violation code.
	type sqlState interface{ SQLState() string }
	var coded sqlState
	if errors.As(err, &coded) {
		return coded.SQLState() == "23505"
	}
	return false
}
