package service

import (
	"context"
	"errors"
	"time"

	"advenrent_backend/internal/auth/password"
	"advenrent_backend/internal/auth/repository"
	"advenrent_backend/internal/auth/token"
	"advenrent_backend/platform/apperr"
	"advenrent_backend/platform/config"
	"advenrent_backend/platform/events"
	"advenrent_backend/platform/logger"
	"advenrent_backend/platform/phone"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("token invalid")

const accessTokenType = "access"

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

// Register creates the account and signs the caller in.
func (s *Service) Register(ctx context.Context, email, plainPassword, fullName string) (repository.User, TokenPair, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return repository.User{}, TokenPair{}, err
	}

	user, err := s.repo.CreateUser(ctx, email, hash, fullName)
	if errors.Is(err, repository.ErrEmailTaken) {
		return repository.User{}, TokenPair{}, apperr.Conflict("email already in use")
	}
	if err != nil {
		return repository.User{}, TokenPair{}, err
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return repository.User{}, TokenPair{}, err
	}

	s.bus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
	})
	s.log.AuthEvent("register", email, true, "")

	return user, pair, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (repository.User, TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown email")
		return repository.User{}, TokenPair{}, ErrInvalidCredentials
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", email, false, "bad password")
		return repository.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return repository.User{}, TokenPair{}, err
	}

	s.log.AuthEvent("login", email, true, "")
	return user, pair, nil
}

// Refresh rotates a refresh token and issues a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := token.Fingerprint(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, ErrTokenInvalid
	}

	if time.Now().After(expiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return TokenPair{}, ErrTokenExpired
	}

	_ = s.repo.RevokeRefreshToken(ctx, hash)
	return s.issueTokens(ctx, userID)
}

// Logout revokes a refresh token. The access token expires on its own.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	hash := token.Fingerprint(refreshToken)
	return s.repo.RevokeRefreshToken(ctx, hash)
}

// GetMe returns the caller's account with its profile role.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, err
}

// SetRole updates the caller's marketplace role (renter, rentee or both).
func (s *Service) SetRole(ctx context.Context, userID uuid.UUID, role string) (repository.User, error) {
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return repository.User{}, err
	}
	return s.GetMe(ctx, userID)
}

// UpdateProfile applies a partial update to the caller's account.
// Phone numbers are normalized to E.164 before storage.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, params repository.UpdateProfileParams) (repository.User, error) {
	if params.Phone != nil && *params.Phone != "" {
		if !phone.IsValid(*params.Phone) {
			return repository.User{}, apperr.Validation("invalid phone number")
		}
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}

	user, err := s.repo.UpdateProfile(ctx, userID, params)
	if errors.Is(err, repository.ErrEmailTaken) {
		return repository.User{}, apperr.Conflict("email already in use")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, err
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	accessToken, err := s.signJWT(userID, s.cfg.GetAccessTokenTTL())
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := token.Generate(48)
	if err != nil {
		return TokenPair{}, err
	}

	hash := token.Fingerprint(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, hash, expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(userID uuid.UUID, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": accessTokenType,
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
