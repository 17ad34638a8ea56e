package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/chronos/internal/repository"
)

// Service manages users and API keys.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines user creation inputs.
type CreateRequest struct {
	Name  string
	Email string
}

// Create registers a user and issues a first API key. The plain key is only
// returned here; the store keeps a hash.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*User, string, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || !strings.Contains(email, "@") {
		return nil, "", ErrInvalidInput
	}

	u := &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	key, err := s.IssueKey(ctx, u.ID, "default")
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user created", "user_id", u.ID)
	return u, key, nil
}

// EnsureUser creates a user with a fixed id unless it already exists. It
// backs the single local user that runs every call when auth is off.
func (s *Service) EnsureUser(ctx context.Context, id, name string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	err := s.repo.Create(ctx, &User{
		ID:        id,
		Name:      name,
		Email:     id + "@localhost",
		CreatedAt: time.Now(),
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("ensuring user %s: %w", id, err)
	}
	return nil
}

// IssueKey mints a new API key for an existing user.
func (s *Service) IssueKey(ctx context.Context, userID, description string) (string, error) {
	key := uuid.NewString()
	if err := s.repo.AddAPIKey(ctx, userID, HashKey(key), description); err != nil {
		return "", fmt.Errorf("storing api key: %w", err)
	}
	return key, nil
}

// ListIDs returns every user id.
func (s *Service) ListIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}

// ResolveUser maps a bearer token to its user id.
func (s *Service) ResolveUser(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := s.repo.UserIDForKey(ctx, HashKey(token))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("resolving api key: %w", err)
	}
	return userID, nil
}

// HashKey returns the stored form of an API key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
