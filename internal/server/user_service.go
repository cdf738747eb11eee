package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/resumeai/internal/config"
	"github.com/jonathan/resumeai/internal/db"
	"github.com/jonathan/resumeai/internal/server/middleware"
	"github.com/jonathan/resumeai/internal/types"
)

// Store is the credential store the server needs. *db.DB implements it.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
	CreateAPIKey(ctx context.Context, userID uuid.UUID, keyHash, prefix string) (*db.APIKey, error)
	GetUserByAPIKeyHash(ctx context.Context, keyHash string) (*db.User, error)
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]db.APIKey, error)
	DeleteAPIKeyByHash(ctx context.Context, keyHash string) (bool, error)
}

// UserService provides account and API key operations.
type UserService struct {
	store          Store
	passwordConfig *config.PasswordConfig
	// dummyHash is compared against when a username does not exist so that unknown
	// users take as long to reject as wrong passwords.
	dummyHash string
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store Store, passwordConfig *config.PasswordConfig) *UserService {
	s := &UserService{store: store, passwordConfig: passwordConfig}
	if hash, err := passwordConfig.HashPassword("resumeai-timing-equalizer"); err == nil {
		s.dummyHash = hash
	}
	return s
}

func toTypesUser(u *db.User) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

// Register creates an account and issues its first API key.
func (s *UserService) Register(ctx context.Context, req *types.CredentialsRequest) (*types.User, string, error) {
	username := strings.TrimSpace(req.Username)
	hash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, config.ErrPasswordTooLong) {
			return nil, "", &ErrValidation{Field: "Password", Message: "max"}
		}
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateUsername) {
			return nil, "", &ErrUsernameTaken{Username: username}
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	key, err := s.IssueAPIKey(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return toTypesUser(user), key, nil
}

// Authenticate checks a username and password.
func (s *UserService) Authenticate(ctx context.Context, req *types.CredentialsRequest) (*types.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if user == nil {
		if s.dummyHash != "" {
			s.passwordConfig.VerifyPassword(req.Password, s.dummyHash)
		}
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return toTypesUser(user), nil
}

// IssueAPIKey creates a new key for the user. The raw key is returned once and never
// stored.
func (s *UserService) IssueAPIKey(ctx context.Context, userID uuid.UUID) (string, error) {
	key, hash, display, err := config.GenerateAPIKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	if _, err := s.store.CreateAPIKey(ctx, userID, hash, display); err != nil {
		return "", fmt.Errorf("failed to store API key: %w", err)
	}
	return key, nil
}

// ListAPIKeys returns the owner's username and a summary of each of their keys.
func (s *UserService) ListAPIKeys(ctx context.Context, userID uuid.UUID) (*types.APIKeyListResponse, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}

	keys, err := s.store.ListAPIKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	resp := &types.APIKeyListResponse{Username: user.Username, APIKeys: make([]types.APIKeySummary, 0, len(keys))}
	for _, k := range keys {
		resp.APIKeys = append(resp.APIKeys, types.APIKeySummary{
			ID:        k.ID,
			Prefix:    k.Prefix + "...",
			CreatedAt: k.CreatedAt,
		})
	}
	return resp, nil
}

// RevokeAPIKey deletes the key with the given hash. It reports whether a key was removed.
func (s *UserService) RevokeAPIKey(ctx context.Context, keyHash string) (bool, error) {
	deleted, err := s.store.DeleteAPIKeyByHash(ctx, keyHash)
	if err != nil {
		return false, fmt.Errorf("failed to revoke API key: %w", err)
	}
	return deleted, nil
}

// ResolveAPIKey implements middleware.KeyResolver.
func (s *UserService) ResolveAPIKey(ctx context.Context, key string) (*middleware.Principal, error) {
	if !strings.HasPrefix(key, config.APIKeyPrefix) {
		return nil, middleware.ErrUnauthorized
	}
	hash := config.HashAPIKey(key)
	user, err := s.store.GetUserByAPIKeyHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, middleware.ErrUnauthorized
	}
	return &middleware.Principal{UserID: user.ID, Method: middleware.MethodAPIKey, KeyHash: hash}, nil
}
