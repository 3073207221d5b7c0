package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for unknown or expired tokens.
var ErrSessionNotFound = errors.New("session not found")

const keyPrefix = "auth_"

// Store maps opaque session tokens to user ids. Entries expire after the
// configured TTL and are shared by every API instance.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(token string) string {
	return keyPrefix + token
}

// Create issues a fresh token for userID.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()

	err := s.rdb.Set(ctx, key(token), userID, s.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// UserID resolves a token to the user id it was issued for.
func (s *Store) UserID(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}

	userID, err := s.rdb.Get(ctx, key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	return userID, nil
}

// Delete revokes a token. Revoking an unknown token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	err := s.rdb.Del(ctx, key(token)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
