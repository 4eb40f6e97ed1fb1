package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
)

const sessionKeyPrefix = "session:"

// HashToken derives the storage key material for a refresh token. Only the
// hash ever reaches Redis, so a dumped keyspace cannot be replayed as
// tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionRepository implements repository.SessionRepository using Redis.
// Each refresh session is one key with the token's remaining lifetime as
// TTL; expiry is enforced by Redis itself.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save stores a session for the hashed refresh token.
func (r *SessionRepository) Save(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+tokenHash, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// UserID resolves a token hash to the owning user.
func (r *SessionRepository) UserID(ctx context.Context, tokenHash string) (string, error) {
	userID, err := r.client.Get(ctx, sessionKeyPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.Unauthorized("session expired or revoked")
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}
	return userID, nil
}

// Delete removes one session.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
