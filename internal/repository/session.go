package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/redis/go-redis/v9"
)

// SessionRepository keeps the token denylist and a short-lived copy of
// authenticated users in Redis.
type SessionRepository struct {
	server *server.Server
}

func NewSessionRepository(s *server.Server) *SessionRepository {
	return &SessionRepository{server: s}
}

func revokedTokenKey(tokenID string) string {
	return "revoked_token:" + tokenID
}

func cachedUserKey(id int64) string {
	return fmt.Sprintf("user:%d:data", id)
}

// RevokeToken denylists a token id until ttl elapses.
func (r *SessionRepository) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.server.Redis.Set(ctx, revokedTokenKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *SessionRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.server.Redis.Exists(ctx, revokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) CacheUser(ctx context.Context, user *model.User, ttl time.Duration) error {
	data, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := r.server.Redis.Set(ctx, cachedUserKey(user.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// GetCachedUser returns nil without an error on a cache miss.
func (r *SessionRepository) GetCachedUser(ctx context.Context, id int64) (*model.User, error) {
	data, err := r.server.Redis.Get(ctx, cachedUserKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}

	var cached cachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &model.User{
		ID:        cached.ID,
		Name:      cached.Name,
		Email:     cached.Email,
		Role:      cached.Role,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}, nil
}

func (r *SessionRepository) ForgetUser(ctx context.Context, id int64) error {
	return r.server.Redis.Del(ctx, cachedUserKey(id)).Err()
}

// cachedUser never carries the password hash.
type cachedUser struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
