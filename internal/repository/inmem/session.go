package inmem

import (
	"context"
	"time"

	"github.com/deppfellow/classroom/internal/model"
)

func (s *Store) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl > 0 {
		s.revoked[tokenID] = s.Now().Add(ttl)
	}
	return nil
}

func (s *Store) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.revoked[tokenID]
	return ok && s.Now().Before(expiresAt), nil
}

func (s *Store) CacheUser(_ context.Context, user *model.User, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached := *user
	cached.Password = ""
	s.cachedUsers[user.ID] = cached
	return nil
}

func (s *Store) GetCachedUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.cachedUsers[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) ForgetUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cachedUsers, id)
	return nil
}

// Increment counts hits in fixed windows like the Redis rate limit store.
func (s *Store) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = counter{expiresAt: now.Add(window)}
	}
	c.count++
	s.counters[key] = c
	return c.count, nil
}
