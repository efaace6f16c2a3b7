package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore maps caller-supplied idempotency tokens to the order they
// produced, so a retried checkout returns the original order instead of
// creating a duplicate.
type TokenStore interface {
	// Lookup returns the order id recorded for the token, if any.
	Lookup(ctx context.Context, userID, token string) (string, bool, error)
	// Remember records token -> orderID. Later lookups within the retention
	// window return orderID.
	Remember(ctx context.Context, userID, token, orderID string) error
}

// RedisTokenStore keeps tokens in Redis with a TTL.
type RedisTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTokenStore creates a Redis-backed token store.
func NewRedisTokenStore(rdb *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, ttl: ttl}
}

func tokenKey(userID, token string) string {
	return fmt.Sprintf("checkout:%s:%s", userID, token)
}

func (s *RedisTokenStore) Lookup(ctx context.Context, userID, token string) (string, bool, error) {
	orderID, err := s.rdb.Get(ctx, tokenKey(userID, token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up idempotency token: %w", err)
	}
	return orderID, true, nil
}

func (s *RedisTokenStore) Remember(ctx context.Context, userID, token, orderID string) error {
	if err := s.rdb.SetNX(ctx, tokenKey(userID, token), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record idempotency token: %w", err)
	}
	return nil
}

// MemoryTokenStore is an in-memory token store used by tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) Lookup(ctx context.Context, userID, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.tokens[tokenKey(userID, token)]
	return orderID, ok, nil
}

func (s *MemoryTokenStore) Remember(ctx context.Context, userID, token, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey(userID, token)
	if _, exists := s.tokens[key]; !exists {
		s.tokens[key] = orderID
	}
	return nil
}
