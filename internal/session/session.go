package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store binds anonymous shoppers to their in-progress order. The contract is
// a capability token: get/set/clear of a single order id keyed by the
// visitor's session token, nothing more.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a Redis-backed session store
func NewStore(addr, password string, db int, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Store{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (s *Store) GetClient() *redis.Client {
	return s.rdb
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.rdb.Close()
}

func sessionKey(token string) string {
	return fmt.Sprintf("cart:session:%s", token)
}

// OrderID returns the order id bound to a session token. The second return
// is false when the token has no binding.
func (s *Store) OrderID(ctx context.Context, token string) (int64, bool, error) {
	val, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read session binding: %w", err)
	}

	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt session binding %q: %w", val, err)
	}
	return orderID, true, nil
}

// Bind binds a session token to an order id
func (s *Store) Bind(ctx context.Context, token string, orderID int64) error {
	return s.rdb.Set(ctx, sessionKey(token), orderID, s.ttl).Err()
}

// Clear removes the session binding for a token
func (s *Store) Clear(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

// AcquireLock acquires a short-lived lock, used to guard checkout against
// double submission
func (s *Store) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a lock
func (s *Store) ReleaseLock(ctx context.Context, lockKey string) error {
	return s.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
