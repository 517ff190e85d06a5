package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyFormat  = "idem:order:create:%s"
	pending    = "__pending__"
	DefaultTTL = 24 * time.Hour
)

// ErrInFlight means another request with the same key has reserved it and
// not finished yet.
var ErrInFlight = errors.New("a request with this idempotency key is still in progress")

// Store remembers the response of a completed create so a retried request
// gets the same answer instead of a second order.
type Store interface {
	// Reserve claims key. When a previous request already completed, it
	// returns that request's stored response and reserved=false.
	Reserve(ctx context.Context, key string) (prior []byte, reserved bool, err error)
	Complete(ctx context.Context, key string, response []byte) error
	Release(ctx context.Context, key string) error
}

type kv interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	rdb kv
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func redisKey(key string) string {
	return fmt.Sprintf(keyFormat, key)
}

func (s *redisStore) Reserve(ctx context.Context, key string) ([]byte, bool, error) {
	k := redisKey(key)

	ok, err := s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	val, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return nil, false, err
	}
	if val == pending {
		return nil, false, ErrInFlight
	}
	return []byte(val), false, nil
}

func (s *redisStore) Complete(ctx context.Context, key string, response []byte) error {
	return s.rdb.Set(ctx, redisKey(key), response, s.ttl).Err()
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKey(key)).Err()
}
