package ticket

import (
	"context"
	"errors"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces pairing codes inside a possibly shared Redis.
const keyPrefix = "pairing:"

// RedisStore keeps pairing tickets in Redis. GETDEL gives us the atomic
// claim without any scripting.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr (host:port).
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisStore) Put(ctx context.Context, t domain.PairingTicket) error {
	return s.client.Set(ctx, keyPrefix+t.Code, t.Email, time.Until(t.ExpiresAt)).Err()
}

func (s *RedisStore) Claim(ctx context.Context, code string) (string, error) {
	email, err := s.client.GetDel(ctx, keyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
