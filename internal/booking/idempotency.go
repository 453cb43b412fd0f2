package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const idemPending = "pending"

// IdempotencyStore deduplicates retried bookings that carry a client
// idempotency key. Without a key, booking retries are not deduplicated.
type IdempotencyStore interface {
	// Begin claims the key. It returns the previously booked appointment id
	// when a finished booking already owns the key, or acquired=false when
	// another request with the same key is still in flight.
	Begin(ctx context.Context, key string) (existing *uuid.UUID, acquired bool, err error)

	// Commit records the booked appointment id under the key.
	Commit(ctx context.Context, key string, appointmentID uuid.UUID) error

	// Abort drops the claim so the client can retry after a failure.
	Abort(ctx context.Context, key string) error
}

type redisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore keys claims per booking request. The SETNX claim
// settles concurrent retries with the same key the same way the slot CAS
// settles concurrent reservations: one request proceeds, the rest observe.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) IdempotencyStore {
	return &redisIdempotencyStore{client: client, ttl: ttl}
}

func idemKey(key string) string {
	return fmt.Sprintf("booking:idem:%s", key)
}

func (s *redisIdempotencyStore) Begin(ctx context.Context, key string) (*uuid.UUID, bool, error) {
	ok, err := s.client.SetNX(ctx, idemKey(key), idemPending, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	val, err := s.client.Get(ctx, idemKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Claim expired between SetNX and Get; let the caller retry.
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == idemPending {
		return nil, false, nil
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt idempotency entry %q: %w", val, err)
	}
	return &id, false, nil
}

func (s *redisIdempotencyStore) Commit(ctx context.Context, key string, appointmentID uuid.UUID) error {
	if err := s.client.Set(ctx, idemKey(key), appointmentID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("commit idempotency key: %w", err)
	}
	return nil
}

var abortScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

// Abort deletes the claim only while it is still pending, so a finished
// booking recorded by Commit is never dropped by a late failure path.
func (s *redisIdempotencyStore) Abort(ctx context.Context, key string) error {
	_, err := abortScript.Run(ctx, s.client, []string{idemKey(key)}, idemPending).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("abort idempotency key: %w", err)
	}
	return nil
}
