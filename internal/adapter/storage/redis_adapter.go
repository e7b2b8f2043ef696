package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/food-ordering/internal/core/domain"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultEventStream    = "food-ordering:events"
	eventStreamMaxLen     = 10000
)

// RedisAdapter implements port.CacheRepository and port.EventPublisher.
type RedisAdapter struct {
	client         *redis.Client
	idempotencyTTL time.Duration
	stream         string
}

func NewRedisAdapter(client *redis.Client, idempotencyTTL time.Duration, stream string) *RedisAdapter {
	if stream == "" {
		stream = DefaultEventStream
	}
	return &RedisAdapter{
		client:         client,
		idempotencyTTL: idempotencyTTL,
		stream:         stream,
	}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, errors.Wrapf(err, "setnx %s", key)
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return errors.Wrapf(r.client.Del(ctx, key).Err(), "del %s", key)
}

// PublishEvent appends the event to the stream as {type, payload}.
func (r *RedisAdapter) PublishEvent(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: eventStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":    event.Type(),
			"payload": string(payload),
		},
	}).Err()
	return errors.Wrapf(err, "xadd %s", r.stream)
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "redis ping")
}
