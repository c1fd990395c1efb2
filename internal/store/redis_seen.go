package store

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/rxtech-lab/argo-signals/internal/notification"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// DefaultRedisPrefix namespaces the redis keys used by RedisSeenStore.
const DefaultRedisPrefix = "argo-signals:seen"

var _ notification.SeenStore = (*RedisSeenStore)(nil)

// RedisSeenStore keeps dedup keys in a redis sorted set scored by an INCR
// sequence, so several watchers can share one dedup window.
type RedisSeenStore struct {
	client   redis.Cmdable
	setKey   string
	seqKey   string
	capacity int
}

// NewRedisSeenStore returns a store holding at most capacity keys under prefix.
func NewRedisSeenStore(client redis.Cmdable, prefix string, capacity int) (*RedisSeenStore, error) {
	if capacity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidCapacity, "seen store capacity must be positive, got %d", capacity)
	}

	if client == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "redis client is required")
	}

	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &RedisSeenStore{
		client:   client,
		setKey:   prefix + ":keys",
		seqKey:   prefix + ":seq",
		capacity: capacity,
	}, nil
}

// NewRedisClient connects to the redis server at addr and pings it.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to reach redis at %s", addr)
	}

	return client, nil
}

func (s *RedisSeenStore) Seen(ctx context.Context, key string) (bool, error) {
	err := s.client.ZScore(ctx, s.setKey, key).Err()
	if err == redis.Nil {
		return false, nil
	}

	if err != nil {
		return false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to look up seen key", err)
	}

	return true, nil
}

func (s *RedisSeenStore) Add(ctx context.Context, key string) error {
	seq, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to allocate seen sequence", err)
	}

	added, err := s.client.ZAddNX(ctx, s.setKey, &redis.Z{Score: float64(seq), Member: key}).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert seen key", err)
	}

	if added == 0 {
		return nil
	}

	// keep the capacity highest scores
	if err := s.client.ZRemRangeByRank(ctx, s.setKey, 0, int64(-s.capacity-1)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to evict seen keys", err)
	}

	return nil
}

func (s *RedisSeenStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.setKey).Result()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count seen keys", err)
	}

	return int(n), nil
}

// Clear removes every key of this store. Used when resetting a shared window.
func (s *RedisSeenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.setKey, s.seqKey).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to clear seen keys", err)
	}

	return nil
}
