package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rohmanhakim/chartstats/internal/metadata"
)

const DefaultRedisKey = "chartstats:cache"

// RedisStore keeps the cache in a single Redis hash. HSET merges field by
// field, so Save never needs the client-side read-modify-write of FileStore.
type RedisStore struct {
	client       *redis.Client
	hashKey      string
	metadataSink metadata.MetadataSink
}

func NewRedisStore(client *redis.Client, hashKey string, metadataSink metadata.MetadataSink) *RedisStore {
	if hashKey == "" {
		hashKey = DefaultRedisKey
	}
	return &RedisStore{
		client:       client,
		hashKey:      hashKey,
		metadataSink: metadataSink,
	}
}

// DialRedis opens a client for addr. Connectivity is not checked here;
// an unreachable server surfaces as an unavailable cache on first Load.
func DialRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       addr,
		MaxRetries: 1,
	})
}

func (s *RedisStore) Load(ctx context.Context) Entries {
	values, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		s.recordError("RedisStore.Load", &CacheError{Message: err.Error(), Cause: ErrCauseUnavailable, Err: err})
		return Entries{}
	}
	return Entries(values)
}

func (s *RedisStore) Save(ctx context.Context, additions Entries) error {
	if len(additions) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(additions))
	for k, v := range additions {
		fields[k] = v
	}

	if err := s.client.HSet(ctx, s.hashKey, fields).Err(); err != nil {
		cacheErr := &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailed, Err: err}
		s.recordError("RedisStore.Save", cacheErr)
		return cacheErr
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) recordError(action string, err *CacheError) {
	if s.metadataSink == nil {
		return
	}
	s.metadataSink.RecordError(
		time.Now(),
		"cache",
		action,
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrBackend, "redis"),
			metadata.NewAttr(metadata.AttrCacheKey, s.hashKey),
		},
	)
}
