package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/utils"
)

const (
	feedbackKeyPrefix = "interview:feedback:"
	archiveKey        = "interview:feedback:last"
)

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, rec models.FeedbackRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, feedbackKeyPrefix+sessionID, b, s.ttl).Err(); err != nil {
		return err
	}
	return s.rdb.Set(ctx, archiveKey, b, s.ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, sessionID string) (models.FeedbackRecord, Source, error) {
	if rec, ok := s.getDel(ctx, feedbackKeyPrefix+sessionID); ok {
		return rec, SourceFresh, nil
	}
	if rec, ok := s.get(ctx, archiveKey); ok {
		return rec, SourceArchive, nil
	}
	return models.FeedbackRecord{}, "", utils.ErrNotFound
}

func (s *RedisStore) getDel(ctx context.Context, key string) (models.FeedbackRecord, bool) {
	raw, err := s.rdb.GetDel(ctx, key).Result()
	if err != nil {
		return models.FeedbackRecord{}, false
	}
	return decode(ctx, s.rdb, key, raw)
}

func (s *RedisStore) get(ctx context.Context, key string) (models.FeedbackRecord, bool) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return models.FeedbackRecord{}, false
	}
	return decode(ctx, s.rdb, key, raw)
}

func decode(ctx context.Context, rdb *redis.Client, key, raw string) (models.FeedbackRecord, bool) {
	var rec models.FeedbackRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// corrupt record: treat as miss
		_ = rdb.Del(ctx, key).Err()
		return models.FeedbackRecord{}, false
	}
	return rec, true
}
