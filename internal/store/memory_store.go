package store

import (
	"context"
	"sync"

	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/utils"
)

// MemoryStore is the redis-less implementation used in local development and
// tests. Same consume-once semantics as RedisStore, no TTL.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]models.FeedbackRecord
	archive *models.FeedbackRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pending: make(map[string]models.FeedbackRecord)}
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, rec models.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = rec
	cp := rec
	s.archive = &cp
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, sessionID string) (models.FeedbackRecord, Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.pending[sessionID]; ok {
		delete(s.pending, sessionID)
		return rec, SourceFresh, nil
	}
	if s.archive != nil {
		return *s.archive, SourceArchive, nil
	}
	return models.FeedbackRecord{}, "", utils.ErrNotFound
}
