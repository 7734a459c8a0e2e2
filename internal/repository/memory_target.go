package repository

import (
	"context"
	"fmt"
	"sync"

	"hospicrm-migrator/internal/domain"
)

// MemoryTargetStore backs dry runs and tests when no Postgres is
// available. It mirrors the production semantics: inserting an existing
// identifier is a no-op, and the nullable-FK columns are not enforced
// (the registry is the local line of defense, same as in production where
// the DB is only a backstop).
type MemoryTargetStore struct {
	mu sync.RWMutex

	records map[domain.EntityType]map[string]domain.Record
	// order preserves insertion order per entity type for inspection.
	order map[domain.EntityType][]string
}

func NewMemoryTargetStore() *MemoryTargetStore {
	return &MemoryTargetStore{
		records: make(map[domain.EntityType]map[string]domain.Record),
		order:   make(map[domain.EntityType][]string),
	}
}

var _ TargetStore = (*MemoryTargetStore)(nil)

func (s *MemoryTargetStore) Exists(_ context.Context, entity domain.EntityType, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[entity][id]
	return ok, nil
}

func (s *MemoryTargetStore) Insert(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity := rec.EntityType()
	if s.records[entity] == nil {
		s.records[entity] = make(map[string]domain.Record)
	}
	key := rec.Key()
	if key == "" {
		return fmt.Errorf("%w: insert: empty key for %s", ErrConstraintViolation, entity)
	}
	if _, ok := s.records[entity][key]; ok {
		return nil
	}
	s.records[entity][key] = rec.Clone()
	s.order[entity] = append(s.order[entity], key)
	return nil
}

func (s *MemoryTargetStore) ListIDs(_ context.Context, entity domain.EntityType) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order[entity]))
	copy(ids, s.order[entity])
	return ids, nil
}

// Get returns the stored record, if any. Inspection helper for tests and
// dry-run summaries.
func (s *MemoryTargetStore) Get(entity domain.EntityType, id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[entity][id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Count returns the number of stored rows for the entity type.
func (s *MemoryTargetStore) Count(entity domain.EntityType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[entity])
}
