package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nenshoukei/zombals-sub000/internal/game"
)

// MemoryStore keeps records in process. Records are stored encoded so callers
// cannot alias the saved copy.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) SaveRecord(ctx context.Context, r *game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkSavable(r); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return nil
	}
	s.records[r.ID] = data
	return nil
}

func (s *MemoryStore) GetRecord(ctx context.Context, id string) (*game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var r game.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Len returns the number of saved records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }
