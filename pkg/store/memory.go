package store

import (
	"context"
	"sync"

	"github.com/luna-ai/luna/pkg/errkind"
	"github.com/luna-ai/luna/pkg/schemas"
)

// MemoryStore keeps consultation records in process memory. Used by tests
// and as the default when no backend is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]*schemas.ConsultationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]*schemas.ConsultationRecord)}
}

// SaveConsultation implements Store.
func (s *MemoryStore) SaveConsultation(_ context.Context, rec *schemas.ConsultationRecord) error {
	if rec == nil || rec.ID == "" {
		return errkind.New(errkind.Validation, errkind.CodeMissingRequired, "consultation record needs an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], &cp)
	return nil
}

// ListConsultations implements Store.
func (s *MemoryStore) ListConsultations(_ context.Context, userID string, limit int) ([]*schemas.ConsultationRecord, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byUser[userID]
	out := make([]*schemas.ConsultationRecord, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *records[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
