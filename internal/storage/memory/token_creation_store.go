package memory

import (
	"context"
	"sort"
	"sync"

	"pump-listener/internal/domain"
	"pump-listener/internal/storage"
)

// TokenCreationStore is an in-memory implementation of storage.TokenCreationStore.
// With a positive capacity it keeps only the newest records, evicting the
// oldest insert first.
type TokenCreationStore struct {
	mu       sync.RWMutex
	capacity int
	byID     map[string]*domain.TokenCreationRecord // keyed by event_id
	order    []string                               // event_ids in insertion order
}

// NewTokenCreationStore creates a new in-memory store. capacity <= 0 means unbounded.
func NewTokenCreationStore(capacity int) *TokenCreationStore {
	return &TokenCreationStore{
		capacity: capacity,
		byID:     make(map[string]*domain.TokenCreationRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if event_id already exists.
func (s *TokenCreationStore) Insert(_ context.Context, r *domain.TokenCreationRecord) error {
	if r == nil || r.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[r.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := copyRecord(r)
	s.byID[r.EventID] = recCopy
	s.order = append(s.order, r.EventID)

	if s.capacity > 0 && len(s.order) > s.capacity {
		evict := len(s.order) - s.capacity
		for _, id := range s.order[:evict] {
			delete(s.byID, id)
		}
		s.order = append([]string(nil), s.order[evict:]...)
	}
	return nil
}

// GetByID retrieves a record by event ID. Returns ErrNotFound if not exists.
func (s *TokenCreationStore) GetByID(_ context.Context, eventID string) (*domain.TokenCreationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byID[eventID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRecord(r), nil
}

// GetByMint retrieves all records for a mint, ordered by received_at ASC.
func (s *TokenCreationStore) GetByMint(_ context.Context, mint string) ([]*domain.TokenCreationRecord, error) {
	return s.filter(func(r *domain.TokenCreationRecord) bool {
		return r.Mint == mint
	}), nil
}

// GetByTimeRange retrieves records received within [start, end], ordered ASC.
func (s *TokenCreationStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TokenCreationRecord, error) {
	return s.filter(func(r *domain.TokenCreationRecord) bool {
		return r.ReceivedAt >= start && r.ReceivedAt <= end
	}), nil
}

// GetRecent retrieves up to limit records, newest received_at first.
func (s *TokenCreationStore) GetRecent(_ context.Context, limit int) ([]*domain.TokenCreationRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	all := s.filter(func(*domain.TokenCreationRecord) bool { return true })

	result := make([]*domain.TokenCreationRecord, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, all[i])
	}
	return result, nil
}

// Len returns the number of stored records.
func (s *TokenCreationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// filter returns copies of matching records ordered by received_at, then insertion.
func (s *TokenCreationStore) filter(match func(*domain.TokenCreationRecord) bool) []*domain.TokenCreationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenCreationRecord
	for _, id := range s.order {
		r := s.byID[id]
		if match(r) {
			result = append(result, copyRecord(r))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReceivedAt < result[j].ReceivedAt
	})
	return result
}

func copyRecord(r *domain.TokenCreationRecord) *domain.TokenCreationRecord {
	recCopy := *r
	if r.Signature != nil {
		sig := *r.Signature
		recCopy.Signature = &sig
	}
	if r.URI != nil {
		uri := *r.URI
		recCopy.URI = &uri
	}
	return &recCopy
}

var _ storage.TokenCreationStore = (*TokenCreationStore)(nil)
