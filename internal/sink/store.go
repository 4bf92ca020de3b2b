package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pump-listener/internal/domain"
	"pump-listener/internal/idhash"
	"pump-listener/internal/pubkey"
	"pump-listener/internal/storage"
)

// Store persists events through a storage.TokenCreationStore.
// Redeliveries map to the same event_id and are accepted silently.
type Store struct {
	store storage.TokenCreationStore
	now   func() time.Time
}

// NewStore creates a store sink. A nil now uses time.Now.
func NewStore(store storage.TokenCreationStore, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{store: store, now: now}
}

// Emit stores the event.
func (s *Store) Emit(ctx context.Context, e domain.TokenCreationEvent) error {
	rec := NewRecord(e, s.now())
	err := s.store.Insert(ctx, rec)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("store token creation %s: %w", rec.EventID, err)
	}
	return nil
}

// Recent returns the newest stored events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.TokenCreationEvent, error) {
	records, err := s.store.GetRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	events := make([]domain.TokenCreationEvent, 0, len(records))
	for _, r := range records {
		events = append(events, r.Event())
	}
	return events, nil
}

// NewRecord builds the storage form of e received at t.
func NewRecord(e domain.TokenCreationEvent, t time.Time) *domain.TokenCreationRecord {
	ms := t.UnixMilli()
	return &domain.TokenCreationRecord{
		EventID:          idhash.ComputeEventID(e.MintAddress, e.CreatorPublicKey, e.Signature, ms),
		Name:             e.Name,
		Symbol:           e.Symbol,
		Mint:             e.MintAddress,
		CreatorSolAmount: float64(e.CreatorSolAmount),
		CreatorPublicKey: e.CreatorPublicKey,
		Link:             e.Link,
		Signature:        optional(e.Signature),
		URI:              optional(e.URI),
		MintValid:        pubkey.IsValid(e.MintAddress),
		CreatorOnCurve:   pubkey.IsOnCurve(e.CreatorPublicKey),
		ReceivedAt:       ms,
		CreatedAt:        ms,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
