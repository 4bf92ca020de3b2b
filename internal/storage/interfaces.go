package storage

import (
	"context"

	"pump-listener/internal/domain"
)

// TokenCreationStore provides access to token_creations storage.
type TokenCreationStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, r *domain.TokenCreationRecord) error

	// GetByID retrieves a record by event ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, eventID string) (*domain.TokenCreationRecord, error)

	// GetByMint retrieves all records for a mint, ordered by received_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TokenCreationRecord, error)

	// GetRecent retrieves up to limit records, newest received_at first.
	GetRecent(ctx context.Context, limit int) ([]*domain.TokenCreationRecord, error)

	// GetByTimeRange retrieves records received within [start, end] (inclusive), ordered ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenCreationRecord, error)
}
