package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pump-listener/internal/domain"
	"pump-listener/internal/storage"
)

const tokenCreationColumns = `
	event_id, name, symbol, mint, creator_sol_amount, creator_public_key, link,
	signature, uri, mint_valid, creator_on_curve, received_at, created_at
`

// TokenCreationStore implements storage.TokenCreationStore using PostgreSQL.
type TokenCreationStore struct {
	pool *Pool
}

// NewTokenCreationStore creates a new TokenCreationStore.
func NewTokenCreationStore(pool *Pool) *TokenCreationStore {
	return &TokenCreationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenCreationStore = (*TokenCreationStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
func (s *TokenCreationStore) Insert(ctx context.Context, r *domain.TokenCreationRecord) error {
	if r == nil || r.EventID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_creations (
			event_id, name, symbol, mint, creator_sol_amount, creator_public_key, link,
			signature, uri, mint_valid, creator_on_curve, received_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		r.EventID,
		r.Name,
		r.Symbol,
		r.Mint,
		r.CreatorSolAmount,
		r.CreatorPublicKey,
		r.Link,
		r.Signature,
		r.URI,
		r.MintValid,
		r.CreatorOnCurve,
		r.ReceivedAt,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token creation: %w", err)
	}
	return nil
}

// GetByID retrieves a record by event ID. Returns ErrNotFound if not exists.
func (s *TokenCreationStore) GetByID(ctx context.Context, eventID string) (*domain.TokenCreationRecord, error) {
	query := `SELECT ` + tokenCreationColumns + ` FROM token_creations WHERE event_id = $1`

	row := s.pool.QueryRow(ctx, query, eventID)
	r, err := scanTokenCreation(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token creation by id: %w", err)
	}
	return r, nil
}

// GetByMint retrieves all records for a mint, ordered by received_at ASC.
func (s *TokenCreationStore) GetByMint(ctx context.Context, mint string) ([]*domain.TokenCreationRecord, error) {
	query := `SELECT ` + tokenCreationColumns + `
		FROM token_creations
		WHERE mint = $1
		ORDER BY received_at ASC, event_id ASC
	`
	return s.query(ctx, "get token creations by mint", query, mint)
}

// GetRecent retrieves up to limit records, newest received_at first.
func (s *TokenCreationStore) GetRecent(ctx context.Context, limit int) ([]*domain.TokenCreationRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `SELECT ` + tokenCreationColumns + `
		FROM token_creations
		ORDER BY received_at DESC, event_id DESC
		LIMIT $1
	`
	return s.query(ctx, "get recent token creations", query, limit)
}

// GetByTimeRange retrieves records received within [start, end] (inclusive), ordered ASC.
func (s *TokenCreationStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenCreationRecord, error) {
	query := `SELECT ` + tokenCreationColumns + `
		FROM token_creations
		WHERE received_at >= $1 AND received_at <= $2
		ORDER BY received_at ASC, event_id ASC
	`
	return s.query(ctx, "get token creations by time range", query, start, end)
}

func (s *TokenCreationStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.TokenCreationRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*domain.TokenCreationRecord
	for rows.Next() {
		r, err := scanTokenCreation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token creation: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// scanTokenCreation scans a single row into TokenCreationRecord.
func scanTokenCreation(row pgx.Row) (*domain.TokenCreationRecord, error) {
	var r domain.TokenCreationRecord

	err := row.Scan(
		&r.EventID,
		&r.Name,
		&r.Symbol,
		&r.Mint,
		&r.CreatorSolAmount,
		&r.CreatorPublicKey,
		&r.Link,
		&r.Signature,
		&r.URI,
		&r.MintValid,
		&r.CreatorOnCurve,
		&r.ReceivedAt,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}
