package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"pump-listener/internal/domain"
	"pump-listener/internal/storage"
)

const tokenCreationColumns = `
	event_id, name, symbol, mint, creator_sol_amount, creator_public_key, link,
	signature, uri, mint_valid, creator_on_curve, received_at, created_at
`

// TokenCreationStore implements storage.TokenCreationStore using ClickHouse.
// ReplacingMergeTree does not enforce uniqueness, so Insert checks first.
type TokenCreationStore struct {
	conn *Conn
}

// NewTokenCreationStore creates a new TokenCreationStore.
func NewTokenCreationStore(conn *Conn) *TokenCreationStore {
	return &TokenCreationStore{conn: conn}
}

var _ storage.TokenCreationStore = (*TokenCreationStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
func (s *TokenCreationStore) Insert(ctx context.Context, r *domain.TokenCreationRecord) error {
	if r == nil || r.EventID == "" {
		return storage.ErrInvalidInput
	}

	var count uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM token_creations FINAL WHERE event_id = ?`, r.EventID)
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("check existing token creation: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO token_creations (`+tokenCreationColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
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
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves a record by event ID. Returns ErrNotFound if not exists.
func (s *TokenCreationStore) GetByID(ctx context.Context, eventID string) (*domain.TokenCreationRecord, error) {
	query := `SELECT ` + tokenCreationColumns + ` FROM token_creations FINAL WHERE event_id = ? LIMIT 1`

	records, err := s.query(ctx, "get token creation by id", query, eventID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// GetByMint retrieves all records for a mint, ordered by received_at ASC.
func (s *TokenCreationStore) GetByMint(ctx context.Context, mint string) ([]*domain.TokenCreationRecord, error) {
	query := `SELECT ` + tokenCreationColumns + `
		FROM token_creations FINAL
		WHERE mint = ?
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
		FROM token_creations FINAL
		ORDER BY received_at DESC, event_id DESC
		LIMIT ?
	`
	return s.query(ctx, "get recent token creations", query, limit)
}

// GetByTimeRange retrieves records received within [start, end] (inclusive), ordered ASC.
func (s *TokenCreationStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenCreationRecord, error) {
	query := `SELECT ` + tokenCreationColumns + `
		FROM token_creations FINAL
		WHERE received_at >= ? AND received_at <= ?
		ORDER BY received_at ASC, event_id ASC
	`
	return s.query(ctx, "get token creations by time range", query, start, end)
}

func (s *TokenCreationStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.TokenCreationRecord, error) {
	rows, err := s.conn.Query(ctx, query, args...)
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

func scanTokenCreation(rows driver.Rows) (*domain.TokenCreationRecord, error) {
	var r domain.TokenCreationRecord

	err := rows.Scan(
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
