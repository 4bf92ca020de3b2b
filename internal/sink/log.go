package sink

import (
	"context"

	"github.com/rs/zerolog"

	"pump-listener/internal/domain"
)

// Log writes each event as a structured zerolog entry.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log sink.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "sink.log").Logger()}
}

// Emit logs the event at info level. It never fails.
func (l *Log) Emit(_ context.Context, e domain.TokenCreationEvent) error {
	evt := l.logger.Info().
		Str("name", e.Name).
		Str("symbol", e.Symbol).
		Str("mint", e.MintAddress).
		Str("creator_sol_amount", e.CreatorSolAmount.String()).
		Str("creator", e.CreatorPublicKey).
		Str("link", e.Link)
	if e.Signature != "" {
		evt = evt.Str("signature", e.Signature)
	}
	evt.Msg("New token creation detected")
	return nil
}
