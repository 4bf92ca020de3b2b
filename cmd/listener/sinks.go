package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"pump-listener/internal/config"
	"pump-listener/internal/observability"
	"pump-listener/internal/sink"
	chstore "pump-listener/internal/storage/clickhouse"
	"pump-listener/internal/storage/memory"
	"pump-listener/internal/storage/migrations"
	"pump-listener/internal/storage/postgres"
)

// sinkSet is the composed sink plus the resources it owns.
type sinkSet struct {
	Sink sink.Multi
	// Recent backs /events/recent: the first enabled store sink, or nil.
	Recent  observability.RecentEvents
	closers []func()
}

// Close releases sink resources in reverse order of creation.
func (s *sinkSet) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *sinkSet) add(name string, snk sink.Sink, metrics *observability.Metrics) {
	s.Sink = append(s.Sink, sink.Named{Name: name, Sink: sink.Instrument(name, snk, metrics)})
}

func (s *sinkSet) addStore(name string, st *sink.Store, metrics *observability.Metrics) {
	s.add(name, st, metrics)
	if s.Recent == nil {
		s.Recent = st
	}
}

// buildSinks creates the enabled sinks in config.KnownSinks order.
// Storage backends are migrated before use.
func buildSinks(ctx context.Context, cfg *config.Config, stdout io.Writer, logger zerolog.Logger, metrics *observability.Metrics) (*sinkSet, error) {
	set := &sinkSet{}

	for _, name := range config.KnownSinks {
		if !cfg.HasSink(name) {
			continue
		}

		switch name {
		case config.SinkConsole:
			set.add(name, sink.NewConsole(stdout), metrics)

		case config.SinkLog:
			set.add(name, sink.NewLog(logger), metrics)

		case config.SinkMemory:
			set.addStore(name, sink.NewStore(memory.NewTokenCreationStore(cfg.RecentCapacity), nil), metrics)

		case config.SinkPostgres:
			pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
			if err != nil {
				set.Close()
				return nil, err
			}
			set.closers = append(set.closers, pool.Close)
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				set.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
			set.addStore(name, sink.NewStore(postgres.NewTokenCreationStore(pool), nil), metrics)

		case config.SinkClickhouse:
			conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
			if err != nil {
				set.Close()
				return nil, fmt.Errorf("clickhouse migrations: %w", err)
			}
			set.closers = append(set.closers, func() { conn.Close() })
			set.addStore(name, sink.NewStore(chstore.NewTokenCreationStore(conn), nil), metrics)

		case config.SinkPulsar:
			p, err := sink.NewPulsar(sink.PulsarOptions{
				URL:   cfg.PulsarURL,
				Topic: cfg.PulsarTopic,
			})
			if err != nil {
				set.Close()
				return nil, err
			}
			set.closers = append(set.closers, p.Close)
			set.add(name, p, metrics)
		}

		logger.Info().Str("sink", name).Msg("Sink enabled")
	}

	return set, nil
}
