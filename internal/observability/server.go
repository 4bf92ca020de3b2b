package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"pump-listener/internal/domain"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// RecentEvents lists the newest emitted events, newest first.
type RecentEvents interface {
	Recent(ctx context.Context, limit int) ([]domain.TokenCreationEvent, error)
}

// ServerOptions configures the monitoring HTTP server.
type ServerOptions struct {
	Addr    string
	Metrics *Metrics
	Recent  RecentEvents // optional; /events/recent returns 404 when nil
	Logger  zerolog.Logger
}

// Server exposes /metrics, /health and /events/recent.
type Server struct {
	http   *http.Server
	logger zerolog.Logger
}

// NewServer builds the monitoring server.
func NewServer(opts ServerOptions) *Server {
	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(opts.Metrics, opts.Recent),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: opts.Logger,
	}
}

// NewRouter builds the monitoring routes.
func NewRouter(metrics *Metrics, recent RecentEvents) http.Handler {
	router := httprouter.New()

	if metrics != nil {
		router.Handler(http.MethodGet, "/metrics", metrics.Handler())
	}

	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.GET("/events/recent", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if recent == nil {
			http.Error(w, "recent events not enabled", http.StatusNotFound)
			return
		}

		limit := defaultRecentLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxRecentLimit)
		}

		events, err := recent.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []domain.TokenCreationEvent{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	})

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("Starting monitoring server")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
