// Package health exposes the minimal liveness endpoint.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server answers GET /healthz while the tracker runs.
type Server struct {
	addr   string
	logger zerolog.Logger
}

// NewServer constructs a liveness server bound to addr.
func NewServer(addr string, logger zerolog.Logger) *Server {
	return &Server{addr: addr, logger: logger.With().Str("component", "health").Logger()}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.logger.Info().Str("addr", s.addr).Msg("liveness endpoint listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
