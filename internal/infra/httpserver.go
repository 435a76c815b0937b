package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer serves one handler until its context ends, then drains
// in-flight requests for at most the grace period.
type HTTPServer struct {
	server *http.Server
	grace  time.Duration
}

func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
		grace: max(cfg.HTTPWriteTimeout, 5*time.Second),
	}
}

func (s *HTTPServer) Addr() string { return s.server.Addr }

// Run blocks until ctx is cancelled or the listener fails. A clean shutdown
// returns nil.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
