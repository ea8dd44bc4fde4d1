package apitest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Run serves s on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string, log logging.Logger) error {
	listen, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen, log)
}

func (s *Server) serve(ctx context.Context, listen net.Listener, log logging.Logger) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// the watcher ends with serve, whichever way Serve returns
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		log.Info(ctx, "Stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	defer func() {
		close(done)
		wg.Wait()
	}()

	log.Info(ctx, "Starting API server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
