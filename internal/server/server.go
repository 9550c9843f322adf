// Package server owns the HTTP listener lifecycle: it wraps the gateway's
// mux with the ambient middleware stack, starts the listener and shuts it
// down gracefully on signal.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
)

// Server runs one http.Server around a caller-supplied handler.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	started    bool
}

// New creates a Server for the handler. The handler is wrapped with
// recovery, request-id, logging and body-limit middleware.
func New(cfg Config, handler http.Handler, logger *slog.Logger) *Server {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{cfg: cfg, logger: logger}
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s.wrap(handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) wrap(h http.Handler) http.Handler {
	return Chain(h,
		s.recoveryMiddleware,
		requestIDMiddleware,
		s.loggingMiddleware,
		maxBodyMiddleware(s.cfg.MaxBodyBytes),
	)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the listener until ctx is cancelled or the listener fails.
// Cancellation is the normal shutdown path and returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
