package service

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultShutdownTimeout = 5 * time.Second

// Server wraps the HTTP listener and owns the shutdown deadline, so callers
// only ever Start and Stop it.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

func NewServer(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s, shutdownTimeout: shutdownTimeout, logger: logger}
}

func (s *Server) Start() error {
	s.logger.Info("Starting phenoqc HTTP server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests, giving up after the configured shutdown
// timeout.
func (s *Server) Stop() error {
	s.logger.Info("Stopping phenoqc HTTP server",
		zap.Duration("shutdown_timeout", s.shutdownTimeout))
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
