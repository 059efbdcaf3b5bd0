package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds how long HTTPService.Stop waits for open requests.
const DefaultShutdownTimeout = 5 * time.Second

// HTTPService runs an http.Server as a lifecycle Service.
type HTTPService struct {
	server  *http.Server
	timeout time.Duration
	logger  *zap.Logger
}

// NewHTTPService wraps handler in a server listening on addr.
//
// Precondition: handler and logger must be non-nil.
func NewHTTPService(addr string, handler http.Handler, logger *zap.Logger) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		timeout: DefaultShutdownTimeout,
		logger:  logger,
	}
}

// Start listens on the configured address and serves until Stop.
func (s *HTTPService) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve serves requests on lis until Stop. A graceful stop returns nil.
func (s *HTTPService) Serve(lis net.Listener) error {
	s.logger.Info("http server listening", zap.String("addr", lis.Addr().String()))
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting up to DefaultShutdownTimeout for
// in-flight requests.
func (s *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
}

// RegisterOnShutdown registers f to run when Stop begins, for closing
// hijacked connections such as websockets.
func (s *HTTPService) RegisterOnShutdown(f func()) {
	s.server.RegisterOnShutdown(f)
}
