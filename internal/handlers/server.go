package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// HTTPServer serves handler until the context is cancelled
type HTTPServer struct {
	address string
	handler http.Handler
	ready   chan net.Addr
	log     interfaces.ILogger
}

func NewHTTPServer(address string, handler http.Handler, log interfaces.ILogger) *HTTPServer {
	return &HTTPServer{
		address: address,
		handler: handler,
		ready:   make(chan net.Addr, 1),
		log:     log,
	}
}

// Ready yields the listening address once the server accepts connections
func (s *HTTPServer) Ready() <-chan net.Addr {
	return s.ready
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.log.Infof("http server is listening: %s", listener.Addr())
	s.ready <- listener.Addr()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			s.log.Warnf("http server shutdown: %s", err)
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
