package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// HTTPServer runs the HTTP API as a registry service.
type HTTPServer struct {
	// Configuration fields
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	// Dependencies
	handler http.Handler
	logger  zerolog.Logger

	// Internal state management
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewHTTPServer creates a new HTTPServer instance.
func NewHTTPServer(addr string, readTimeout, writeTimeout time.Duration, handler http.Handler, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		addr:         addr,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		handler:      handler,
		logger:       logger,
	}
}

// Start binds the listen address and serves requests in the background.
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		s.logger.Warn().Msg("HTTPServer is already running")
		return errors.New("http server is already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", s.addr).Msg("Failed to bind listen address")
		return err
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.readTimeout,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}
	s.done = make(chan struct{})

	go s.serve(s.server, listener, s.done)

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("HTTPServer started")
	return nil
}

func (s *HTTPServer) serve(server *http.Server, listener net.Listener, done chan struct{}) {
	defer close(done)
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("HTTPServer stopped unexpectedly")
	}
}

// Addr returns the bound address, or the configured one before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop drains in-flight requests and closes the listener.
func (s *HTTPServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		s.logger.Warn().Msg("HTTPServer is not running")
		return errors.New("http server is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	<-s.done
	s.server = nil
	s.listener = nil

	if err != nil {
		s.logger.Error().Err(err).Msg("HTTPServer shutdown did not complete cleanly")
		return err
	}
	s.logger.Info().Msg("HTTPServer stopped")
	return nil
}
