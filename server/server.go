package server

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"

	"github.com/jackc/login-smoke/httpz"
	"github.com/rs/zerolog"
)

type Server struct {
	handler       http.Handler
	listenAddress string
	server        *http.Server
	listener      net.Listener

	logger *zerolog.Logger
}

// NewServer returns a server for the fixtures at the root of fixtures.
func NewServer(
	listenAddress string,
	fixtures fs.FS,
	logger *zerolog.Logger,
) (*Server, error) {
	handler, err := httpz.NewHandler(fixtures, logger)
	if err != nil {
		return nil, err
	}

	server := &Server{
		handler:       handler,
		listenAddress: listenAddress,
		logger:        logger,
	}

	server.server = &http.Server{
		Addr:    server.listenAddress,
		Handler: server.handler,
	}

	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Listen binds the listen address. It is called by Serve if it has not been called already. Calling it first allows
// the caller to learn the bound address when listening on port 0.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.listenAddress)
	if err != nil {
		return err
	}
	s.listener = listener

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Serve() error {
	err := s.Listen()
	if err != nil {
		return err
	}

	s.logger.Info().Str("listen_address", s.listener.Addr().String()).Msg("Starting HTTP server")

	err = s.server.Serve(s.listener)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server")
	s.server.SetKeepAlivesEnabled(false)
	err := s.server.Shutdown(ctx)
	if err != nil {
		return err
	}

	return nil
}
