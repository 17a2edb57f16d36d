package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/config"
	"github.com/workplus/workplus/internal/metrics"
)

type Server struct {
	log     zerolog.Logger
	handler *Handler
	server  *http.Server
}

func NewServer(log zerolog.Logger, cfg *config.Config, handler *Handler, rec metrics.Recorder) *Server {
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)
	mux.Handle("/metrics", rec.Handler())

	addr := net.JoinHostPort(cfg.Web.Host, fmt.Sprint(cfg.Web.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      metrics.Instrument(rec, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		log:     log,
		handler: handler,
		server:  httpServer,
	}
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", "http://"+s.server.Addr).Msg("starting status API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down status API")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}

// Handler returns the instrumented root handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
