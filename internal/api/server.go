package api

import (
	"context"
	"errors"
	"net/http"

	"framework-search/internal/common/config"
	"framework-search/internal/common/logger"
)

type Server struct {
	srv    *http.Server
	cfg    config.ServerConfig
	logger logger.Logger
}

func NewServer(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		},
		cfg:    cfg,
		logger: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", map[string]interface{}{"addr": s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.GetDuration(s.cfg.ShutdownTimeout))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped", nil)
	return nil
}
