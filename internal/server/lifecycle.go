package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rentabot/rentabot/internal/applog"
)

// Run starts the background loops and the HTTP listener, then blocks
// until a shutdown signal (SIGINT/SIGTERM or a programmatic Shutdown
// call) is received, at which point it drains in-flight requests and
// returns. Adapted from engine/infra/server/lifecycle.go's Run/
// startAndRunServer/handleGracefulShutdown split.
func (s *Server) Run() error {
	s.reap.Start(applog.WithContext(s.ctx, applog.New("reaper")))
	s.sched.Start(applog.WithContext(s.ctx, applog.New("scheduler")))
	return s.startAndRunServer()
}

func (s *Server) startAndRunServer() error {
	srv := s.createHTTPServer()
	s.httpServer = srv
	errChan := make(chan error, 1)
	go s.startServer(srv, errChan)
	select {
	case err := <-errChan:
		if err != nil {
			s.cleanup()
			return err
		}
	case <-time.After(startProbeDelay):
		applog.FromContext(s.ctx).Info("listening", "address", srv.Addr)
	}
	return s.handleGracefulShutdown(srv, errChan)
}

func (s *Server) startServer(srv *http.Server, errChan chan<- error) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.FromContext(s.ctx).Error("HTTP server failed", "error", err)
		errChan <- fmt.Errorf("HTTP server failed: %w", err)
		return
	}
}

func (s *Server) handleGracefulShutdown(srv *http.Server, errChan <-chan error) error {
	logger := applog.FromContext(s.ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case <-quit:
		logger.Debug("received shutdown signal")
	case <-s.shutdownChan:
		logger.Debug("received programmatic shutdown signal")
	case err := <-errChan:
		if err != nil {
			logger.Error("server reported failure, shutting down", "error", err)
			s.cleanup()
			s.cancel()
			return err
		}
	}
	s.cleanup()
	s.cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(s.ctx), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server shutdown completed")
	return nil
}
