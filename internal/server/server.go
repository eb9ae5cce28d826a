// Package server wires the gin engine, the background reaper and
// scheduler loops, and the HTTP listener lifecycle together, adapted from
// engine/infra/server/{config.go,lifecycle.go}'s Server struct and
// Run/Shutdown split.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rentabot/rentabot/internal/applog"
	"github.com/rentabot/rentabot/internal/batchlock"
	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/config"
	"github.com/rentabot/rentabot/internal/httpapi"
	"github.com/rentabot/rentabot/internal/lockmgr"
	"github.com/rentabot/rentabot/internal/reaper"
	"github.com/rentabot/rentabot/internal/reservation"
	"github.com/rentabot/rentabot/internal/scheduler"
)

const (
	startProbeDelay = 200 * time.Millisecond
	shutdownTimeout = 15 * time.Second
)

// Server owns the HTTP listener and the two background loops (reaper,
// scheduler) for the lifetime of one process.
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg    *config.Config
	store  *catalog.Store
	router *gin.Engine

	httpServer *http.Server

	reap  *reaper.Reaper
	sched *scheduler.Scheduler

	shutdownChan chan struct{}
	shutdownOnce sync.Once

	cleanupMu     sync.Mutex
	extraCleanups []func()
}

// New builds a Server from a parent context and a loaded config. The
// catalog store is created empty; callers seed it (from a descriptor
// file) before calling Run.
func New(ctx context.Context, cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(ctx)
	store := catalog.New()
	locks := lockmgr.New(store)
	batch := batchlock.New(store)
	reserves := reservation.New(store)

	router := gin.New()
	router.Use(gin.Recovery())
	httpapi.Mount(router, httpapi.NewHandler(store, locks, batch, reserves), cfg)

	return &Server{
		ctx:          ctx,
		cancel:       cancel,
		cfg:          cfg,
		store:        store,
		router:       router,
		reap:         reaper.New(store, cfg.ReaperInterval),
		sched:        scheduler.New(store, batch, locks, cfg.SchedulerInterval),
		shutdownChan: make(chan struct{}, 1),
	}
}

// Store exposes the catalog store so callers can seed it from a
// descriptor file before Run starts serving traffic.
func (s *Server) Store() *catalog.Store {
	return s.store
}

// RegisterCleanup queues fn to run during shutdown, in addition to
// stopping the reaper and scheduler.
func (s *Server) RegisterCleanup(fn func()) {
	if fn == nil {
		return
	}
	s.cleanupMu.Lock()
	s.extraCleanups = append(s.extraCleanups, fn)
	s.cleanupMu.Unlock()
}

// Shutdown triggers a programmatic graceful shutdown, safe to call more
// than once or concurrently with signal-driven shutdown.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		select {
		case s.shutdownChan <- struct{}{}:
		default:
		}
	})
}

func (s *Server) cleanup() {
	logger := applog.FromContext(s.ctx)
	s.sched.Stop()
	s.reap.Stop()
	s.cleanupMu.Lock()
	fns := s.extraCleanups
	s.cleanupMu.Unlock()
	for _, fn := range fns {
		fn()
	}
	logger.Debug("background loops stopped")
}

func (s *Server) createHTTPServer() *http.Server {
	logger := applog.FromContext(s.ctx)
	addr := s.cfg.FullAddress()
	logger.Info("starting HTTP server", "address", "http://"+addr)
	return &http.Server{
		Addr:        addr,
		Handler:     s.router,
		BaseContext: func(net.Listener) context.Context { return s.ctx },
	}
}
