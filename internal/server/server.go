// Package server implements the Server Core (spec.md §4.9, C9): the
// accept loop, per-connection session wiring, and signal-triggered
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parallelstone/mcserver-core/internal/dispatch"
	"github.com/parallelstone/mcserver-core/internal/handlers"
	"github.com/parallelstone/mcserver-core/internal/manager"
	"github.com/parallelstone/mcserver-core/internal/metrics"
	"github.com/parallelstone/mcserver-core/internal/netcore"
	"github.com/parallelstone/mcserver-core/internal/session"
)

// Config bundles the listen-side tunables the accept loop needs.
type Config struct {
	ListenAddr    string
	NetcoreOpts   netcore.Options
	SessionOpts   session.Options
	ManagerLimits manager.Limits
}

// Server owns the listener, the session registry, and the accept loop's
// worker group.
type Server struct {
	cfg     Config
	log     *zap.Logger
	deps    *handlers.Deps
	table   *dispatch.Table
	mgr     *manager.Manager
	metrics *metrics.Metrics

	ln       netcore.Listener
	sessions int64
	nextID   int64
}

// New constructs a Server. deps.Metrics, if non-nil, is reused as the
// Manager's metrics bundle too.
func New(cfg Config, log *zap.Logger, deps *handlers.Deps) *Server {
	mgr := manager.New(log, cfg.ManagerLimits, deps.Metrics)
	deps.OnIdentity = mgr.NotePlayerName
	deps.OnlineCount = mgr.Count
	return &Server{
		cfg:     cfg,
		log:     log,
		deps:    deps,
		table:   handlers.BuildTable(deps),
		mgr:     mgr,
		metrics: deps.Metrics,
	}
}

// Manager exposes the session registry, e.g. for the Status handler's
// OnlineCount callback.
func (s *Server) Manager() *manager.Manager { return s.mgr }

// Run binds the listener and accepts connections until ctx is canceled,
// then closes the listener, stops the Manager (disconnecting every session
// with ServerShutdown), and waits for the session goroutines via the
// errgroup before returning (spec.md §4.9's graceful-shutdown contract,
// modeled with golang.org/x/sync/errgroup as the worker-pool collaborator).
func (s *Server) Run(ctx context.Context) error {
	ln, err := netcore.Listen(s.cfg.ListenAddr, s.cfg.NetcoreOpts)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.ln = ln
	s.log.Info("listening", zap.String("addr", s.cfg.ListenAddr))

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		<-gctx.Done()
		cerr := s.ln.Close()
		s.mgr.Stop()
		return cerr
	})

	grp.Go(func() error {
		return s.acceptLoop(gctx, grp)
	})

	return grp.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, grp *errgroup.Group) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		ip := ipOf(conn.RemoteAddr().String())
		if ok, reason := s.mgr.Admit(ip); !ok {
			if s.metrics != nil {
				s.metrics.SessionsRejected.WithLabelValues(reason).Inc()
			}
			conn.Close()
			continue
		}

		id := fmt.Sprintf("sess-%d", atomic.AddInt64(&s.nextID, 1))
		sess := session.New(id, conn, s.table, s.log, s.cfg.SessionOpts, s.onDisconnect)
		s.mgr.Register(sess)

		grp.Go(func() error {
			sess.Run()
			return nil
		})
	}
}

func (s *Server) onDisconnect(sess *session.Session, reason session.DisconnectReason) {
	s.mgr.Unregister(sess, reason)
	s.log.Info("session closed",
		zap.String("session", sess.ID), zap.String("reason", reason.String()))
}

func ipOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

// Shutdown schedules cancel to run once timeout has elapsed and returns
// immediately; it does not itself wait for sessions to finish.
func Shutdown(cancel context.CancelFunc, timeout time.Duration) {
	time.AfterFunc(timeout, cancel)
}
