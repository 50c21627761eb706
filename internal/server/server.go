// Package server exposes the televisor display over HTTP for headless hosts.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	terrors "github.com/rileyhilliard/televisor/internal/errors"
	"github.com/rileyhilliard/televisor/internal/lifecycle"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/televisor"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Snapshotter provides the current display.
type Snapshotter interface {
	Snapshot() televisor.Snapshot
}

// Transport reports the backend connection.
type Transport interface {
	Endpoint() string
	Connected() bool
	SID() string
	Pending() int
}

// Deps are the pieces of the running display the server reads and drives.
type Deps struct {
	Snapshots   Snapshotter
	Transport   Transport
	Refresh     func()
	Transitions televisor.Publisher
	Logger      logger.Logger
}

// Server bundles the router and its dependencies.
type Server struct {
	addr   string
	deps   Deps
	engine *gin.Engine
	log    logger.Logger
}

// New constructs a server with routes and middleware.
func New(addr string, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	log := deps.Logger
	if log == nil {
		log = logger.Noop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	s := &Server{addr: addr, deps: deps, engine: engine, log: log}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return terrors.WrapWithCode(err, terrors.ErrServer,
			"Couldn't listen on "+s.addr,
			"Pick another address with server.addr or free the port")
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("status server listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if err != nil {
			return terrors.WrapWithCode(err, terrors.ErrServer, "Status server stopped", "")
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api/televisor")
	{
		api.GET("", s.handleSnapshot)
		api.POST("/refresh", s.handleRefresh)
		api.PUT("/state/:state", s.handleState)
	}
}

// handleHealth reports liveness and the backend session
// GET /healthz
func (s *Server) handleHealth(c *gin.Context) {
	t := s.deps.Transport
	if t == nil {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "connected": false})
		return
	}
	if !t.Connected() {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "connected": false, "endpoint": t.Endpoint()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"connected": true,
		"endpoint":  t.Endpoint(),
		"sid":       t.SID(),
		"pending":   t.Pending(),
	})
}

// handleSnapshot returns the derived display
// GET /api/televisor
func (s *Server) handleSnapshot(c *gin.Context) {
	if s.deps.Snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "display not running"})
		return
	}
	c.JSON(http.StatusOK, s.deps.Snapshots.Snapshot())
}

// handleRefresh re-fetches the primary record
// POST /api/televisor/refresh
func (s *Server) handleRefresh(c *gin.Context) {
	if s.deps.Refresh == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "refresh not available"})
		return
	}
	s.deps.Refresh()
	c.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
}

// handleState reports a foreground/background change from the host
// PUT /api/televisor/state/:state
func (s *Server) handleState(c *gin.Context) {
	if s.deps.Transitions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "transitions not available"})
		return
	}

	var state lifecycle.AppState
	switch c.Param("state") {
	case "active":
		state = lifecycle.StateActive
	case "inactive":
		state = lifecycle.StateInactive
	case "background":
		state = lifecycle.StateBackground
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be active, inactive or background"})
		return
	}

	s.deps.Transitions.Publish(state)
	c.JSON(http.StatusOK, gin.H{"state": state.String()})
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
