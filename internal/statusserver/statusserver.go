// Package statusserver exposes the last computed build plan and run result
// over HTTP, plus a Prometheus /metrics endpoint, for the optional `shuttle
// serve` command.
//
// Grounded on AleutianLocal's gin route-registration shape (handlers.go,
// routes.go: a mutex-guarded state struct behind gin.Context handlers
// returning c.JSON), and on the teacher's internal/viewer/viewer.go for the
// Start(port)-returns-base-URL lifecycle; the SPA/static-asset half of
// viewer.go has no home here (see DESIGN.md) so this package only serves
// JSON routes and metrics.
package statusserver

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/joshharrison/shuttle/internal/executor"
	"github.com/joshharrison/shuttle/internal/metrics"
	"github.com/joshharrison/shuttle/internal/planner"
)

// Snapshot is the latest plan/run state the server reports.
type Snapshot struct {
	Plan   *planner.BuildPlan   `json:"plan"`
	Result *executor.RunResult  `json:"result,omitempty"`
}

// Server holds the live snapshot and the metrics registry it exposes.
type Server struct {
	mu       sync.RWMutex
	snapshot Snapshot
	metrics  *metrics.Metrics
}

// New creates a Server reporting m's metrics alongside plan/run JSON.
func New(m *metrics.Metrics) *Server {
	return &Server{metrics: m}
}

// Update replaces the current snapshot. `shuttle serve` calls it once at
// startup with the plan it computed and no run result.
func (s *Server) Update(plan *planner.BuildPlan, result *executor.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{Plan: plan, Result: result}
}

func (s *Server) handleGetPlan(c *gin.Context) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	if snap.Plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan computed yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Router builds the gin engine serving /plan, /health, and /metrics.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/plan", s.handleGetPlan)
	r.GET("/health", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	return r
}

// Start launches the server on port in the background and returns its base
// URL once the listener is bound.
func (s *Server) Start(port int) (string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", fmt.Errorf("listen on port %d: %w", port, err)
	}

	go http.Serve(ln, s.Router())

	return fmt.Sprintf("http://localhost:%d", port), nil
}
