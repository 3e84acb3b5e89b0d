// Package health answers liveness and readiness probes for the API process.
package health

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"savoria/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Probe checks one dependency. A nil error means it is usable.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

func PingProbe(name string, p Pinger) Probe {
	return Probe{Name: name, Check: p.PingContext}
}

type Controller struct {
	config    *config.Config
	probes    []Probe
	startTime time.Time
}

// NewController with no probes reports ready unconditionally, which is the
// memory backend's situation.
func NewController(cfg *config.Config, probes ...Probe) *Controller {
	return &Controller{
		config:    cfg,
		probes:    probes,
		startTime: time.Now(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.Liveness)
	router.GET("/health/ready", c.Readiness)
}

type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Backend   string           `json:"backend"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Runtime   *RuntimeInfo     `json:"runtime,omitempty"`
}

type Check struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type RuntimeInfo struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	HeapBytes  uint64 `json:"heap_bytes"`
}

// Health GET /api/v1/health
func (c *Controller) Health(ctx *gin.Context) {
	checks, healthy := c.runProbes(ctx.Request.Context())

	resp := HealthResponse{
		Status:    "healthy",
		Version:   c.config.App.Version,
		Uptime:    time.Since(c.startTime).Truncate(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Backend:   c.config.Database.Type,
		Checks:    checks,
	}
	if c.config.IsDevelopment() {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		resp.Runtime = &RuntimeInfo{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			HeapBytes:  mem.HeapAlloc,
		}
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, resp)
}

// Liveness GET /api/v1/health/live
func (c *Controller) Liveness(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness GET /api/v1/health/ready
func (c *Controller) Readiness(ctx *gin.Context) {
	checks, healthy := c.runProbes(ctx.Request.Context())
	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// runProbes runs every probe concurrently, each under its own timeout.
func (c *Controller) runProbes(ctx context.Context) (map[string]Check, bool) {
	var (
		mu      sync.Mutex
		checks  = make(map[string]Check, len(c.probes))
		healthy = true
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range c.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, probeTimeout)
			defer cancel()

			start := time.Now()
			err := p.Check(pctx)
			check := Check{Status: "up", Latency: time.Since(start).String()}
			if err != nil {
				check.Status = "down"
				check.Error = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			checks[p.Name] = check
			healthy = healthy && err == nil
			return nil
		})
	}
	_ = g.Wait()
	return checks, healthy
}
