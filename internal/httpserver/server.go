package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/molehq/mole/internal/auth"
	"github.com/molehq/mole/internal/config"
	"github.com/molehq/mole/internal/handlers"
	"github.com/molehq/mole/internal/middleware"
	"github.com/molehq/mole/internal/mole"
	"github.com/molehq/mole/internal/store"
)

// selfAppName is the app the collector reports its own traffic under.
const selfAppName = "mole-collector"

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready
// Authenticated: /mole, /metrics
//
// The collector instruments its own routes: every request (probes excepted)
// is recorded under selfAppName, with the configured performance threshold.
func NewRouter(cfg config.Config, st store.Store, m *mole.Mole) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Mole(m, middleware.Options{
		AppName:       selfAppName,
		PerfThreshold: time.Duration(cfg.PerfThresholdSecs * float64(time.Second)),
		SkipPaths:     []string{"/health", "/ready"},
	}))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the store dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Auth group enforces app context via X-API-Key.
	authGroup := r.Group("/")
	authGroup.Use(auth.APIKeyMiddleware(cfg.APIKeys))

	handlers.RegisterMoleRoutes(authGroup, m)
	handlers.RegisterMetricRoutes(authGroup, st)

	return r
}
