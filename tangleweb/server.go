// Package tangleweb exposes a debug/status HTTP surface over a running
// Tangle coordinator, in the same gin + gin-contrib/cors shape as the
// teacher's internal/seed server (Appear/RegisterRoutes/Serve).
package tangleweb

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/triptych/tangle/telemetry"
)

// StatusSource is whatever the coordinator exposes for reporting, kept
// narrow so tangleweb never imports the tangle package back.
type StatusSource interface {
	RoomName() string
	PeerCount() int
	CurrentTime() float64
	State() string
}

// Server wraps a gin.Engine serving /healthz, /status and /metrics.
type Server struct {
	router  *gin.Engine
	addr    string
	started time.Time
	source  StatusSource
}

// New builds a Server for source, listening on addr once Serve is called.
func New(addr string, corsOrigins []string, source StatusSource) *Server {
	telemetry.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{router: r, addr: addr, started: time.Now(), source: source}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).String(),
		})
	})

	s.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"room":         s.source.RoomName(),
			"peers":        s.source.PeerCount(),
			"current_time": s.source.CurrentTime(),
			"state":        s.source.State(),
			"uptime":       time.Since(s.started).String(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Serve blocks, serving HTTP on the configured address.
func (s *Server) Serve() error {
	return s.router.Run(s.addr)
}

// Router exposes the underlying gin.Engine for embedding into a larger
// process that wants to mount these routes alongside its own.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
