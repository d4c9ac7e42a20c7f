package debughttp

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFunc returns the node-status snapshot served at /status. It is
// called once per request, so it should be cheap and non-blocking.
type StatusFunc func() interface{}

// Server is the introspection HTTP surface: read-only, gin-routed, meant to
// be bound to a loopback-only listener distinct from the SECoP wire port.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
}

// New builds a Server. registry is gathered at /metrics; status is queried
// fresh on every /status request.
func New(registry *prometheus.Registry, status StatusFunc) *Server {
	gin.SetMode(gin.ReleaseMode)

	e := gin.New()
	e.Use(gin.Recovery())

	e.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, status())
	})
	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return &Server{engine: e}
}

// Handler exposes the gin engine directly, mostly useful for tests that
// drive it with httptest rather than a real listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve blocks, accepting connections from ln until Shutdown is called. It
// returns http.ErrServerClosed on a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.srv = &http.Server{Handler: s.engine}
	return s.srv.Serve(ln)
}

// Shutdown gracefully stops a running Serve call.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
