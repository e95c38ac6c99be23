// Package httpapi exposes the portfolio over HTTP: the internal JSON API
// under /api/v1 and the token protected external API under /api/external.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services the handlers call.
type Deps struct {
	Apartments ApartmentReader
	Dashboard  DashboardReader
	Directory  DirectoryReader
	Writer     Writer
	// Token guards the external API. Empty disables it.
	Token string
}

// Server wraps the gin engine with its http.Server.
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	port   string
	server *http.Server
}

// NewServer builds the router. mode is debug or release.
func NewServer(logger *zap.Logger, port, mode string, deps Deps) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	h := &handlers{deps: deps, logger: logger}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
		})
		h.register(v1)
	}

	if deps.Token != "" {
		external := r.Group("/api/external", bearerAuth(deps.Token))
		h.registerExternal(external)
	} else {
		logger.Warn("external API disabled: no token configured")
	}

	return &Server{
		engine: r,
		logger: logger,
		port:   port,
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until Shutdown is called. Calling Shutdown first makes Run
// return immediately.
func (s *Server) Run() error {
	s.logger.Info("server started", zap.String("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
		)
	}
}
