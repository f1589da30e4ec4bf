// Package server exposes the prober over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	panoprobe "github.com/menta2k/pano-probe"
	"github.com/menta2k/pano-probe/internal/config"
	"github.com/menta2k/pano-probe/pkg/client"
)

// Analyzer is the part of the prober the HTTP layer depends on
type Analyzer interface {
	Analyze(ctx context.Context, req panoprobe.Request) (*panoprobe.Result, error)
	Capabilities() panoprobe.Capabilities
}

// Server wires the handlers into a gin engine
type Server struct {
	analyzer Analyzer
	checks   map[string]client.HealthChecker
	config   config.ServerConfig
	logger   *logrus.Logger
	engine   *gin.Engine
}

// New creates a server. checks are probed by /health, keyed by service name.
func New(analyzer Analyzer, checks map[string]client.HealthChecker, cfg config.ServerConfig, logger *logrus.Logger) *Server {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		analyzer: analyzer,
		checks:   checks,
		config:   cfg,
		logger:   logger,
		engine:   gin.New(),
	}

	s.engine.Use(requestLogger(logger))
	s.engine.Use(gin.Recovery())
	s.engine.Use(corsMiddleware(cfg.AllowedOrigins))
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.Root)
	s.engine.GET("/health", s.Health)

	api := s.engine.Group("/api")
	{
		api.POST("/analyze", s.Analyze)
		api.GET("/catalog", s.Catalog)
	}
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
