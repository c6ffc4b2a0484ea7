// Package server wires the HTTP router: API routes, health and metrics.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/orbitex/clob/internal/clob/engine"
	"github.com/orbitex/clob/internal/clob/handlers"
	"github.com/orbitex/clob/internal/config"
)

// Server represents the HTTP server
type Server struct {
	logger *zap.Logger
	cfg    config.HTTPServerConfig
	engine *engine.Engine
}

// New creates a new HTTP server around the given engine.
func New(logger *zap.Logger, cfg config.HTTPServerConfig, eng *engine.Engine) *Server {
	return &Server{logger: logger, cfg: cfg, engine: eng}
}

// Router creates the HTTP router.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(ginzap.Ginzap(s.logger, "2006-01-02T15:04:05Z07:00", true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "symbol": s.engine.Symbol()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		handlers.New(s.engine, s.logger).Register(v1)
	}

	return router
}

// HTTPServer builds the net/http server with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}
