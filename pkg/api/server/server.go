// Package server exposes the fleet manager over a JSON HTTP API: account and
// variable management, policy configuration, update checks, manual deploys,
// secret rotation, and quota telemetry.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgefleet/fleetman/pkg/log"
)

// APIServer is the HTTP front of the fleet manager.
type APIServer struct {
	options *Options
	router  *gin.Engine
	http    *http.Server
	logger  log.Logger
}

// New creates a new API server with the given options.
func New(opts ...Option) (*APIServer, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Manager == nil {
		return nil, fmt.Errorf("manager is required")
	}

	logger := options.Logger
	if logger == nil {
		logger = log.GetDefaultLogger().WithComponent("api-server")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &APIServer{
		options: options,
		router:  router,
		logger:  logger,
	}
	s.registerRoutes()
	return s, nil
}

func (s *APIServer) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api", s.accessGate())
	api.GET("/accounts", s.getAccounts)
	api.POST("/accounts", s.postAccounts)
	api.GET("/settings", s.getSettings)
	api.POST("/settings", s.postSettings)
	api.GET("/auto_config", s.getAutoConfig)
	api.POST("/auto_config", s.postAutoConfig)
	api.GET("/check_update", s.checkUpdate)
	api.POST("/deploy", s.deploy)
	api.POST("/rotate", s.rotate)
	api.GET("/stats", s.stats)
}

// Router returns the HTTP handler, for tests.
func (s *APIServer) Router() http.Handler {
	return s.router
}

// Start begins serving in the background.
func (s *APIServer) Start() error {
	s.http = &http.Server{
		Addr:    s.options.ListenAddr,
		Handler: s.router,
	}
	s.logger.Info("API server listening", log.Str("addr", s.options.ListenAddr))
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", log.Err(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *APIServer) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("API server stopping")
	return s.http.Shutdown(ctx)
}
