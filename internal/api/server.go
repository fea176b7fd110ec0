// Package api assembles the HTTP surface: a gin engine with CORS, request
// logging and all flow handlers mounted under /api.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mkret/firefly-enricher/internal/api/middleware"
	"github.com/mkret/firefly-enricher/internal/infrastructure/config"
)

// Registrar mounts a handler group onto a router.
type Registrar interface {
	Register(r gin.IRouter)
}

// Server wraps the engine and its HTTP listener.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	log    *slog.Logger
}

// NewServer builds the engine and mounts all handlers.
func NewServer(cfg config.ServerConfig, log *slog.Logger, handlers ...Registrar) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(log))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	apiGroup := engine.Group("/api")
	for _, handler := range handlers {
		handler.Register(apiGroup)
	}

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: engine,
		},
		log: log,
	}
}

// Engine exposes the router, mainly for httptest in handler tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info("shutting down http server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
