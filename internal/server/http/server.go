// Package http exposes the aggregation pipeline over HTTP for the display
// frontend.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/brewkit/orderboard/internal/clock"
	"github.com/brewkit/orderboard/internal/logging"
	"github.com/brewkit/orderboard/internal/server/aggregator"
	"github.com/brewkit/orderboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Server is the HTTP front of the order display backend.
type Server struct {
	aggregator *aggregator.Aggregator
	completion *services.CompletionService
	clock      clock.Clock
	logger     logging.Logger
	router     *gin.Engine
}

func NewServer(agg *aggregator.Aggregator, completion *services.CompletionService, clk clock.Clock, logger logging.Logger, corsOrigins []string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		aggregator: agg,
		completion: completion,
		clock:      clk,
		logger:     logger,
		router:     router,
	}

	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(CORS(corsOrigins))

	router.GET("/health", s.handleHealth)
	router.GET("/orders", s.handleGetOrders)
	router.POST("/orders/complete", s.handleMarkComplete)
	router.GET("/orders/completed", s.handleGetCompleted)
	router.GET("/diag/upstreams", s.handleDiagUpstreams)

	return s
}

// Handler returns the underlying handler, used by tests and by Run.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info(ctx, "http server listening", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info(ctx, "http server stopped")
	return nil
}
