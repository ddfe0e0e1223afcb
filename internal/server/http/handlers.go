package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/server/aggregator"
	"github.com/brewkit/orderboard/internal/server/models"
	"github.com/brewkit/orderboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

type ordersResponse struct {
	Status      string                             `json:"status"`
	Orders      []models.Order                     `json:"orders"`
	Sources     map[string]aggregator.SourceStatus `json:"sources"`
	LastUpdated string                             `json:"lastUpdated"`
}

type completeRequest struct {
	OrderID string `json:"orderId"`
	Source  string `json:"source"`
}

type completeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	Source  string `json:"source,omitempty"`
}

type completedResponse struct {
	Status          string   `json:"status"`
	CompletedOrders []string `json:"completedOrders"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGetOrders returns the merged order list. Source failures degrade to
// per-source flags; even all sources failing is a 200 with empty orders, so
// the display can tell "no orders" from "system down". ?mode=exclude removes
// completed orders instead of flagging them.
func (s *Server) handleGetOrders(c *gin.Context) {
	ctx := c.Request.Context()

	mode := services.Annotate
	if c.Query("mode") == "exclude" {
		mode = services.Exclude
	}

	result := s.aggregator.FetchAll(ctx)
	orders := s.completion.FilterCompleted(ctx, result.Orders, mode)

	c.JSON(http.StatusOK, ordersResponse{
		Status:      "success",
		Orders:      orders,
		Sources:     result.Sources,
		LastUpdated: s.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMarkComplete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Status: "error", Message: "invalid request body"})
		return
	}

	err := s.completion.MarkComplete(c.Request.Context(), req.OrderID, req.Source)
	switch {
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Status: "error", Message: "missing orderId"})
		return
	case err != nil:
		s.logger.Error(c.Request.Context(), "mark complete failed", "order", req.OrderID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, errorResponse{Status: "error", Message: "failed to mark order as complete"})
		return
	}

	c.JSON(http.StatusOK, completeResponse{
		Status:  "success",
		Message: "Order marked as complete",
		OrderID: req.OrderID,
		Source:  req.Source,
	})
}

func (s *Server) handleGetCompleted(c *gin.Context) {
	ids, err := s.completion.ListCompletedIDs(c.Request.Context())
	if err != nil {
		s.logger.Error(c.Request.Context(), "list completed failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, errorResponse{Status: "error", Message: "failed to fetch completed orders"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, completedResponse{Status: "success", CompletedOrders: ids})
}

// handleDiagUpstreams probes every source and reports per-source
// connectivity without returning order payloads.
func (s *Server) handleDiagUpstreams(c *gin.Context) {
	result := s.aggregator.FetchAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"sources": result.Sources,
	})
}
