package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/db"
	"github.com/openmart/storefront/internal/models"
	"github.com/openmart/storefront/internal/service"
)

type OrderHandler struct {
	service *service.OrderService
	logger  *zap.Logger
}

func NewOrderHandler(service *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := h.service.PlaceOrder(c.Request.Context(), currentUser(c), req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, db.ErrProductNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		case errors.Is(err, db.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		default:
			// Store-level failures are retryable and never expose internals.
			h.logger.Error("failed to create order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create order"})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.service.GetUserOrders(c.Request.Context(), currentUser(c))
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list orders"})
		return
	}

	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order ID"})
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), orderID, currentUser(c))
	if err != nil {
		h.logger.Error("failed to get order", zap.Int("order_id", orderID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to get order"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /orders/:id. The engine accepts any status;
// the enumerated business statuses are enforced here at the edge.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order ID"})
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	validStatuses := map[string]bool{
		models.StatusPending:   true,
		models.StatusConfirmed: true,
		models.StatusShipped:   true,
		models.StatusDelivered: true,
		models.StatusCancelled: true,
	}
	if !validStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid status"})
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), orderID, currentUser(c), req.Status)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
			return
		}
		h.logger.Error("failed to update order status", zap.Int("order_id", orderID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to update order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder handles DELETE /orders/:id.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order ID"})
		return
	}

	if err := h.service.CancelOrder(c.Request.Context(), orderID, currentUser(c)); err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
			return
		}
		h.logger.Error("failed to cancel order", zap.Int("order_id", orderID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to cancel order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "order deleted successfully"})
}
