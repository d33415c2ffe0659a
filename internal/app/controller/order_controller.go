package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/service"
	apperrors "github.com/veloura/veloura-backend/internal/errors"
	"github.com/veloura/veloura-backend/internal/middleware"
)

// IdempotencyKeyHeader deduplicates checkout submissions. Re-sending the
// same key within its TTL gets a conflict instead of a second order.
const IdempotencyKeyHeader = "X-Idempotency-Key"

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type CheckoutRequest struct {
	AddressID     uint                `json:"address_id" binding:"required"`
	PaymentMethod model.PaymentMethod `json:"payment_method" binding:"required"`
}

// Checkout turns the server cart into an order
// POST /api/v1/orders
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to checkout", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid checkout details")
		return
	}

	input := service.CheckoutInput{
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	}

	log.Debug("Processing checkout", map[string]interface{}{
		"user_id":        userID,
		"address_id":     req.AddressID,
		"payment_method": req.PaymentMethod,
	})

	order, err := ctrl.orderService.Checkout(c.Request.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			log.Warn("Checkout with invalid payment method", map[string]interface{}{
				"user_id":        userID,
				"payment_method": req.PaymentMethod,
			})
			apperrors.BadRequest(c, apperrors.OrderInvalidPayment, "Invalid payment method")
		case errors.Is(err, service.ErrDuplicateCheckout):
			log.Warn("Duplicate checkout submission", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.Conflict(c, apperrors.OrderDuplicateSubmit, "This checkout was already submitted")
		case errors.Is(err, service.ErrAddressNotFound):
			log.Warn("Checkout with unknown address", map[string]interface{}{
				"user_id":    userID,
				"address_id": req.AddressID,
			})
			apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
		case errors.Is(err, service.ErrEmptyCart):
			log.Warn("Checkout with empty cart", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.BadRequest(c, apperrors.CartEmpty, "Cart is empty")
		case errors.Is(err, service.ErrInsufficientStock):
			log.Warn("Checkout failed: insufficient stock", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.Conflict(c, apperrors.ResourceConflict, "Insufficient stock for one or more items")
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "Failed to place order")
		}
		return
	}

	log.Info("Order placed successfully", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetOrders returns the user's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to orders", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns one order the user owns
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to order", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid order ID format", map[string]interface{}{
			"user_id":  userID,
			"order_id": idStr,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			log.Warn("Order not found", map[string]interface{}{
				"user_id":  userID,
				"order_id": id,
			})
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// CancelOrder cancels an order that has not been delivered yet
// PUT /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to cancel order", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid order ID format", map[string]interface{}{
			"user_id":  userID,
			"order_id": idStr,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			log.Warn("Order not found for cancellation", map[string]interface{}{
				"user_id":  userID,
				"order_id": id,
			})
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		if errors.Is(err, service.ErrInvalidTransition) {
			log.Warn("Order cannot be cancelled in its current state", map[string]interface{}{
				"user_id":  userID,
				"order_id": id,
			})
			apperrors.BadRequest(c, apperrors.OrderInvalidTransition, "Order can no longer be cancelled")
			return
		}
		log.Error("Failed to cancel order", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": id,
		})
		apperrors.InternalError(c, "Failed to cancel order")
		return
	}

	log.Info("Order cancelled successfully", map[string]interface{}{
		"user_id":  userID,
		"order_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"order":   order,
	})
}
