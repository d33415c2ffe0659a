package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/internal/app/service"
	apperrors "github.com/veloura/veloura-backend/internal/errors"
	"github.com/veloura/veloura-backend/internal/middleware"
)

// AdminController serves the admin console: dashboard stats, customer and
// order management, the returns queue, and low stock alerts. All routes
// sit behind the admin role middleware.
type AdminController struct {
	adminService   service.AdminService
	orderService   service.OrderService
	returnService  service.ReturnService
	productService service.ProductService
}

func NewAdminController(
	adminService service.AdminService,
	orderService service.OrderService,
	returnService service.ReturnService,
	productService service.ProductService,
) *AdminController {
	return &AdminController{
		adminService:   adminService,
		orderService:   orderService,
		returnService:  returnService,
		productService: productService,
	}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	Status model.PaymentStatus `json:"status" binding:"required"`
}

type UpdateReturnStatusRequest struct {
	Status       model.ReturnStatus `json:"status" binding:"required"`
	AdminNotes   string             `json:"admin_notes"`
	RefundAmount *float64           `json:"refund_amount"`
}

func orderFilterFromQuery(c *gin.Context) repository.OrderFilter {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return repository.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Search:        c.Query("search"),
		Limit:         limit,
		Offset:        offset,
	}
}

// GetDashboard returns the admin dashboard statistics
// GET /api/v1/admin/dashboard
func (ctrl *AdminController) GetDashboard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.adminService.GetDashboardStats()
	if err != nil {
		log.Error("Failed to build dashboard stats", err, nil)
		apperrors.InternalError(c, "Failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}

// ListUsers returns customers with their order counts
// GET /api/v1/admin/users
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := ctrl.adminService.ListUsers(offset, limit)
	if err != nil {
		log.Error("Failed to list users", err, nil)
		apperrors.InternalError(c, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
		"total": total,
	})
}

// ListOrders returns all orders with optional filters
// GET /api/v1/admin/orders
func (ctrl *AdminController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := orderFilterFromQuery(c)
	orders, total, err := ctrl.adminService.ListOrders(filter)
	if err != nil {
		log.Error("Failed to list orders", err, map[string]interface{}{
			"status": filter.Status,
			"search": filter.Search,
		})
		apperrors.InternalError(c, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
		"total":  total,
	})
}

// ExportOrders streams the filtered orders as an xlsx workbook
// GET /api/v1/admin/orders/export
func (ctrl *AdminController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := orderFilterFromQuery(c)
	workbook, err := ctrl.adminService.ExportOrders(filter)
	if err != nil {
		log.Error("Failed to export orders", err, nil)
		apperrors.InternalError(c, "Failed to export orders")
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := workbook.Write(c.Writer); err != nil {
		log.Error("Failed to write orders export", err, nil)
		return
	}

	log.Info("Orders exported", map[string]interface{}{
		"filename": filename,
	})
}

// UpdateOrderStatus advances an order through its lifecycle
// PUT /api/v1/admin/orders/:id/status
func (ctrl *AdminController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid order ID format", map[string]interface{}{
			"order_id": idStr,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order status request", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid status")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(uint(id), req.Status)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			log.Warn("Order not found for status update", map[string]interface{}{
				"order_id": id,
			})
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		if errors.Is(err, service.ErrInvalidTransition) {
			log.Warn("Invalid order status transition", map[string]interface{}{
				"order_id": id,
				"status":   req.Status,
			})
			apperrors.BadRequest(c, apperrors.OrderInvalidTransition, "Invalid status transition")
			return
		}
		log.Error("Failed to update order status", err, map[string]interface{}{
			"order_id": id,
			"status":   req.Status,
		})
		apperrors.InternalError(c, "Failed to update order status")
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"status":   req.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

// UpdatePaymentStatus moves an order's payment state
// PUT /api/v1/admin/orders/:id/payment-status
func (ctrl *AdminController) UpdatePaymentStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid order ID format", map[string]interface{}{
			"order_id": idStr,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid payment status request", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid status")
		return
	}

	order, err := ctrl.orderService.UpdatePaymentStatus(uint(id), req.Status)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			log.Warn("Order not found for payment status update", map[string]interface{}{
				"order_id": id,
			})
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		if errors.Is(err, service.ErrInvalidTransition) {
			log.Warn("Invalid payment status transition", map[string]interface{}{
				"order_id": id,
				"status":   req.Status,
			})
			apperrors.BadRequest(c, apperrors.OrderInvalidTransition, "Invalid payment status transition")
			return
		}
		log.Error("Failed to update payment status", err, map[string]interface{}{
			"order_id": id,
			"status":   req.Status,
		})
		apperrors.InternalError(c, "Failed to update payment status")
		return
	}

	log.Info("Payment status updated", map[string]interface{}{
		"order_id": id,
		"status":   req.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment status updated",
		"order":   order,
	})
}

// ListReturns returns the returns queue, optionally filtered by status
// GET /api/v1/admin/returns
func (ctrl *AdminController) ListReturns(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	returns, err := ctrl.returnService.ListReturns(c.Query("status"))
	if err != nil {
		log.Error("Failed to list returns", err, nil)
		apperrors.InternalError(c, "Failed to list returns")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"returns": returns,
		"count":   len(returns),
	})
}

// UpdateReturnStatus moves a return through its flow. Marking a return
// refunded also flips the parent order to refunded in the same
// transaction.
// PUT /api/v1/admin/returns/:id/status
func (ctrl *AdminController) UpdateReturnStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid return ID format", map[string]interface{}{
			"return_id": idStr,
			"error":     err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid return ID")
		return
	}

	var req UpdateReturnStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid return status request", map[string]interface{}{
			"return_id": id,
			"error":     err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid status")
		return
	}

	ret, err := ctrl.returnService.UpdateReturnStatus(uint(id), req.Status, req.AdminNotes, req.RefundAmount)
	if err != nil {
		if errors.Is(err, service.ErrReturnNotFound) {
			log.Warn("Return not found for status update", map[string]interface{}{
				"return_id": id,
			})
			apperrors.NotFound(c, apperrors.ReturnNotFound, "Return request not found")
			return
		}
		if errors.Is(err, service.ErrInvalidTransition) {
			log.Warn("Invalid return status transition", map[string]interface{}{
				"return_id": id,
				"status":    req.Status,
			})
			apperrors.BadRequest(c, apperrors.ReturnInvalidTransition, "Invalid status transition")
			return
		}
		log.Error("Failed to update return status", err, map[string]interface{}{
			"return_id": id,
			"status":    req.Status,
		})
		apperrors.InternalError(c, "Failed to update return status")
		return
	}

	log.Info("Return status updated", map[string]interface{}{
		"return_id": id,
		"status":    req.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Return status updated",
		"return":  ret,
	})
}

// ListLowStock returns variants at or below the stock threshold
// GET /api/v1/admin/stock/low
func (ctrl *AdminController) ListLowStock(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", "0"))

	variants, err := ctrl.productService.ListLowStock(threshold)
	if err != nil {
		log.Error("Failed to list low stock variants", err, nil)
		apperrors.InternalError(c, "Failed to list low stock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"variants": variants,
		"count":    len(variants),
	})
}
