package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/veloura/veloura-backend/internal/app/service"
	apperrors "github.com/veloura/veloura-backend/internal/errors"
	"github.com/veloura/veloura-backend/internal/middleware"
)

type ReturnController struct {
	returnService service.ReturnService
}

func NewReturnController(returnService service.ReturnService) *ReturnController {
	return &ReturnController{
		returnService: returnService,
	}
}

type RequestReturnRequest struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	OrderItemID *uint  `json:"order_item_id"`
	Reason      string `json:"reason" binding:"required"`
	Comment     string `json:"comment"`
}

// RequestReturn opens a return for a delivered order
// POST /api/v1/returns
func (ctrl *ReturnController) RequestReturn(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to request return", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req RequestReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid return request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid return details")
		return
	}

	log.Debug("Processing return request", map[string]interface{}{
		"user_id":  userID,
		"order_id": req.OrderID,
		"reason":   req.Reason,
	})

	ret, err := ctrl.returnService.RequestReturn(userID, req.OrderID, req.OrderItemID, req.Reason, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			log.Warn("Order not found for return", map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrReturnItemNotFound):
			log.Warn("Order item not found for return", map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order item not found")
		case errors.Is(err, service.ErrReturnNotDelivered):
			log.Warn("Return requested for undelivered order", map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			apperrors.BadRequest(c, apperrors.ReturnNotDelivered, "Only delivered orders can be returned")
		case errors.Is(err, service.ErrReturnAlreadyRequested):
			log.Warn("Duplicate return request", map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			apperrors.Conflict(c, apperrors.ReturnAlreadyRequested, "An open return already exists for this order")
		default:
			log.Error("Failed to request return", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			apperrors.InternalError(c, "Failed to request return")
		}
		return
	}

	log.Info("Return requested successfully", map[string]interface{}{
		"user_id":   userID,
		"order_id":  req.OrderID,
		"return_id": ret.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Return requested successfully",
		"return":  ret,
	})
}

// GetReturns returns the user's return requests
// GET /api/v1/returns
func (ctrl *ReturnController) GetReturns(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to returns", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	returns, err := ctrl.returnService.GetUserReturns(userID)
	if err != nil {
		log.Error("Failed to fetch returns", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch returns")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"returns": returns,
		"count":   len(returns),
	})
}

// GetReturnByID returns one return request the user owns
// GET /api/v1/returns/:id
func (ctrl *ReturnController) GetReturnByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to return", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid return ID format", map[string]interface{}{
			"user_id":   userID,
			"return_id": idStr,
			"error":     err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid return ID")
		return
	}

	ret, err := ctrl.returnService.GetReturnByID(userID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrReturnNotFound) {
			log.Warn("Return not found", map[string]interface{}{
				"user_id":   userID,
				"return_id": id,
			})
			apperrors.NotFound(c, apperrors.ReturnNotFound, "Return request not found")
			return
		}
		log.Error("Failed to fetch return", err, map[string]interface{}{
			"user_id":   userID,
			"return_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch return")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"return": ret,
	})
}
