package service

import (
	"errors"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrReturnNotFound         = errors.New("return request not found")
	ErrReturnAlreadyRequested = errors.New("an open return already exists for this order")
	ErrReturnNotDelivered     = errors.New("only delivered orders can be returned")
	ErrReturnItemNotFound     = errors.New("order item not found on this order")
)

type ReturnService interface {
	RequestReturn(userID, orderID uint, orderItemID *uint, reason, comment string) (*model.ReturnRequest, error)
	GetUserReturns(userID uint) ([]model.ReturnRequest, error)
	GetReturnByID(userID, returnID uint) (*model.ReturnRequest, error)
	ListReturns(status string) ([]model.ReturnRequest, error)
	UpdateReturnStatus(returnID uint, status model.ReturnStatus, adminNotes string, refundAmount *float64) (*model.ReturnRequest, error)
}

type returnService struct {
	returnRepo repository.ReturnRepository
	orderRepo  repository.OrderRepository
	db         *gorm.DB
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	orderRepo repository.OrderRepository,
	db *gorm.DB,
) ReturnService {
	return &returnService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		db:         db,
	}
}

// RequestReturn opens a return for a delivered order, targeting a single
// line when orderItemID is set or the whole order otherwise. Each target
// can carry at most one open return; a rejected return frees the target
// for another attempt. The refund amount defaults to the targeted line's
// total, or the order total for a whole-order return.
func (s *returnService) RequestReturn(userID, orderID uint, orderItemID *uint, reason, comment string) (*model.ReturnRequest, error) {
	logger.Info("Requesting return", map[string]interface{}{
		"user_id":       userID,
		"order_id":      orderID,
		"order_item_id": orderItemID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Return request failed: order not found", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order for return request", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Return request denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}

	if order.Status != model.OrderStatusDelivered {
		logger.Warn("Return request rejected: order not delivered", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"status":   order.Status,
		})
		return nil, ErrReturnNotDelivered
	}

	refundAmount := order.Total
	if orderItemID != nil {
		var line *model.OrderItem
		for i := range order.Items {
			if order.Items[i].ID == *orderItemID {
				line = &order.Items[i]
				break
			}
		}
		if line == nil {
			logger.Warn("Return request rejected: item not on order", map[string]interface{}{
				"user_id":       userID,
				"order_id":      orderID,
				"order_item_id": *orderItemID,
			})
			return nil, ErrReturnItemNotFound
		}
		refundAmount = line.LineTotal
	}

	existing, err := s.returnRepo.FindOpenByTarget(orderID, orderItemID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check open returns for order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Return request rejected: open return exists", map[string]interface{}{
			"user_id":   userID,
			"order_id":  orderID,
			"return_id": existing.ID,
			"status":    existing.Status,
		})
		return nil, ErrReturnAlreadyRequested
	}

	request := &model.ReturnRequest{
		OrderID:      orderID,
		OrderItemID:  orderItemID,
		UserID:       userID,
		Reason:       reason,
		Comment:      comment,
		RefundAmount: refundAmount,
		Status:       model.ReturnStatusPending,
	}
	if err := s.returnRepo.Create(request); err != nil {
		logger.Error("Failed to create return request", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	logger.Info("Return requested successfully", map[string]interface{}{
		"user_id":   userID,
		"order_id":  orderID,
		"return_id": request.ID,
	})
	return request, nil
}

func (s *returnService) GetUserReturns(userID uint) ([]model.ReturnRequest, error) {
	logger.Debug("Fetching user returns", map[string]interface{}{
		"user_id": userID,
	})

	requests, err := s.returnRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user returns", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User returns fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(requests),
	})
	return requests, nil
}

func (s *returnService) GetReturnByID(userID, returnID uint) (*model.ReturnRequest, error) {
	logger.Debug("Fetching return by ID", map[string]interface{}{
		"user_id":   userID,
		"return_id": returnID,
	})

	request, err := s.returnRepo.FindByID(returnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Return not found", map[string]interface{}{
				"user_id":   userID,
				"return_id": returnID,
			})
			return nil, ErrReturnNotFound
		}
		logger.Error("Failed to fetch return", err, map[string]interface{}{
			"return_id": returnID,
		})
		return nil, err
	}

	if request.UserID != userID {
		logger.Warn("Return access denied: ownership mismatch", map[string]interface{}{
			"user_id":   userID,
			"return_id": returnID,
			"owner_id":  request.UserID,
		})
		return nil, ErrReturnNotFound
	}

	return request, nil
}

func (s *returnService) ListReturns(status string) ([]model.ReturnRequest, error) {
	logger.Debug("Listing return requests", map[string]interface{}{
		"status": status,
	})

	requests, err := s.returnRepo.FindAll(status)
	if err != nil {
		logger.Error("Failed to list return requests", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}

	logger.Info("Return requests listed successfully", map[string]interface{}{
		"status": status,
		"count":  len(requests),
	})
	return requests, nil
}

// UpdateReturnStatus walks a return through its lifecycle, optionally
// recording admin notes and overriding the refund amount. Moving to
// refunded also flips the parent order's status and payment status in
// the same transaction, so the two can never disagree.
func (s *returnService) UpdateReturnStatus(returnID uint, status model.ReturnStatus, adminNotes string, refundAmount *float64) (*model.ReturnRequest, error) {
	logger.Info("Updating return status", map[string]interface{}{
		"return_id":  returnID,
		"new_status": status,
	})

	if !model.ValidReturnStatus(status) {
		return nil, ErrInvalidTransition
	}

	request, err := s.returnRepo.FindByID(returnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Return not found for status update", map[string]interface{}{
				"return_id": returnID,
			})
			return nil, ErrReturnNotFound
		}
		return nil, err
	}

	if !request.Status.CanTransitionTo(status) {
		logger.Warn("Return status transition rejected", map[string]interface{}{
			"return_id":  returnID,
			"from":       request.Status,
			"new_status": status,
		})
		return nil, ErrInvalidTransition
	}

	if adminNotes != "" {
		request.AdminNotes = adminNotes
	}
	if refundAmount != nil {
		request.RefundAmount = *refundAmount
	}

	if status != model.ReturnStatusRefunded {
		request.Status = status
		if err := s.returnRepo.Update(request); err != nil {
			logger.Error("Failed to update return status", err, map[string]interface{}{
				"return_id": returnID,
			})
			return nil, err
		}

		logger.Info("Return status updated successfully", map[string]interface{}{
			"return_id": returnID,
			"status":    status,
		})
		return s.returnRepo.FindByID(returnID)
	}

	order, err := s.orderRepo.FindByID(request.OrderID)
	if err != nil {
		logger.Error("Failed to fetch order for refund", err, map[string]interface{}{
			"return_id": returnID,
			"order_id":  request.OrderID,
		})
		return nil, err
	}

	if !order.PaymentStatus.CanTransitionTo(model.PaymentStatusRefunded) {
		logger.Warn("Refund rejected: payment not refundable", map[string]interface{}{
			"return_id":      returnID,
			"order_id":       order.ID,
			"payment_status": order.PaymentStatus,
		})
		return nil, ErrInvalidTransition
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin refund transaction", tx.Error, map[string]interface{}{
			"return_id": returnID,
		})
		return nil, tx.Error
	}

	if err := tx.Model(&model.ReturnRequest{}).Where("id = ?", returnID).
		Updates(map[string]interface{}{
			"status":        model.ReturnStatusRefunded,
			"admin_notes":   request.AdminNotes,
			"refund_amount": request.RefundAmount,
		}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to mark return as refunded", err, map[string]interface{}{
			"return_id": returnID,
		})
		return nil, err
	}

	if err := tx.Model(&model.Order{}).Where("id = ?", request.OrderID).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusRefunded,
			"payment_status": model.PaymentStatusRefunded,
		}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to mark order as refunded", err, map[string]interface{}{
			"return_id": returnID,
			"order_id":  request.OrderID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit refund transaction", err, map[string]interface{}{
			"return_id": returnID,
		})
		return nil, err
	}

	logger.Info("Return refunded and order updated", map[string]interface{}{
		"return_id": returnID,
		"order_id":  request.OrderID,
	})
	return s.returnRepo.FindByID(returnID)
}
