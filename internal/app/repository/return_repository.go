package repository

import (
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	Create(request *model.ReturnRequest) error
	FindByID(id uint) (*model.ReturnRequest, error)
	FindByUserID(userID uint) ([]model.ReturnRequest, error)
	FindOpenByTarget(orderID uint, orderItemID *uint) (*model.ReturnRequest, error)
	FindAll(status string) ([]model.ReturnRequest, error)
	Update(request *model.ReturnRequest) error
	FindRefundedWithUnrefundedOrder() ([]model.ReturnRequest, error)
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(request *model.ReturnRequest) error {
	logger.Debug("Creating return request in database", map[string]interface{}{
		"order_id": request.OrderID,
		"user_id":  request.UserID,
	})

	if err := r.db.Create(request).Error; err != nil {
		logger.Error("Failed to create return request in database", err, map[string]interface{}{
			"order_id": request.OrderID,
			"user_id":  request.UserID,
		})
		return err
	}

	logger.Debug("Return request created in database", map[string]interface{}{
		"return_id": request.ID,
		"order_id":  request.OrderID,
	})
	return nil
}

func (r *returnRepository) FindByID(id uint) (*model.ReturnRequest, error) {
	logger.Debug("Finding return request by ID in database", map[string]interface{}{
		"return_id": id,
	})

	var request model.ReturnRequest
	if err := r.db.Preload("Order").Preload("Order.Items").
		First(&request, id).Error; err != nil {
		logger.Error("Failed to find return request by ID in database", err, map[string]interface{}{
			"return_id": id,
		})
		return nil, err
	}

	logger.Debug("Return request found by ID in database", map[string]interface{}{
		"return_id": request.ID,
		"order_id":  request.OrderID,
		"status":    request.Status,
	})
	return &request, nil
}

func (r *returnRepository) FindByUserID(userID uint) ([]model.ReturnRequest, error) {
	logger.Debug("Finding return requests by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var requests []model.ReturnRequest
	if err := r.db.Preload("Order").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		logger.Error("Failed to find return requests by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Return requests found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(requests),
	})
	return requests, nil
}

func (r *returnRepository) FindOpenByTarget(orderID uint, orderItemID *uint) (*model.ReturnRequest, error) {
	logger.Debug("Finding open return request by target in database", map[string]interface{}{
		"order_id":      orderID,
		"order_item_id": orderItemID,
	})

	query := r.db.Where("order_id = ? AND status != ?", orderID, model.ReturnStatusRejected)
	if orderItemID != nil {
		query = query.Where("order_item_id = ?", *orderItemID)
	} else {
		query = query.Where("order_item_id IS NULL")
	}

	var request model.ReturnRequest
	if err := query.First(&request).Error; err != nil {
		logger.Error("Failed to find open return request by target in database", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	logger.Debug("Open return request found by target in database", map[string]interface{}{
		"return_id": request.ID,
		"order_id":  orderID,
		"status":    request.Status,
	})
	return &request, nil
}

func (r *returnRepository) FindAll(status string) ([]model.ReturnRequest, error) {
	logger.Debug("Finding all return requests in database", map[string]interface{}{
		"status": status,
	})

	query := r.db.Preload("Order").Preload("User")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []model.ReturnRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		logger.Error("Failed to find all return requests in database", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}

	logger.Debug("Return requests found in database", map[string]interface{}{
		"status": status,
		"count":  len(requests),
	})
	return requests, nil
}

func (r *returnRepository) Update(request *model.ReturnRequest) error {
	logger.Debug("Updating return request in database", map[string]interface{}{
		"return_id": request.ID,
		"order_id":  request.OrderID,
		"status":    request.Status,
	})

	if err := r.db.Save(request).Error; err != nil {
		logger.Error("Failed to update return request in database", err, map[string]interface{}{
			"return_id": request.ID,
		})
		return err
	}

	logger.Debug("Return request updated in database", map[string]interface{}{
		"return_id": request.ID,
		"status":    request.Status,
	})
	return nil
}

func (r *returnRepository) FindRefundedWithUnrefundedOrder() ([]model.ReturnRequest, error) {
	logger.Debug("Finding refunded returns with unrefunded orders in database")

	var requests []model.ReturnRequest
	if err := r.db.Preload("Order").
		Joins("JOIN orders ON orders.id = return_requests.order_id").
		Where("return_requests.status = ?", model.ReturnStatusRefunded).
		Where("orders.status != ? OR orders.payment_status != ?",
			model.OrderStatusRefunded, model.PaymentStatusRefunded).
		Find(&requests).Error; err != nil {
		logger.Error("Failed to find refunded returns with unrefunded orders in database", err)
		return nil, err
	}

	logger.Debug("Refunded returns with unrefunded orders found in database", map[string]interface{}{
		"count": len(requests),
	})
	return requests, nil
}
