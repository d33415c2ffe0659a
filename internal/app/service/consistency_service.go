package service

import (
	"time"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

// Orders younger than this are skipped by the zero-line sweep; a checkout
// may still be writing its line items.
const zeroLineOrderGrace = 10 * time.Minute

// ConsistencyService repairs drift between returns and their parent
// orders and reports orders that lost their line items. It backs the
// periodic sweep.
type ConsistencyService interface {
	RepairRefundMismatches() (int, error)
	ReportZeroLineOrders() ([]model.Order, error)
}

type consistencyService struct {
	returnRepo repository.ReturnRepository
	orderRepo  repository.OrderRepository
	db         *gorm.DB
}

func NewConsistencyService(
	returnRepo repository.ReturnRepository,
	orderRepo repository.OrderRepository,
	db *gorm.DB,
) ConsistencyService {
	return &consistencyService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		db:         db,
	}
}

// RepairRefundMismatches finds returns marked refunded whose parent
// order never flipped, and flips the order. The refund transaction makes
// this impossible in normal operation; the sweep catches rows written by
// older code or manual edits.
func (s *consistencyService) RepairRefundMismatches() (int, error) {
	logger.Debug("Scanning for refund mismatches")

	requests, err := s.returnRepo.FindRefundedWithUnrefundedOrder()
	if err != nil {
		logger.Error("Failed to scan for refund mismatches", err)
		return 0, err
	}

	repaired := 0
	for _, request := range requests {
		if err := s.db.Model(&model.Order{}).Where("id = ?", request.OrderID).
			Updates(map[string]interface{}{
				"status":         model.OrderStatusRefunded,
				"payment_status": model.PaymentStatusRefunded,
			}).Error; err != nil {
			logger.Error("Failed to repair refund mismatch", err, map[string]interface{}{
				"return_id": request.ID,
				"order_id":  request.OrderID,
			})
			continue
		}

		logger.Warn("Repaired refund mismatch", map[string]interface{}{
			"return_id": request.ID,
			"order_id":  request.OrderID,
		})
		repaired++
	}

	if repaired > 0 {
		logger.Info("Refund mismatch repair finished", map[string]interface{}{
			"repaired": repaired,
		})
	}
	return repaired, nil
}

// ReportZeroLineOrders logs orders past the grace period that have no
// line items. These are never repaired automatically, only surfaced.
func (s *consistencyService) ReportZeroLineOrders() ([]model.Order, error) {
	orders, err := s.orderRepo.FindWithoutItems(time.Now().Add(-zeroLineOrderGrace))
	if err != nil {
		logger.Error("Failed to scan for zero-line orders", err)
		return nil, err
	}

	for _, order := range orders {
		logger.Warn("Order has no line items", map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
		})
	}
	return orders, nil
}
