package repository

import (
	"time"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderFilter struct {
	Status        string
	PaymentStatus string
	Search        string
	Limit         int
	Offset        int
}

type OrderStats struct {
	TotalOrders     int64   `json:"total_orders"`
	PendingOrders   int64   `json:"pending_orders"`
	ConfirmedOrders int64   `json:"confirmed_orders"`
	ShippedOrders   int64   `json:"shipped_orders"`
	DeliveredOrders int64   `json:"delivered_orders"`
	CancelledOrders int64   `json:"cancelled_orders"`
	RefundedOrders  int64   `json:"refunded_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByOrderNumber(orderNumber string) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindWithFilter(filter OrderFilter) ([]model.Order, int64, error)
	Update(order *model.Order) error
	UpdateStatus(id uint, status model.OrderStatus) error
	UpdatePaymentStatus(id uint, status model.PaymentStatus) error
	GetStats() (*OrderStats, error)
	CountByUsers(userIDs []uint) (map[uint]int64, error)
	FindWithoutItems(olderThan time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items").Preload("Address").Preload("User")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":      order.UserID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id":      order.UserID,
			"order_number": order.OrderNumber,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindByOrderNumber(orderNumber string) (*model.Order, error) {
	logger.Debug("Finding order by order number in database", map[string]interface{}{
		"order_number": orderNumber,
	})

	var order model.Order
	if err := r.preloadOrder().Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		logger.Error("Failed to find order by order number in database", err, map[string]interface{}{
			"order_number": orderNumber,
		})
		return nil, err
	}

	logger.Debug("Order found by order number in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": orderNumber,
	})
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindWithFilter(filter OrderFilter) ([]model.Order, int64, error) {
	logger.Debug("Finding orders with filter in database", map[string]interface{}{
		"status":         filter.Status,
		"payment_status": filter.PaymentStatus,
		"search":         filter.Search,
		"limit":          filter.Limit,
		"offset":         filter.Offset,
	})

	query := r.db.Model(&model.Order{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Search != "" {
		query = query.Where("order_number LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count orders with filter in database", err)
		return nil, 0, err
	}

	query = query.Preload("Items").Preload("Address").Preload("User").
		Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders with filter in database", err)
		return nil, 0, err
	}

	logger.Debug("Orders found with filter in database", map[string]interface{}{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})

	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
		})
		return err
	}

	logger.Debug("Order updated in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update order status in database", err, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return err
	}

	logger.Debug("Order status updated in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})
	return nil
}

func (r *orderRepository) UpdatePaymentStatus(id uint, status model.PaymentStatus) error {
	logger.Debug("Updating order payment status in database", map[string]interface{}{
		"order_id":       id,
		"payment_status": status,
	})

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("payment_status", status).Error; err != nil {
		logger.Error("Failed to update order payment status in database", err, map[string]interface{}{
			"order_id":       id,
			"payment_status": status,
		})
		return err
	}

	logger.Debug("Order payment status updated in database", map[string]interface{}{
		"order_id":       id,
		"payment_status": status,
	})
	return nil
}

func (r *orderRepository) GetStats() (*OrderStats, error) {
	logger.Debug("Getting order statistics in database")

	stats := &OrderStats{}

	if err := r.db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		logger.Error("Failed to count total orders", err)
		return nil, err
	}

	statusCounts := []struct {
		Status model.OrderStatus
		Count  int64
	}{}
	if err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		logger.Error("Failed to count orders by status", err)
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case model.OrderStatusPending:
			stats.PendingOrders = sc.Count
		case model.OrderStatusConfirmed:
			stats.ConfirmedOrders = sc.Count
		case model.OrderStatusShipped:
			stats.ShippedOrders = sc.Count
		case model.OrderStatusDelivered:
			stats.DeliveredOrders = sc.Count
		case model.OrderStatusCancelled:
			stats.CancelledOrders = sc.Count
		case model.OrderStatusRefunded:
			stats.RefundedOrders = sc.Count
		}
	}

	// Revenue counts paid orders that were not refunded
	var revenueResult struct {
		TotalRevenue float64
	}
	if err := r.db.Model(&model.Order{}).
		Select("COALESCE(SUM(total), 0) as total_revenue").
		Where("payment_status = ?", model.PaymentStatusPaid).
		Scan(&revenueResult).Error; err != nil {
		logger.Error("Failed to calculate total revenue", err)
		return nil, err
	}
	stats.TotalRevenue = revenueResult.TotalRevenue

	logger.Debug("Order statistics retrieved in database", map[string]interface{}{
		"total_orders":  stats.TotalOrders,
		"total_revenue": stats.TotalRevenue,
	})
	return stats, nil
}

func (r *orderRepository) CountByUsers(userIDs []uint) (map[uint]int64, error) {
	logger.Debug("Counting orders by users in database", map[string]interface{}{
		"user_count": len(userIDs),
	})

	counts := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	rows := []struct {
		UserID uint
		Count  int64
	}{}
	if err := r.db.Model(&model.Order{}).
		Select("user_id, COUNT(*) as count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to count orders by users in database", err)
		return nil, err
	}

	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}

func (r *orderRepository) FindWithoutItems(olderThan time.Time) ([]model.Order, error) {
	logger.Debug("Finding orders without line items in database", map[string]interface{}{
		"older_than": olderThan,
	})

	var orders []model.Order
	if err := r.db.
		Where("created_at < ?", olderThan).
		Where("NOT EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id)").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders without line items in database", err)
		return nil, err
	}

	logger.Debug("Orders without line items found in database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}
