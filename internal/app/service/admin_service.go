package service

import (
	"fmt"
	"time"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

type DashboardStats struct {
	Orders        *repository.OrderStats `json:"orders"`
	TotalUsers    int64                  `json:"total_users"`
	TotalProducts int64                  `json:"total_products"`
}

type AdminUser struct {
	model.User
	OrderCount int64 `json:"order_count"`
}

type AdminService interface {
	GetDashboardStats() (*DashboardStats, error)
	ListUsers(offset, limit int) ([]AdminUser, int64, error)
	ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error)
	ExportOrders(filter repository.OrderFilter) (*excelize.File, error)
}

type adminService struct {
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

func NewAdminService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
) AdminService {
	return &adminService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
	}
}

func (s *adminService) GetDashboardStats() (*DashboardStats, error) {
	logger.Debug("Building dashboard statistics")

	orderStats, err := s.orderRepo.GetStats()
	if err != nil {
		logger.Error("Failed to get order statistics", err)
		return nil, err
	}

	_, totalUsers, err := s.userRepo.List(0, 1)
	if err != nil {
		logger.Error("Failed to count users for dashboard", err)
		return nil, err
	}

	totalProducts, err := s.productRepo.Count()
	if err != nil {
		logger.Error("Failed to count products for dashboard", err)
		return nil, err
	}

	stats := &DashboardStats{
		Orders:        orderStats,
		TotalUsers:    totalUsers,
		TotalProducts: totalProducts,
	}

	logger.Info("Dashboard statistics built", map[string]interface{}{
		"total_orders":   orderStats.TotalOrders,
		"total_users":    totalUsers,
		"total_products": totalProducts,
	})
	return stats, nil
}

func (s *adminService) ListUsers(offset, limit int) ([]AdminUser, int64, error) {
	logger.Debug("Listing users for admin console", map[string]interface{}{
		"offset": offset,
		"limit":  limit,
	})

	users, total, err := s.userRepo.List(offset, limit)
	if err != nil {
		logger.Error("Failed to list users for admin console", err)
		return nil, 0, err
	}

	userIDs := make([]uint, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}

	counts, err := s.orderRepo.CountByUsers(userIDs)
	if err != nil {
		logger.Error("Failed to count orders per user", err)
		return nil, 0, err
	}

	result := make([]AdminUser, 0, len(users))
	for _, user := range users {
		result = append(result, AdminUser{
			User:       user,
			OrderCount: counts[user.ID],
		})
	}

	logger.Info("Users listed for admin console", map[string]interface{}{
		"count": len(result),
		"total": total,
	})
	return result, total, nil
}

func (s *adminService) ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error) {
	logger.Debug("Listing orders for admin console", map[string]interface{}{
		"status":         filter.Status,
		"payment_status": filter.PaymentStatus,
	})

	orders, total, err := s.orderRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list orders for admin console", err)
		return nil, 0, err
	}

	logger.Info("Orders listed for admin console", map[string]interface{}{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

// ExportOrders renders the filtered orders as an xlsx workbook.
func (s *adminService) ExportOrders(filter repository.OrderFilter) (*excelize.File, error) {
	logger.Info("Exporting orders to spreadsheet", map[string]interface{}{
		"status":         filter.Status,
		"payment_status": filter.PaymentStatus,
	})

	// Export ignores pagination
	filter.Limit = 0
	filter.Offset = 0

	orders, _, err := s.orderRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to fetch orders for export", err)
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Order Number", "Customer", "Email", "Status", "Payment Method",
		"Payment Status", "Items", "Subtotal", "Shipping Fee", "Total", "Created At",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, order := range orders {
		customerName := ""
		customerEmail := ""
		if order.User != nil {
			customerName = order.User.Name
			customerEmail = order.User.Email
		}

		values := []interface{}{
			order.OrderNumber,
			customerName,
			customerEmail,
			string(order.Status),
			string(order.PaymentMethod),
			string(order.PaymentStatus),
			order.ItemsCount,
			order.Subtotal,
			order.ShippingFee,
			order.Total,
			order.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	logger.Info("Orders exported to spreadsheet", map[string]interface{}{
		"order_count": len(orders),
	})
	return f, nil
}
