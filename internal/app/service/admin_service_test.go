package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/internal/db"
	"gorm.io/gorm"
)

func setupAdminServiceTest(t *testing.T) (AdminService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	adminService := NewAdminService(orderRepo, userRepo, productRepo)

	return adminService, testDB
}

func seedAdminOrder(t *testing.T, testDB *gorm.DB, orderNumber string, status model.OrderStatus, paymentStatus model.PaymentStatus, total float64) *model.Order {
	t.Helper()

	user := &model.User{
		Email:    orderNumber + "@example.com",
		Password: "hash",
		Name:     "Customer " + orderNumber,
		Role:     model.UserRoleCustomer,
	}
	require.NoError(t, testDB.Create(user).Error)

	address := &model.Address{
		UserID:        user.ID,
		Name:          user.Name,
		Phone:         "1",
		StreetAddress: "x",
		City:          "y",
		State:         "z",
		PostalCode:    "0",
	}
	require.NoError(t, testDB.Create(address).Error)

	order := &model.Order{
		OrderNumber:   orderNumber,
		UserID:        user.ID,
		AddressID:     address.ID,
		Subtotal:      total,
		Total:         total,
		PaymentMethod: model.PaymentMethodPrepaid,
		PaymentStatus: paymentStatus,
		Status:        status,
		ItemsCount:    1,
	}
	require.NoError(t, testDB.Create(order).Error)
	return order
}

func TestAdminService_GetDashboardStats(t *testing.T) {
	adminService, testDB := setupAdminServiceTest(t)

	seedAdminOrder(t, testDB, "VLR-A-1", model.OrderStatusPending, model.PaymentStatusPaid, 1000)
	seedAdminOrder(t, testDB, "VLR-A-2", model.OrderStatusDelivered, model.PaymentStatusPaid, 2000)
	seedAdminOrder(t, testDB, "VLR-A-3", model.OrderStatusCancelled, model.PaymentStatusPending, 500)

	testDB.Create(&model.Product{Name: "P", Category: "tops", BasePrice: 100, IsActive: true})

	stats, err := adminService.GetDashboardStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Orders.TotalOrders)
	assert.Equal(t, int64(1), stats.Orders.PendingOrders)
	assert.Equal(t, int64(1), stats.Orders.DeliveredOrders)
	assert.Equal(t, int64(1), stats.Orders.CancelledOrders)

	// Revenue counts paid orders only
	assert.Equal(t, 3000.0, stats.Orders.TotalRevenue)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalProducts)
}

func TestAdminService_ListUsers_WithOrderCounts(t *testing.T) {
	adminService, testDB := setupAdminServiceTest(t)

	order := seedAdminOrder(t, testDB, "VLR-B-1", model.OrderStatusPending, model.PaymentStatusPaid, 1000)
	quiet := &model.User{Email: "quiet@example.com", Password: "hash", Name: "Quiet", Role: model.UserRoleCustomer}
	require.NoError(t, testDB.Create(quiet).Error)

	users, total, err := adminService.ListUsers(0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)

	counts := map[uint]int64{}
	for _, u := range users {
		counts[u.ID] = u.OrderCount
	}
	assert.Equal(t, int64(1), counts[order.UserID])
	assert.Equal(t, int64(0), counts[quiet.ID])
}

func TestAdminService_ListOrders_Filtered(t *testing.T) {
	adminService, testDB := setupAdminServiceTest(t)

	seedAdminOrder(t, testDB, "VLR-C-1", model.OrderStatusPending, model.PaymentStatusPaid, 1000)
	seedAdminOrder(t, testDB, "VLR-C-2", model.OrderStatusShipped, model.PaymentStatusPaid, 2000)

	orders, total, err := adminService.ListOrders(repository.OrderFilter{Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, "VLR-C-2", orders[0].OrderNumber)

	// Search matches by order number
	orders, _, err = adminService.ListOrders(repository.OrderFilter{Search: "C-1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "VLR-C-1", orders[0].OrderNumber)
}

func TestAdminService_ExportOrders(t *testing.T) {
	adminService, testDB := setupAdminServiceTest(t)

	seedAdminOrder(t, testDB, "VLR-D-1", model.OrderStatusDelivered, model.PaymentStatusPaid, 1500)

	workbook, err := adminService.ExportOrders(repository.OrderFilter{})
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Order Number", rows[0][0])
	assert.Equal(t, "VLR-D-1", rows[1][0])
	assert.Equal(t, "delivered", rows[1][3])
}
