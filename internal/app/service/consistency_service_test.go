package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/internal/db"
	"gorm.io/gorm"
)

func setupConsistencyServiceTest(t *testing.T) (ConsistencyService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	returnRepo := repository.NewReturnRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	consistencyService := NewConsistencyService(returnRepo, orderRepo, testDB)

	return consistencyService, testDB
}

func seedDriftedOrder(t *testing.T, testDB *gorm.DB, orderNumber string, orderStatus model.OrderStatus, returnStatus model.ReturnStatus) *model.Order {
	t.Helper()

	user := &model.User{
		Email:    orderNumber + "@example.com",
		Password: "hash",
		Name:     "Drift",
		Role:     model.UserRoleCustomer,
	}
	require.NoError(t, testDB.Create(user).Error)

	address := &model.Address{
		UserID: user.ID, Name: "Drift", Phone: "1",
		StreetAddress: "x", City: "y", State: "z", PostalCode: "0",
	}
	require.NoError(t, testDB.Create(address).Error)

	order := &model.Order{
		OrderNumber:   orderNumber,
		UserID:        user.ID,
		AddressID:     address.ID,
		Subtotal:      1000,
		Total:         1000,
		PaymentMethod: model.PaymentMethodPrepaid,
		PaymentStatus: model.PaymentStatusPaid,
		Status:        orderStatus,
		ItemsCount:    1,
	}
	require.NoError(t, testDB.Create(order).Error)

	require.NoError(t, testDB.Create(&model.ReturnRequest{
		OrderID: order.ID,
		UserID:  user.ID,
		Reason:  "wrong size",
		Status:  returnStatus,
	}).Error)

	return order
}

func TestConsistencyService_RepairRefundMismatches(t *testing.T) {
	consistencyService, testDB := setupConsistencyServiceTest(t)

	// A refunded return whose order never flipped
	drifted := seedDriftedOrder(t, testDB, "VLR-E-1", model.OrderStatusDelivered, model.ReturnStatusRefunded)
	// A healthy refunded pair must be left alone
	healthy := seedDriftedOrder(t, testDB, "VLR-E-2", model.OrderStatusRefunded, model.ReturnStatusRefunded)
	testDB.Model(&model.Order{}).Where("id = ?", healthy.ID).
		Update("payment_status", model.PaymentStatusRefunded)
	// An open return does not count as drift
	seedDriftedOrder(t, testDB, "VLR-E-3", model.OrderStatusDelivered, model.ReturnStatusPending)

	repaired, err := consistencyService.RepairRefundMismatches()
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	var refreshed model.Order
	testDB.First(&refreshed, drifted.ID)
	assert.Equal(t, model.OrderStatusRefunded, refreshed.Status)
	assert.Equal(t, model.PaymentStatusRefunded, refreshed.PaymentStatus)

	// A second sweep finds nothing
	repaired, err = consistencyService.RepairRefundMismatches()
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestConsistencyService_ReportZeroLineOrders(t *testing.T) {
	consistencyService, testDB := setupConsistencyServiceTest(t)

	empty := seedDriftedOrder(t, testDB, "VLR-F-1", model.OrderStatusPending, model.ReturnStatusPending)
	full := seedDriftedOrder(t, testDB, "VLR-F-2", model.OrderStatusPending, model.ReturnStatusPending)
	require.NoError(t, testDB.Create(&model.OrderItem{
		OrderID:     full.ID,
		ProductID:   1,
		ProductName: "Silk Slip Dress",
		Quantity:    1,
		UnitPrice:   1000,
		LineTotal:   1000,
	}).Error)
	// A just-placed order may still be writing its lines
	fresh := seedDriftedOrder(t, testDB, "VLR-F-3", model.OrderStatusPending, model.ReturnStatusPending)

	// Age the first two past the grace period
	backdated := time.Now().Add(-time.Hour)
	require.NoError(t, testDB.Model(&model.Order{}).
		Where("id IN ?", []uint{empty.ID, full.ID}).
		Update("created_at", backdated).Error)

	orders, err := consistencyService.ReportZeroLineOrders()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, empty.ID, orders[0].ID)
	assert.NotEqual(t, fresh.ID, orders[0].ID)
}
