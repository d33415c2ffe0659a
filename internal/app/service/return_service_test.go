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

func setupReturnServiceTest(t *testing.T) (ReturnService, *model.User, *model.Order, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	returnRepo := repository.NewReturnRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	returnService := NewReturnService(returnRepo, orderRepo, testDB)

	user := &model.User{
		Email:    "returns@example.com",
		Password: "hash",
		Name:     "Returner",
		Role:     model.UserRoleCustomer,
	}
	testDB.Create(user)

	address := &model.Address{
		UserID:        user.ID,
		Name:          "Returner",
		Phone:         "1",
		StreetAddress: "x",
		City:          "y",
		State:         "z",
		PostalCode:    "0",
	}
	testDB.Create(address)

	order := &model.Order{
		OrderNumber:   "VLR-TEST-0001",
		UserID:        user.ID,
		AddressID:     address.ID,
		Subtotal:      1000,
		ShippingFee:   0,
		Total:         1000,
		PaymentMethod: model.PaymentMethodPrepaid,
		PaymentStatus: model.PaymentStatusPaid,
		Status:        model.OrderStatusDelivered,
		ItemsCount:    2,
	}
	testDB.Create(order)

	items := []model.OrderItem{
		{OrderID: order.ID, ProductID: 1, ProductName: "Silk Blouse", Size: "M", Color: "Black", Quantity: 1, UnitPrice: 600, LineTotal: 600},
		{OrderID: order.ID, ProductID: 2, ProductName: "Linen Skirt", Size: "S", Color: "Beige", Quantity: 2, UnitPrice: 200, LineTotal: 400},
	}
	testDB.Create(&items)
	order.Items = items

	return returnService, user, order, testDB
}

func TestReturnService_RequestReturn_Success(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	request, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "fits too small")
	assert.NoError(t, err)
	assert.Equal(t, model.ReturnStatusPending, request.Status)
	assert.Equal(t, order.ID, request.OrderID)
	assert.Nil(t, request.OrderItemID)
	assert.Equal(t, order.Total, request.RefundAmount)
}

func TestReturnService_RequestReturn_LineTarget(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	lineID := order.Items[1].ID
	request, err := returnService.RequestReturn(user.ID, order.ID, &lineID, "color mismatch", "")
	require.NoError(t, err)
	require.NotNil(t, request.OrderItemID)
	assert.Equal(t, lineID, *request.OrderItemID)
	// Refund defaults to the targeted line's total, not the order total
	assert.Equal(t, order.Items[1].LineTotal, request.RefundAmount)
}

func TestReturnService_RequestReturn_ItemNotOnOrder(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	badID := uint(9999)
	_, err := returnService.RequestReturn(user.ID, order.ID, &badID, "wrong size", "")
	assert.ErrorIs(t, err, ErrReturnItemNotFound)
}

func TestReturnService_RequestReturn_OrderNotFound(t *testing.T) {
	returnService, user, _, _ := setupReturnServiceTest(t)

	_, err := returnService.RequestReturn(user.ID, 9999, nil, "wrong size", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReturnService_RequestReturn_WrongUser(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	_, err := returnService.RequestReturn(user.ID+1, order.ID, nil, "wrong size", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReturnService_RequestReturn_NotDelivered(t *testing.T) {
	returnService, user, order, testDB := setupReturnServiceTest(t)

	testDB.Model(&model.Order{}).Where("id = ?", order.ID).
		Update("status", model.OrderStatusShipped)

	_, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	assert.ErrorIs(t, err, ErrReturnNotDelivered)
}

func TestReturnService_RequestReturn_OpenReturnBlocksSecond(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	_, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	_, err = returnService.RequestReturn(user.ID, order.ID, nil, "changed my mind", "")
	assert.ErrorIs(t, err, ErrReturnAlreadyRequested)
}

func TestReturnService_RequestReturn_DuplicatePerLine(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	firstLine := order.Items[0].ID
	secondLine := order.Items[1].ID

	_, err := returnService.RequestReturn(user.ID, order.ID, &firstLine, "wrong size", "")
	require.NoError(t, err)

	// Same line again is a duplicate; a different line is a fresh target
	_, err = returnService.RequestReturn(user.ID, order.ID, &firstLine, "wrong size", "")
	assert.ErrorIs(t, err, ErrReturnAlreadyRequested)

	_, err = returnService.RequestReturn(user.ID, order.ID, &secondLine, "damaged", "")
	assert.NoError(t, err)
}

func TestReturnService_RequestReturn_RejectedFreesOrder(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	first, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	_, err = returnService.UpdateReturnStatus(first.ID, model.ReturnStatusRejected, "", nil)
	require.NoError(t, err)

	// A rejected return no longer blocks a new attempt
	second, err := returnService.RequestReturn(user.ID, order.ID, nil, "damaged", "")
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestReturnService_GetUserReturns(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	_, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	requests, err := returnService.GetUserReturns(user.ID)
	assert.NoError(t, err)
	assert.Len(t, requests, 1)

	requests, err = returnService.GetUserReturns(9999)
	assert.NoError(t, err)
	assert.Len(t, requests, 0)
}

func TestReturnService_GetReturnByID_WrongUser(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	request, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	_, err = returnService.GetReturnByID(user.ID+1, request.ID)
	assert.ErrorIs(t, err, ErrReturnNotFound)
}

func TestReturnService_UpdateReturnStatus_Lifecycle(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	request, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	// Skipping approved is not allowed
	_, err = returnService.UpdateReturnStatus(request.ID, model.ReturnStatusCompleted, "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := returnService.UpdateReturnStatus(request.ID, model.ReturnStatusApproved, "inspected at warehouse", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusApproved, updated.Status)
	assert.Equal(t, "inspected at warehouse", updated.AdminNotes)

	updated, err = returnService.UpdateReturnStatus(request.ID, model.ReturnStatusCompleted, "", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusCompleted, updated.Status)
	assert.Equal(t, "inspected at warehouse", updated.AdminNotes)
}

func TestReturnService_UpdateReturnStatus_RefundAmountOverride(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	request, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)
	assert.Equal(t, order.Total, request.RefundAmount)

	// Partial refund agreed with the customer
	partial := 750.0
	updated, err := returnService.UpdateReturnStatus(request.ID, model.ReturnStatusApproved, "", &partial)
	require.NoError(t, err)
	assert.Equal(t, partial, updated.RefundAmount)
}

func TestReturnService_UpdateReturnStatus_RefundFlipsOrder(t *testing.T) {
	returnService, user, order, testDB := setupReturnServiceTest(t)

	request, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	_, err = returnService.UpdateReturnStatus(request.ID, model.ReturnStatusApproved, "", nil)
	require.NoError(t, err)
	_, err = returnService.UpdateReturnStatus(request.ID, model.ReturnStatusCompleted, "", nil)
	require.NoError(t, err)

	updated, err := returnService.UpdateReturnStatus(request.ID, model.ReturnStatusRefunded, "", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusRefunded, updated.Status)

	// The parent order moved with the return
	var refreshed model.Order
	testDB.First(&refreshed, order.ID)
	assert.Equal(t, model.OrderStatusRefunded, refreshed.Status)
	assert.Equal(t, model.PaymentStatusRefunded, refreshed.PaymentStatus)
}

func TestReturnService_UpdateReturnStatus_RefundRequiresPaid(t *testing.T) {
	returnService, user, order, testDB := setupReturnServiceTest(t)

	// A COD order that was never marked paid cannot be refunded
	testDB.Model(&model.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"payment_method": model.PaymentMethodCOD,
			"payment_status": model.PaymentStatusPending,
		})

	request, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	_, err = returnService.UpdateReturnStatus(request.ID, model.ReturnStatusApproved, "", nil)
	require.NoError(t, err)
	_, err = returnService.UpdateReturnStatus(request.ID, model.ReturnStatusCompleted, "", nil)
	require.NoError(t, err)

	_, err = returnService.UpdateReturnStatus(request.ID, model.ReturnStatusRefunded, "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReturnService_UpdateReturnStatus_InvalidStatus(t *testing.T) {
	returnService, user, order, _ := setupReturnServiceTest(t)

	request, err := returnService.RequestReturn(user.ID, order.ID, nil, "wrong size", "")
	require.NoError(t, err)

	_, err = returnService.UpdateReturnStatus(request.ID, "vaporized", "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = returnService.UpdateReturnStatus(9999, model.ReturnStatusApproved, "", nil)
	assert.ErrorIs(t, err, ErrReturnNotFound)
}
