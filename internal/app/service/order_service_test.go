package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloura/veloura-backend/config"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/internal/db"
	"gorm.io/gorm"
)

type orderTestFixtures struct {
	user    *model.User
	address *model.Address
	product *model.Product
	variant *model.ProductVariant
}

func setupOrderServiceTest(t *testing.T) (OrderService, orderTestFixtures, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	orderRepo := repository.NewOrderRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)

	checkoutCfg := config.CheckoutConfig{
		FlatShippingFee:       50,
		FreeShippingThreshold: 1500,
	}
	orderService := NewOrderService(orderRepo, cartRepo, addressRepo, nil, checkoutCfg, testDB)

	user := &model.User{
		Email:    "buyer@example.com",
		Password: "hash",
		Name:     "Buyer",
		Role:     model.UserRoleCustomer,
	}
	testDB.Create(user)

	address := &model.Address{
		UserID:        user.ID,
		Name:          "Buyer",
		Phone:         "9876543210",
		StreetAddress: "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		PostalCode:    "560001",
		Country:       "India",
	}
	testDB.Create(address)

	product := &model.Product{
		Name:      "Silk Slip Dress",
		Category:  "dresses",
		BasePrice: 1000,
		IsActive:  true,
	}
	testDB.Create(product)

	variant := &model.ProductVariant{
		ProductID: product.ID,
		Size:      "M",
		Color:     "Black",
		Stock:     10,
		IsActive:  true,
	}
	testDB.Create(variant)

	return orderService, orderTestFixtures{user, address, product, variant}, testDB
}

func addCartLine(t *testing.T, testDB *gorm.DB, f orderTestFixtures, qty int, price float64) {
	t.Helper()
	item := &model.CartItem{
		UserID:    f.user.ID,
		ProductID: f.product.ID,
		Size:      f.variant.Size,
		Color:     f.variant.Color,
		Quantity:  qty,
		UnitPrice: price,
	}
	require.NoError(t, testDB.Create(item).Error)
}

func TestOrderService_Checkout_Success(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 2, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 2000.0, order.Subtotal)
	assert.Equal(t, 0.0, order.ShippingFee)
	assert.Equal(t, 2000.0, order.Total)
	assert.Equal(t, 2, order.ItemsCount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Silk Slip Dress", order.Items[0].ProductName)

	// Stock decremented
	var variant model.ProductVariant
	testDB.First(&variant, f.variant.ID)
	assert.Equal(t, 8, variant.Stock)

	// Cart cleared
	var count int64
	testDB.Model(&model.CartItem{}).Where("user_id = ?", f.user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestOrderService_Checkout_PrepaidMarkedPaid(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
}

func TestOrderService_Checkout_CODStaysPending(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
}

func TestOrderService_Checkout_ShippingFee(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		price    float64
		method   model.PaymentMethod
		expected float64
	}{
		{"prepaid below threshold pays flat fee", 1, 1000, model.PaymentMethodPrepaid, 50},
		{"prepaid at threshold pays flat fee", 1, 1500, model.PaymentMethodPrepaid, 50},
		{"prepaid above threshold ships free", 2, 1000, model.PaymentMethodPrepaid, 0},
		{"cod always pays flat fee", 2, 1000, model.PaymentMethodCOD, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderService, f, testDB := setupOrderServiceTest(t)
			addCartLine(t, testDB, f, tt.qty, tt.price)

			order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
				AddressID:     f.address.ID,
				PaymentMethod: tt.method,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, order.ShippingFee)
			assert.Equal(t, order.Subtotal+tt.expected, order.Total)
		})
	}
}

func TestOrderService_Checkout_InvalidPaymentMethod(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	_, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: "crypto",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	orderService, f, _ := setupOrderServiceTest(t)

	_, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_Checkout_AddressNotFound(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	_, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     9999,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestOrderService_Checkout_ForeignAddressRejected(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	other := &model.User{Email: "other@example.com", Password: "hash", Name: "Other", Role: model.UserRoleCustomer}
	testDB.Create(other)
	foreign := &model.Address{
		UserID:        other.ID,
		Name:          "Other",
		Phone:         "1",
		StreetAddress: "x",
		City:          "y",
		State:         "z",
		PostalCode:    "0",
	}
	testDB.Create(foreign)

	_, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     foreign.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestOrderService_Checkout_InsufficientStock(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 20, 1000)

	_, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Stock is untouched on failure
	var variant model.ProductVariant
	testDB.First(&variant, f.variant.ID)
	assert.Equal(t, 10, variant.Stock)
}

func TestOrderService_Checkout_SkipsMalformedLines(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	// Corrupt zero-quantity and zero-price lines must not fail the
	// checkout or leak into the order
	require.NoError(t, testDB.Exec(
		"INSERT INTO cart_items (user_id, product_id, size, color, quantity, unit_price, created_at, updated_at) VALUES (?, ?, ?, ?, 0, 500, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		f.user.ID, f.product.ID, "L", "Black").Error)
	require.NoError(t, testDB.Exec(
		"INSERT INTO cart_items (user_id, product_id, size, color, quantity, unit_price, created_at, updated_at) VALUES (?, ?, ?, ?, 2, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		f.user.ID, f.product.ID, "XL", "Black").Error)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, order.Subtotal)
	assert.Equal(t, 1, order.ItemsCount)
	assert.Len(t, order.Items, 1)

	// The free line's stock was not decremented
	var variant model.ProductVariant
	testDB.First(&variant, f.variant.ID)
	assert.Equal(t, 9, variant.Stock)
}

func TestOrderService_GetUserOrders(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	_, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)

	orders, err := orderService.GetUserOrders(f.user.ID)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = orderService.GetUserOrders(9999)
	assert.NoError(t, err)
	assert.Len(t, orders, 0)
}

func TestOrderService_GetOrderByID_WrongUser(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)

	_, err = orderService.GetOrderByID(f.user.ID+1, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_CancelOrder(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)

	cancelled, err := orderService.CancelOrder(f.user.ID, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
}

func TestOrderService_CancelOrder_AfterDelivery(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)

	testDB.Model(&model.Order{}).Where("id = ?", order.ID).
		Update("status", model.OrderStatusDelivered)

	_, err = orderService.CancelOrder(f.user.ID, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodPrepaid,
	})
	require.NoError(t, err)

	updated, err := orderService.UpdateOrderStatus(order.ID, model.OrderStatusShipped)
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)

	// Backwards move is rejected
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Refunded is never reachable through a direct status update
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusRefunded)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = orderService.UpdateOrderStatus(9999, model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_UpdatePaymentStatus(t *testing.T) {
	orderService, f, testDB := setupOrderServiceTest(t)
	addCartLine(t, testDB, f, 1, 1000)

	order, err := orderService.Checkout(context.Background(), f.user.ID, CheckoutInput{
		AddressID:     f.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusPending, order.PaymentStatus)

	updated, err := orderService.UpdatePaymentStatus(order.ID, model.PaymentStatusPaid)
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)

	// Paid cannot go back to pending
	_, err = orderService.UpdatePaymentStatus(order.ID, model.PaymentStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
