package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/veloura/veloura-backend/config"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"github.com/veloura/veloura-backend/pkg/redis"
	"github.com/veloura/veloura-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrDuplicateCheckout    = errors.New("checkout already in progress for this key")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

type CheckoutInput struct {
	AddressID      uint
	PaymentMethod  model.PaymentMethod
	IdempotencyKey string
}

type OrderService interface {
	Checkout(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	CancelOrder(userID, orderID uint) (*model.Order, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	addressRepo repository.AddressRepository
	guard       *redis.Guard
	checkout    config.CheckoutConfig
	db          *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	addressRepo repository.AddressRepository,
	guard *redis.Guard,
	checkout config.CheckoutConfig,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		guard:       guard,
		checkout:    checkout,
		db:          db,
	}
}

// shippingFee follows the storefront rule: cash on delivery always pays
// the flat fee, prepaid orders ship free above the threshold.
func (s *orderService) shippingFee(subtotal float64, method model.PaymentMethod) float64 {
	if method == model.PaymentMethodCOD {
		return s.checkout.FlatShippingFee
	}
	if subtotal > s.checkout.FreeShippingThreshold {
		return 0
	}
	return s.checkout.FlatShippingFee
}

// Checkout turns the user's cart into an order. Stock is locked and
// decremented, the order with its line items is created, and the cart is
// cleared, all inside one transaction. An idempotency key reserves a
// Redis slot first so a double submit gets rejected instead of producing
// two orders.
func (s *orderService) Checkout(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"user_id":        userID,
		"address_id":     input.AddressID,
		"payment_method": input.PaymentMethod,
	})

	if input.PaymentMethod != model.PaymentMethodPrepaid && input.PaymentMethod != model.PaymentMethodCOD {
		logger.Warn("Checkout failed: invalid payment method", map[string]interface{}{
			"user_id":        userID,
			"payment_method": input.PaymentMethod,
		})
		return nil, ErrInvalidPaymentMethod
	}

	reserved := false
	if s.guard != nil && input.IdempotencyKey != "" {
		ok, err := s.guard.Reserve(ctx, userID, input.IdempotencyKey, s.checkout.IdempotencyKeyTTL)
		if err != nil {
			// Redis being down must not block checkout
			logger.Warn("Idempotency reservation unavailable, proceeding without it", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		} else if !ok {
			logger.Warn("Checkout rejected: duplicate idempotency key", map[string]interface{}{
				"user_id": userID,
				"key":     input.IdempotencyKey,
			})
			return nil, ErrDuplicateCheckout
		} else {
			reserved = true
		}
	}

	release := func() {
		if reserved {
			if err := s.guard.Release(ctx, userID, input.IdempotencyKey); err != nil {
				logger.Warn("Failed to release idempotency key", map[string]interface{}{
					"user_id": userID,
					"key":     input.IdempotencyKey,
				})
			}
		}
	}

	address, err := s.addressRepo.FindByID(input.AddressID)
	if err != nil {
		release()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout failed: address not found", map[string]interface{}{
				"user_id":    userID,
				"address_id": input.AddressID,
			})
			return nil, ErrAddressNotFound
		}
		logger.Error("Failed to fetch address for checkout", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": input.AddressID,
		})
		return nil, err
	}
	if address.UserID != userID {
		release()
		logger.Warn("Checkout denied: address ownership mismatch", map[string]interface{}{
			"user_id":    userID,
			"address_id": input.AddressID,
			"owner_id":   address.UserID,
		})
		return nil, ErrAddressNotFound
	}

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		release()
		logger.Error("Failed to fetch cart items for checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	// Drop malformed lines instead of failing the whole checkout
	valid := cartItems[:0]
	for _, item := range cartItems {
		if item.Quantity <= 0 || item.UnitPrice <= 0 || math.IsNaN(item.UnitPrice) {
			logger.Warn("Skipping malformed cart line during checkout", map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": item.ID,
				"quantity":     item.Quantity,
				"unit_price":   item.UnitPrice,
			})
			continue
		}
		valid = append(valid, item)
	}
	cartItems = valid

	if len(cartItems) == 0 {
		release()
		logger.Warn("Checkout failed: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			release()
			logger.Error("Panic during checkout, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	var (
		subtotal   float64
		itemsCount int
		orderItems []model.OrderItem
	)

	for _, cartItem := range cartItems {
		var variant model.ProductVariant
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND size = ? AND color = ?",
				cartItem.ProductID, cartItem.Size, cartItem.Color).
			First(&variant).Error; err != nil {
			tx.Rollback()
			release()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Variant not found during checkout", map[string]interface{}{
					"user_id":    userID,
					"product_id": cartItem.ProductID,
					"size":       cartItem.Size,
					"color":      cartItem.Color,
				})
				return nil, ErrVariantNotFound
			}
			logger.Error("Failed to fetch variant during checkout", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": cartItem.ProductID,
			})
			return nil, err
		}

		if variant.Stock < cartItem.Quantity {
			tx.Rollback()
			release()
			logger.Warn("Checkout failed: insufficient stock", map[string]interface{}{
				"user_id":    userID,
				"variant_id": variant.ID,
				"requested":  cartItem.Quantity,
				"available":  variant.Stock,
			})
			return nil, ErrInsufficientStock
		}

		if err := tx.Model(&model.ProductVariant{}).
			Where("id = ?", variant.ID).
			Update("stock", gorm.Expr("stock - ?", cartItem.Quantity)).Error; err != nil {
			tx.Rollback()
			release()
			logger.Error("Failed to decrement variant stock", err, map[string]interface{}{
				"user_id":    userID,
				"variant_id": variant.ID,
			})
			return nil, err
		}

		productName := ""
		image := variant.Image
		if cartItem.Product != nil {
			productName = cartItem.Product.Name
			if image == "" && len(cartItem.Product.Images) > 0 {
				image = cartItem.Product.Images[0]
			}
		}

		lineTotal := cartItem.UnitPrice * float64(cartItem.Quantity)
		orderItems = append(orderItems, model.OrderItem{
			ProductID:   cartItem.ProductID,
			ProductName: productName,
			Image:       image,
			Size:        cartItem.Size,
			Color:       cartItem.Color,
			Quantity:    cartItem.Quantity,
			UnitPrice:   cartItem.UnitPrice,
			LineTotal:   lineTotal,
		})
		subtotal += lineTotal
		itemsCount += cartItem.Quantity
	}

	shippingFee := s.shippingFee(subtotal, input.PaymentMethod)

	paymentStatus := model.PaymentStatusPending
	if input.PaymentMethod == model.PaymentMethodPrepaid {
		paymentStatus = model.PaymentStatusPaid
	}

	order := &model.Order{
		OrderNumber:   util.GenerateOrderNumber(),
		UserID:        userID,
		AddressID:     address.ID,
		Subtotal:      subtotal,
		ShippingFee:   shippingFee,
		Total:         subtotal + shippingFee,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: paymentStatus,
		Status:        model.OrderStatusPending,
		ItemsCount:    itemsCount,
		Items:         orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		release()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
			"total":   order.Total,
		})
		return nil, err
	}

	if err := tx.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		release()
		logger.Error("Failed to clear cart after order creation", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		release()
		logger.Error("Failed to commit checkout transaction", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	logger.Info("Order created successfully", map[string]interface{}{
		"user_id":        userID,
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"subtotal":       subtotal,
		"shipping_fee":   shippingFee,
		"total":          order.Total,
		"item_count":     len(orderItems),
		"payment_method": input.PaymentMethod,
	})

	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User orders fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	logger.Debug("Fetching order by ID", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}

	logger.Debug("Order fetched successfully", map[string]interface{}{
		"user_id":        userID,
		"order_id":       orderID,
		"order_status":   order.Status,
		"payment_status": order.PaymentStatus,
	})
	return order, nil
}

// CancelOrder cancels a customer's own order while it is still before
// delivery.
func (s *orderService) CancelOrder(userID, orderID uint) (*model.Order, error) {
	logger.Info("Cancelling order", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.GetOrderByID(userID, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(model.OrderStatusCancelled) {
		logger.Warn("Order cancellation rejected", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"status":   order.Status,
		})
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdateStatus(orderID, model.OrderStatusCancelled); err != nil {
		logger.Error("Failed to cancel order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	logger.Info("Order cancelled successfully", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})
	return s.orderRepo.FindByID(orderID)
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id":   orderID,
		"new_status": status,
	})

	if !model.ValidOrderStatus(status) {
		return nil, ErrInvalidTransition
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found for status update", map[string]interface{}{
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		logger.Warn("Order status transition rejected", map[string]interface{}{
			"order_id":   orderID,
			"from":       order.Status,
			"new_status": status,
		})
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		logger.Error("Failed to update order status", err, map[string]interface{}{
			"order_id":   orderID,
			"new_status": status,
		})
		return nil, err
	}

	logger.Info("Order status updated successfully", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return s.orderRepo.FindByID(orderID)
}

func (s *orderService) UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error) {
	logger.Info("Updating payment status", map[string]interface{}{
		"order_id":   orderID,
		"new_status": status,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found for payment status update", map[string]interface{}{
				"order_id": orderID,
			})
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.PaymentStatus.CanTransitionTo(status) {
		logger.Warn("Payment status transition rejected", map[string]interface{}{
			"order_id":   orderID,
			"from":       order.PaymentStatus,
			"new_status": status,
		})
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdatePaymentStatus(orderID, status); err != nil {
		logger.Error("Failed to update payment status", err, map[string]interface{}{
			"order_id":   orderID,
			"new_status": status,
		})
		return nil, err
	}

	logger.Info("Payment status updated successfully", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return s.orderRepo.FindByID(orderID)
}
