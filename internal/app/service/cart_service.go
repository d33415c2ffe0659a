package service

import (
	"errors"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

type CartService interface {
	GetUserCart(userID uint) ([]model.CartItem, float64, error)
	AddToCart(userID, productID uint, size, color string, quantity int) (*model.CartItem, error)
	UpdateQuantity(userID, cartItemID uint, quantity int) error
	RemoveFromCart(userID, cartItemID uint) error
	ClearCart(userID uint) error
	VariantUnitPrice(productID uint, size, color string) (float64, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	variantRepo repository.ProductVariantRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.ProductVariantRepository,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

func (s *cartService) GetUserCart(userID uint) ([]model.CartItem, float64, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, err
	}

	var subtotal float64
	for _, item := range cartItems {
		subtotal += item.LineTotal()
	}

	logger.Info("User cart fetched successfully", map[string]interface{}{
		"user_id":  userID,
		"count":    len(cartItems),
		"subtotal": subtotal,
	})
	return cartItems, subtotal, nil
}

// AddToCart merges quantity into an existing line with the same
// (product, size, color) identity, or creates a new line. The unit price
// is snapshotted from the variant, falling back to the product's
// discounted price.
func (s *cartService) AddToCart(userID, productID uint, size, color string, quantity int) (*model.CartItem, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"size":       size,
		"color":      color,
		"quantity":   quantity,
	})

	if quantity <= 0 {
		logger.Warn("Add to cart failed: invalid quantity", map[string]interface{}{
			"user_id":  userID,
			"quantity": quantity,
		})
		return nil, ErrInvalidQuantity
	}

	variant, unitPrice, err := s.resolveVariant(productID, size, color)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindByIdentity(userID, productID, size, color)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing cart line", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	wanted := quantity
	if existing != nil {
		wanted += existing.Quantity
	}
	if variant.Stock < wanted {
		logger.Warn("Add to cart failed: insufficient stock", map[string]interface{}{
			"user_id":    userID,
			"variant_id": variant.ID,
			"requested":  wanted,
			"available":  variant.Stock,
		})
		return nil, ErrInsufficientStock
	}

	if existing != nil {
		existing.Quantity = wanted
		existing.UnitPrice = unitPrice
		if err := s.cartRepo.Update(existing); err != nil {
			return nil, err
		}
		logger.Info("Cart line merged", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": existing.ID,
			"quantity":     existing.Quantity,
		})
		return existing, nil
	}

	item := &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Color:     color,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}

	logger.Info("Cart line created", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return item, nil
}

// resolveVariant loads an active product/variant pair and the unit price
// a cart line snapshots: the product's effective price, overridden by a
// positive variant price.
func (s *cartService) resolveVariant(productID uint, size, color string) (*model.ProductVariant, float64, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for cart", map[string]interface{}{
				"product_id": productID,
			})
			return nil, 0, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for cart", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, 0, err
	}
	if !product.IsActive {
		logger.Warn("Product inactive for cart", map[string]interface{}{
			"product_id": productID,
		})
		return nil, 0, ErrProductNotFound
	}

	unitPrice := product.EffectivePrice()
	variant, err := s.variantRepo.FindByIdentity(productID, size, color)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to fetch variant for cart", err, map[string]interface{}{
				"product_id": productID,
			})
			return nil, 0, err
		}
		logger.Warn("Variant not found for cart", map[string]interface{}{
			"product_id": productID,
			"size":       size,
			"color":      color,
		})
		return nil, 0, ErrVariantNotFound
	}
	if !variant.IsActive {
		return nil, 0, ErrVariantNotFound
	}
	if variant.Price > 0 {
		unitPrice = variant.Price
	}
	return variant, unitPrice, nil
}

// VariantUnitPrice resolves the price a cart line for this variant would
// snapshot right now. Guest carts use it to freeze the price at add time.
func (s *cartService) VariantUnitPrice(productID uint, size, color string) (float64, error) {
	_, unitPrice, err := s.resolveVariant(productID, size, color)
	return unitPrice, err
}

// UpdateQuantity sets the quantity of a cart line. A non-positive
// quantity removes the line.
func (s *cartService) UpdateQuantity(userID, cartItemID uint, quantity int) error {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})

	item, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found for update", map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": cartItemID,
			})
			return ErrCartItemNotFound
		}
		logger.Error("Failed to fetch cart item for update", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return err
	}

	if item.UserID != userID {
		logger.Warn("Cart item update denied: ownership mismatch", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
			"owner_id":     item.UserID,
		})
		return ErrCartItemNotFound
	}

	if quantity <= 0 {
		if err := s.cartRepo.Delete(item.ID); err != nil {
			return err
		}
		logger.Info("Cart line removed via zero quantity", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return nil
	}

	variant, err := s.variantRepo.FindByIdentity(item.ProductID, item.Size, item.Color)
	if err == nil && variant.Stock < quantity {
		logger.Warn("Cart update failed: insufficient stock", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
			"requested":    quantity,
			"available":    variant.Stock,
		})
		return ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := s.cartRepo.Update(item); err != nil {
		return err
	}

	logger.Info("Cart item quantity updated", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})
	return nil
}

func (s *cartService) RemoveFromCart(userID, cartItemID uint) error {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})

	item, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found for removal", map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": cartItemID,
			})
			return ErrCartItemNotFound
		}
		logger.Error("Failed to fetch cart item for removal", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return err
	}

	if item.UserID != userID {
		logger.Warn("Cart item removal denied: ownership mismatch", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
			"owner_id":     item.UserID,
		})
		return ErrCartItemNotFound
	}

	if err := s.cartRepo.Delete(item.ID); err != nil {
		return err
	}

	logger.Info("Item removed from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})
	return nil
}

func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	if err := s.cartRepo.DeleteByUserID(userID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
