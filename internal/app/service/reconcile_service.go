package service

import (
	"context"
	"errors"

	"github.com/veloura/veloura-backend/internal/app/guest"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

// MergeResult summarizes what a guest session merge did.
type MergeResult struct {
	CartAdded       int `json:"cart_added"`
	CartMerged      int `json:"cart_merged"`
	CartSkipped     int `json:"cart_skipped"`
	WishlistAdded   int `json:"wishlist_added"`
	WishlistSkipped int `json:"wishlist_skipped"`
}

// ReconcileService folds a guest session into a signed-in account.
// Cart lines merge by presence: a line the account already holds gets the
// guest quantity added on top, an absent line is inserted carrying the
// price snapshotted when the guest added it. Wishlists take the set
// union. The guest session is deleted once the merge lands so a re-run
// starts from an empty session.
type ReconcileService interface {
	MergeGuestSession(ctx context.Context, userID uint, token string) (*MergeResult, error)
}

type reconcileService struct {
	store        *guest.Store
	cartRepo     repository.CartRepository
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	variantRepo  repository.ProductVariantRepository
}

func NewReconcileService(
	store *guest.Store,
	cartRepo repository.CartRepository,
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.ProductVariantRepository,
) ReconcileService {
	return &reconcileService{
		store:        store,
		cartRepo:     cartRepo,
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		variantRepo:  variantRepo,
	}
}

func (s *reconcileService) MergeGuestSession(ctx context.Context, userID uint, token string) (*MergeResult, error) {
	logger.Info("Merging guest session into account", map[string]interface{}{
		"user_id": userID,
		"token":   token,
	})

	session, err := s.store.Load(ctx, token)
	if err != nil {
		logger.Error("Failed to load guest session for merge", err, map[string]interface{}{
			"user_id": userID,
			"token":   token,
		})
		return nil, err
	}

	result := &MergeResult{}

	for _, line := range session.Cart {
		if line.Quantity <= 0 {
			result.CartSkipped++
			continue
		}

		existing, err := s.cartRepo.FindByIdentity(userID, line.ProductID, line.Size, line.Color)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to check account cart during merge", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": line.ProductID,
			})
			return nil, err
		}
		product, err := s.productRepo.FindByID(line.ProductID)
		if err != nil || !product.IsActive {
			logger.Warn("Skipping guest cart line: product unavailable", map[string]interface{}{
				"user_id":    userID,
				"product_id": line.ProductID,
			})
			result.CartSkipped++
			continue
		}

		variant, err := s.variantRepo.FindByIdentity(line.ProductID, line.Size, line.Color)
		if err != nil || !variant.IsActive {
			logger.Warn("Skipping guest cart line: variant unavailable", map[string]interface{}{
				"user_id":    userID,
				"product_id": line.ProductID,
				"size":       line.Size,
				"color":      line.Color,
			})
			result.CartSkipped++
			continue
		}

		// Prefer the price frozen at guest add time; sessions written
		// before the snapshot existed fall back to the current price
		unitPrice := line.UnitPrice
		if unitPrice <= 0 {
			unitPrice = product.EffectivePrice()
			if variant.Price > 0 {
				unitPrice = variant.Price
			}
		}

		if existing != nil {
			// Merge, not replace: items added on another device survive
			quantity := existing.Quantity + line.Quantity
			if variant.Stock < quantity {
				quantity = variant.Stock
			}
			existing.Quantity = quantity
			if err := s.cartRepo.Update(existing); err != nil {
				logger.Error("Failed to merge quantities into account cart line", err, map[string]interface{}{
					"user_id":      userID,
					"cart_item_id": existing.ID,
				})
				return nil, err
			}
			result.CartMerged++
			continue
		}

		quantity := line.Quantity
		if variant.Stock < quantity {
			quantity = variant.Stock
		}
		if quantity <= 0 {
			result.CartSkipped++
			continue
		}

		item := &model.CartItem{
			UserID:    userID,
			ProductID: line.ProductID,
			Size:      line.Size,
			Color:     line.Color,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
		if err := s.cartRepo.Create(item); err != nil {
			logger.Error("Failed to create cart line during merge", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": line.ProductID,
			})
			return nil, err
		}
		result.CartAdded++
	}

	for _, productID := range session.Wishlist {
		existing, err := s.wishlistRepo.FindByUserAndProduct(userID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to check account wishlist during merge", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, err
		}
		if existing != nil {
			result.WishlistSkipped++
			continue
		}

		if _, err := s.productRepo.FindByID(productID); err != nil {
			logger.Warn("Skipping guest wishlist entry: product unavailable", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			result.WishlistSkipped++
			continue
		}

		if err := s.wishlistRepo.Create(&model.WishlistItem{
			UserID:    userID,
			ProductID: productID,
		}); err != nil {
			logger.Error("Failed to create wishlist entry during merge", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, err
		}
		result.WishlistAdded++
	}

	// The session must be gone before the client can retry, otherwise a
	// second merge would double every quantity
	if err := s.store.Delete(ctx, token); err != nil {
		logger.Error("Failed to delete guest session after merge", err, map[string]interface{}{
			"user_id": userID,
			"token":   token,
		})
		return nil, err
	}

	logger.Info("Guest session merged successfully", map[string]interface{}{
		"user_id":          userID,
		"cart_added":       result.CartAdded,
		"cart_merged":      result.CartMerged,
		"cart_skipped":     result.CartSkipped,
		"wishlist_added":   result.WishlistAdded,
		"wishlist_skipped": result.WishlistSkipped,
	})
	return result, nil
}
