package service

import (
	"errors"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
)

type WishlistService interface {
	GetUserWishlist(userID uint) ([]model.WishlistItem, error)
	AddToWishlist(userID, productID uint) (*model.WishlistItem, error)
	RemoveFromWishlist(userID, productID uint) error
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistService) GetUserWishlist(userID uint) ([]model.WishlistItem, error) {
	logger.Debug("Fetching user wishlist", map[string]interface{}{
		"user_id": userID,
	})

	items, err := s.wishlistRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user wishlist", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User wishlist fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})
	return items, nil
}

// AddToWishlist saves a product for the user. Re-adding an already saved
// product returns the existing entry unchanged.
func (s *wishlistService) AddToWishlist(userID, productID uint) (*model.WishlistItem, error) {
	logger.Info("Adding product to wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Add to wishlist failed: product not found", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for wishlist", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	existing, err := s.wishlistRepo.FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing wishlist item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}
	if existing != nil {
		logger.Debug("Product already in wishlist", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return existing, nil
	}

	item := &model.WishlistItem{
		UserID:    userID,
		ProductID: productID,
	}
	if err := s.wishlistRepo.Create(item); err != nil {
		return nil, err
	}

	logger.Info("Product added to wishlist", map[string]interface{}{
		"user_id":          userID,
		"product_id":       productID,
		"wishlist_item_id": item.ID,
	})
	return item, nil
}

func (s *wishlistService) RemoveFromWishlist(userID, productID uint) error {
	logger.Info("Removing product from wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if _, err := s.wishlistRepo.FindByUserAndProduct(userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Wishlist item not found for removal", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return ErrWishlistItemNotFound
		}
		logger.Error("Failed to check wishlist item for removal", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}

	if err := s.wishlistRepo.Delete(userID, productID); err != nil {
		return err
	}

	logger.Info("Product removed from wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}
