package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/veloura/veloura-backend/internal/app/guest"
	"github.com/veloura/veloura-backend/internal/app/service"
	apperrors "github.com/veloura/veloura-backend/internal/errors"
	"github.com/veloura/veloura-backend/internal/middleware"
)

// WishlistController serves signed-in wishlists from the database and
// guest wishlists from the redis session store.
type WishlistController struct {
	wishlistService service.WishlistService
	guestStore      *guest.Store
}

func NewWishlistController(wishlistService service.WishlistService, guestStore *guest.Store) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
		guestStore:      guestStore,
	}
}

type AddToWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetWishlist returns the wishlist for the current user or guest session
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if userID, exists := middleware.GetUserID(c); exists {
		items, err := ctrl.wishlistService.GetUserWishlist(userID)
		if err != nil {
			log.Error("Failed to fetch wishlist", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "Failed to fetch wishlist")
			return
		}

		log.Info("Wishlist fetched successfully", map[string]interface{}{
			"user_id": userID,
			"count":   len(items),
		})

		c.JSON(http.StatusOK, gin.H{
			"wishlist_items": items,
			"count":          len(items),
		})
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{
			"product_ids": []uint{},
			"count":       0,
		})
		return
	}

	session, err := ctrl.guestStore.Load(c.Request.Context(), token)
	if err != nil {
		log.Error("Failed to load guest wishlist", err, map[string]interface{}{
			"token": token,
		})
		apperrors.InternalError(c, "Failed to fetch wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_ids": session.Wishlist,
		"count":       len(session.Wishlist),
		"guest_token": token,
	})
}

// AddToWishlist adds a product; re-adding is a no-op
// POST /api/v1/wishlist
func (ctrl *WishlistController) AddToWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to wishlist request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid wishlist details")
		return
	}

	if userID, exists := middleware.GetUserID(c); exists {
		item, err := ctrl.wishlistService.AddToWishlist(userID, req.ProductID)
		if err != nil {
			if errors.Is(err, service.ErrProductNotFound) {
				log.Warn("Product not found for wishlist", map[string]interface{}{
					"user_id":    userID,
					"product_id": req.ProductID,
				})
				apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
				return
			}
			log.Error("Failed to add to wishlist", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
			})
			apperrors.InternalError(c, "Failed to add to wishlist")
			return
		}

		log.Info("Product added to wishlist", map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
		})

		c.JSON(http.StatusCreated, gin.H{
			"message":       "Product added to wishlist",
			"wishlist_item": item,
		})
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		token = ctrl.guestStore.NewToken()
	}

	session, err := ctrl.guestStore.AddWishlistItem(c.Request.Context(), token, req.ProductID)
	if err != nil {
		log.Error("Failed to add to guest wishlist", err, map[string]interface{}{
			"token":      token,
			"product_id": req.ProductID,
		})
		apperrors.InternalError(c, "Failed to add to wishlist")
		return
	}

	log.Info("Product added to guest wishlist", map[string]interface{}{
		"token":      token,
		"product_id": req.ProductID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Product added to wishlist",
		"product_ids": session.Wishlist,
		"guest_token": token,
	})
}

// RemoveFromWishlist drops a product from the wishlist
// DELETE /api/v1/wishlist/:product_id
func (ctrl *WishlistController) RemoveFromWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("product_id")
	productID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	if userID, exists := middleware.GetUserID(c); exists {
		err = ctrl.wishlistService.RemoveFromWishlist(userID, uint(productID))
		if err != nil {
			if errors.Is(err, service.ErrWishlistItemNotFound) {
				log.Warn("Wishlist item not found for removal", map[string]interface{}{
					"user_id":    userID,
					"product_id": productID,
				})
				apperrors.NotFound(c, apperrors.ResourceNotFound, "Wishlist item not found")
				return
			}
			log.Error("Failed to remove from wishlist", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			apperrors.InternalError(c, "Failed to remove from wishlist")
			return
		}

		log.Info("Product removed from wishlist", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})

		c.JSON(http.StatusOK, gin.H{
			"message": "Product removed from wishlist",
		})
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		log.Warn("Wishlist removal without session", nil)
		apperrors.Unauthorized(c, "A guest token or login is required")
		return
	}

	session, err := ctrl.guestStore.RemoveWishlistItem(c.Request.Context(), token, uint(productID))
	if err != nil {
		log.Error("Failed to remove from guest wishlist", err, map[string]interface{}{
			"token":      token,
			"product_id": productID,
		})
		apperrors.InternalError(c, "Failed to remove from wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Product removed from wishlist",
		"product_ids": session.Wishlist,
		"guest_token": token,
	})
}
