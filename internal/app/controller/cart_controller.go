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

// CartController serves both signed-in carts (database-backed) and guest
// carts (redis-backed, addressed by the X-Guest-Token header). Signed-in
// mutations respond with the re-fetched server cart so the client always
// replaces its local state with the authoritative one.
type CartController struct {
	cartService      service.CartService
	reconcileService service.ReconcileService
	guestStore       *guest.Store
}

func NewCartController(
	cartService service.CartService,
	reconcileService service.ReconcileService,
	guestStore *guest.Store,
) *CartController {
	return &CartController{
		cartService:      cartService,
		reconcileService: reconcileService,
		guestStore:       guestStore,
	}
}

type AddToCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Color     string `json:"color" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// Quantity is a pointer so an explicit zero binds; zero and negative
// quantities remove the line.
type UpdateCartRequest struct {
	Quantity *int   `json:"quantity" binding:"required"`
	Size     string `json:"size"`
	Color    string `json:"color"`
}

type MergeCartRequest struct {
	GuestToken string `json:"guest_token"`
}

// respondWithUserCart re-fetches the full server cart and writes it out.
func (ctrl *CartController) respondWithUserCart(c *gin.Context, userID uint, status int, message string) {
	log := middleware.GetLoggerFromContext(c)

	items, subtotal, err := ctrl.cartService.GetUserCart(userID)
	if err != nil {
		log.Error("Failed to fetch cart after mutation", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch cart")
		return
	}

	payload := gin.H{
		"cart_items": items,
		"count":      len(items),
		"subtotal":   subtotal,
	}
	if message != "" {
		payload["message"] = message
	}
	c.JSON(status, payload)
}

func respondWithGuestCart(c *gin.Context, token string, session *guest.Session, status int, message string) {
	payload := gin.H{
		"cart_items":  session.Cart,
		"count":       len(session.Cart),
		"guest_token": token,
	}
	if message != "" {
		payload["message"] = message
	}
	c.JSON(status, payload)
}

// CreateGuestSession issues a guest token for an anonymous shopper
// POST /api/v1/guest/session
func (ctrl *CartController) CreateGuestSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token := ctrl.guestStore.NewToken()
	if err := ctrl.guestStore.Save(c.Request.Context(), token, &guest.Session{}); err != nil {
		log.Error("Failed to create guest session", err, nil)
		apperrors.InternalError(c, "Failed to create guest session")
		return
	}

	log.Info("Guest session created", map[string]interface{}{
		"token": token,
	})

	c.JSON(http.StatusCreated, gin.H{
		"guest_token": token,
	})
}

// GetCart returns the cart for the current user or guest session
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if userID, exists := middleware.GetUserID(c); exists {
		items, subtotal, err := ctrl.cartService.GetUserCart(userID)
		if err != nil {
			log.Error("Failed to fetch cart", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "Failed to fetch cart")
			return
		}

		log.Info("Cart fetched successfully", map[string]interface{}{
			"user_id":  userID,
			"count":    len(items),
			"subtotal": subtotal,
		})

		c.JSON(http.StatusOK, gin.H{
			"cart_items": items,
			"count":      len(items),
			"subtotal":   subtotal,
		})
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{
			"cart_items": []guest.CartItem{},
			"count":      0,
		})
		return
	}

	session, err := ctrl.guestStore.Load(c.Request.Context(), token)
	if err != nil {
		log.Error("Failed to load guest cart", err, map[string]interface{}{
			"token": token,
		})
		apperrors.InternalError(c, "Failed to fetch cart")
		return
	}

	respondWithGuestCart(c, token, session, http.StatusOK, "")
}

// AddToCart adds an item to the user or guest cart
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid cart item details")
		return
	}

	if userID, exists := middleware.GetUserID(c); exists {
		log.Debug("Adding item to cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
			"size":       req.Size,
			"color":      req.Color,
			"quantity":   req.Quantity,
		})

		_, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Size, req.Color, req.Quantity)
		if err != nil {
			if errors.Is(err, service.ErrProductNotFound) || errors.Is(err, service.ErrVariantNotFound) {
				log.Warn("Product not found for cart", map[string]interface{}{
					"user_id":    userID,
					"product_id": req.ProductID,
				})
				apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
				return
			}
			if errors.Is(err, service.ErrInsufficientStock) {
				log.Warn("Insufficient stock for cart item", map[string]interface{}{
					"user_id":    userID,
					"product_id": req.ProductID,
					"quantity":   req.Quantity,
				})
				apperrors.BadRequest(c, apperrors.CartInvalidQty, "Insufficient stock")
				return
			}
			if errors.Is(err, service.ErrInvalidQuantity) {
				apperrors.BadRequest(c, apperrors.CartInvalidQty, "Invalid quantity")
				return
			}
			log.Error("Failed to add item to cart", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
			})
			apperrors.InternalError(c, "Failed to add item to cart")
			return
		}

		log.Info("Item added to cart successfully", map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
		})

		ctrl.respondWithUserCart(c, userID, http.StatusCreated, "Item added to cart successfully")
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		token = ctrl.guestStore.NewToken()
	}

	// Snapshot the price now; the merge at login reuses it
	unitPrice, err := ctrl.cartService.VariantUnitPrice(req.ProductID, req.Size, req.Color)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) || errors.Is(err, service.ErrVariantNotFound) {
			log.Warn("Product not found for guest cart", map[string]interface{}{
				"token":      token,
				"product_id": req.ProductID,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to price guest cart line", err, map[string]interface{}{
			"token":      token,
			"product_id": req.ProductID,
		})
		apperrors.InternalError(c, "Failed to add item to cart")
		return
	}

	session, err := ctrl.guestStore.AddCartItem(c.Request.Context(), token, guest.CartItem{
		ProductID: req.ProductID,
		Size:      req.Size,
		Color:     req.Color,
		Quantity:  req.Quantity,
		UnitPrice: unitPrice,
	})
	if err != nil {
		log.Error("Failed to add item to guest cart", err, map[string]interface{}{
			"token":      token,
			"product_id": req.ProductID,
		})
		apperrors.InternalError(c, "Failed to add item to cart")
		return
	}

	log.Info("Item added to guest cart", map[string]interface{}{
		"token":      token,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})

	respondWithGuestCart(c, token, session, http.StatusCreated, "Item added to cart successfully")
}

// UpdateCartItem sets a line's quantity; a non-positive quantity removes
// the line. Signed-in carts address lines by cart item ID, guest carts by
// product ID with size and color in the body.
// PUT /api/v1/cart/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid cart item ID format", map[string]interface{}{
			"cart_item_id": idStr,
			"error":        err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid cart item ID")
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update cart request", map[string]interface{}{
			"cart_item_id": id,
			"error":        err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid cart item details")
		return
	}

	if userID, exists := middleware.GetUserID(c); exists {
		err = ctrl.cartService.UpdateQuantity(userID, uint(id), *req.Quantity)
		if err != nil {
			if errors.Is(err, service.ErrCartItemNotFound) {
				log.Warn("Cart item not found", map[string]interface{}{
					"user_id":      userID,
					"cart_item_id": id,
				})
				apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found")
				return
			}
			if errors.Is(err, service.ErrInsufficientStock) {
				apperrors.BadRequest(c, apperrors.CartInvalidQty, "Insufficient stock")
				return
			}
			log.Error("Failed to update cart item", err, map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": id,
			})
			apperrors.InternalError(c, "Failed to update cart item")
			return
		}

		log.Info("Cart item updated successfully", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": id,
			"quantity":     *req.Quantity,
		})

		ctrl.respondWithUserCart(c, userID, http.StatusOK, "Cart item updated successfully")
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		log.Warn("Cart update without session", nil)
		apperrors.Unauthorized(c, "A guest token or login is required")
		return
	}

	session, err := ctrl.guestStore.SetCartQuantity(c.Request.Context(), token, uint(id), req.Size, req.Color, *req.Quantity)
	if err != nil {
		log.Error("Failed to update guest cart item", err, map[string]interface{}{
			"token":      token,
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to update cart item")
		return
	}

	respondWithGuestCart(c, token, session, http.StatusOK, "Cart item updated successfully")
}

// RemoveFromCart removes a line. Guest carts pass size and color as query
// parameters since their lines have no IDs.
// DELETE /api/v1/cart/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid cart item ID format", map[string]interface{}{
			"cart_item_id": idStr,
			"error":        err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid cart item ID")
		return
	}

	if userID, exists := middleware.GetUserID(c); exists {
		err = ctrl.cartService.RemoveFromCart(userID, uint(id))
		if err != nil {
			if errors.Is(err, service.ErrCartItemNotFound) {
				log.Warn("Cart item not found for removal", map[string]interface{}{
					"user_id":      userID,
					"cart_item_id": id,
				})
				apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found")
				return
			}
			log.Error("Failed to remove cart item", err, map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": id,
			})
			apperrors.InternalError(c, "Failed to remove cart item")
			return
		}

		log.Info("Cart item removed successfully", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": id,
		})

		ctrl.respondWithUserCart(c, userID, http.StatusOK, "Cart item removed successfully")
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		log.Warn("Cart removal without session", nil)
		apperrors.Unauthorized(c, "A guest token or login is required")
		return
	}

	session, err := ctrl.guestStore.RemoveCartItem(c.Request.Context(), token, uint(id), c.Query("size"), c.Query("color"))
	if err != nil {
		log.Error("Failed to remove guest cart item", err, map[string]interface{}{
			"token":      token,
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to remove cart item")
		return
	}

	respondWithGuestCart(c, token, session, http.StatusOK, "Cart item removed successfully")
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if userID, exists := middleware.GetUserID(c); exists {
		if err := ctrl.cartService.ClearCart(userID); err != nil {
			log.Error("Failed to clear cart", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "Failed to clear cart")
			return
		}

		log.Info("Cart cleared successfully", map[string]interface{}{
			"user_id": userID,
		})

		c.JSON(http.StatusOK, gin.H{
			"message": "Cart cleared successfully",
		})
		return
	}

	token, exists := middleware.GetGuestToken(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{
			"message": "Cart cleared successfully",
		})
		return
	}

	if _, err := ctrl.guestStore.ClearCart(c.Request.Context(), token); err != nil {
		log.Error("Failed to clear guest cart", err, map[string]interface{}{
			"token": token,
		})
		apperrors.InternalError(c, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// MergeCart folds the guest session into the signed-in account
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to merge cart", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	token, hasToken := middleware.GetGuestToken(c)
	if !hasToken {
		var req MergeCartRequest
		if err := c.ShouldBindJSON(&req); err == nil && req.GuestToken != "" {
			token = req.GuestToken
			hasToken = true
		}
	}
	if !hasToken {
		log.Warn("Cart merge without guest token", map[string]interface{}{
			"user_id": userID,
		})
		apperrors.BadRequest(c, apperrors.GuestSessionNotFound, "A guest token is required")
		return
	}

	result, err := ctrl.reconcileService.MergeGuestSession(c.Request.Context(), userID, token)
	if err != nil {
		log.Error("Failed to merge guest session", err, map[string]interface{}{
			"user_id": userID,
			"token":   token,
		})
		apperrors.InternalError(c, "Failed to merge guest cart")
		return
	}

	log.Info("Guest session merged", map[string]interface{}{
		"user_id":     userID,
		"cart_added":  result.CartAdded,
		"cart_merged": result.CartMerged,
	})

	items, subtotal, err := ctrl.cartService.GetUserCart(userID)
	if err != nil {
		log.Error("Failed to fetch cart after merge", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Guest cart merged successfully",
		"merge":      result,
		"cart_items": items,
		"count":      len(items),
		"subtotal":   subtotal,
	})
}
