package router

import (
	"github.com/gin-gonic/gin"
	"github.com/veloura/veloura-backend/config"
	"github.com/veloura/veloura-backend/internal/app/controller"
	"github.com/veloura/veloura-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	cartController     *controller.CartController
	wishlistController *controller.WishlistController
	addressController  *controller.AddressController
	orderController    *controller.OrderController
	returnController   *controller.ReturnController
	adminController    *controller.AdminController
	uploadController   *controller.UploadController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	wishlistController *controller.WishlistController,
	addressController *controller.AddressController,
	orderController *controller.OrderController,
	returnController *controller.ReturnController,
	adminController *controller.AdminController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		cartController:     cartController,
		wishlistController: wishlistController,
		addressController:  addressController,
		orderController:    orderController,
		returnController:   returnController,
		adminController:    adminController,
		uploadController:   uploadController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "VELOURA API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/categories", r.productController.ListCategories)
			products.GET("/:id", r.productController.GetProductByID)
		}

		v1.POST("/guest/session", r.cartController.CreateGuestSession)

		// Cart and wishlist work for guests too: without a bearer token
		// the X-Guest-Token header selects a redis-backed session.
		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.PUT("/:id", r.cartController.UpdateCartItem)
			cart.DELETE("/:id", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)
		}
		v1.POST("/cart/merge",
			r.authMiddleware.Authenticate(),
			r.cartController.MergeCart,
		)

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.OptionalAuthenticate())
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("", r.wishlistController.AddToWishlist)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveFromWishlist)
		}

		addresses := v1.Group("/addresses")
		addresses.Use(r.authMiddleware.Authenticate())
		{
			addresses.GET("", r.addressController.ListAddresses)
			addresses.POST("", r.addressController.CreateAddress)
			addresses.PUT("/:id", r.addressController.UpdateAddress)
			addresses.DELETE("/:id", r.addressController.DeleteAddress)
			addresses.PUT("/:id/default", r.addressController.SetDefaultAddress)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.POST("", r.orderController.Checkout)
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrderByID)
			orders.PUT("/:id/cancel", r.orderController.CancelOrder)
		}

		returns := v1.Group("/returns")
		returns.Use(r.authMiddleware.Authenticate())
		{
			returns.POST("", r.returnController.RequestReturn)
			returns.GET("", r.returnController.GetReturns)
			returns.GET("/:id", r.returnController.GetReturnByID)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate())
		admin.Use(r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/dashboard", r.adminController.GetDashboard)
			admin.GET("/users", r.adminController.ListUsers)

			admin.GET("/orders", r.adminController.ListOrders)
			admin.GET("/orders/export", r.adminController.ExportOrders)
			admin.PUT("/orders/:id/status", r.adminController.UpdateOrderStatus)
			admin.PUT("/orders/:id/payment-status", r.adminController.UpdatePaymentStatus)

			admin.GET("/returns", r.adminController.ListReturns)
			admin.PUT("/returns/:id/status", r.adminController.UpdateReturnStatus)

			admin.GET("/stock/low", r.adminController.ListLowStock)

			admin.POST("/products", r.productController.CreateProduct)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeleteProduct)
			admin.POST("/products/:id/variants", r.productController.AddVariant)
			admin.PUT("/variants/:id", r.productController.UpdateVariant)
			admin.PUT("/variants/:id/stock", r.productController.UpdateVariantStock)
			admin.DELETE("/variants/:id", r.productController.DeleteVariant)

			admin.POST("/uploads/presign", r.uploadController.PresignUpload)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Guest-Token, X-Idempotency-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
