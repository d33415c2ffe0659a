package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/veloura/veloura-backend/config"
	"github.com/veloura/veloura-backend/internal/app/controller"
	"github.com/veloura/veloura-backend/internal/app/guest"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/internal/app/service"
	"github.com/veloura/veloura-backend/internal/db"
	"github.com/veloura/veloura-backend/internal/middleware"
	"github.com/veloura/veloura-backend/internal/router"
	"github.com/veloura/veloura-backend/internal/scheduler"
	"github.com/veloura/veloura-backend/internal/storage"
	"github.com/veloura/veloura-backend/pkg/logger"
	"github.com/veloura/veloura-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting VELOURA Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed database (optional)
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize redis: guest sessions, token blacklist, checkout guard
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	variantRepo := repository.NewProductVariantRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	wishlistRepo := repository.NewWishlistRepository(db.GetDB())
	addressRepo := repository.NewAddressRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	returnRepo := repository.NewReturnRepository(db.GetDB())

	// Guest session store
	guestStore := guest.NewStore(redis.NewKV(), cfg.Checkout.GuestSessionTTL)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, variantRepo)
	cartService := service.NewCartService(cartRepo, productRepo, variantRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	addressService := service.NewAddressService(addressRepo)
	orderService := service.NewOrderService(
		orderRepo,
		cartRepo,
		addressRepo,
		redis.NewGuard(),
		cfg.Checkout,
		db.GetDB(),
	)
	returnService := service.NewReturnService(returnRepo, orderRepo, db.GetDB())
	reconcileService := service.NewReconcileService(
		guestStore,
		cartRepo,
		wishlistRepo,
		productRepo,
		variantRepo,
	)
	adminService := service.NewAdminService(orderRepo, userRepo, productRepo)
	consistencyService := service.NewConsistencyService(returnRepo, orderRepo, db.GetDB())

	// S3 storage for product image uploads
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService, reconcileService, guestStore)
	wishlistController := controller.NewWishlistController(wishlistService, guestStore)
	addressController := controller.NewAddressController(addressService)
	orderController := controller.NewOrderController(orderService)
	returnController := controller.NewReturnController(returnService)
	adminController := controller.NewAdminController(adminService, orderService, returnService, productService)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Nightly consistency sweep
	consistencyScheduler := scheduler.NewConsistencyScheduler(consistencyService)
	if err := consistencyScheduler.Start(); err != nil {
		logger.Error("Failed to start consistency scheduler", err)
	}
	defer consistencyScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		wishlistController,
		addressController,
		orderController,
		returnController,
		adminController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
