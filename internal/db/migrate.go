package db

import (
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/pkg/logger"
	"github.com/veloura/veloura-backend/pkg/util"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.CartItem{},
		&model.WishlistItem{},
		&model.Address{},
		&model.Order{},
		&model.OrderItem{},
		&model.ReturnRequest{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedInitialData(); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return seedInitialData()
}

func seedInitialData() error {
	logger.Info("Seeding initial data...")

	if err := seedAdminUser(); err != nil {
		logger.Error("Failed to seed admin user", err)
		return err
	}

	if err := seedCatalog(); err != nil {
		logger.Error("Failed to seed catalog", err)
		return err
	}

	logger.Info("Initial data seeded successfully")
	return nil
}

// seedAdminUser creates the console admin account on first boot.
func seedAdminUser() error {
	var count int64
	if err := DB.Model(&model.User{}).Where("role = ?", model.UserRoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Admin user already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	hashed, err := util.HashPassword("veloura-admin")
	if err != nil {
		return err
	}

	admin := model.User{
		Email:    "admin@veloura.in",
		Password: hashed,
		Name:     "VELOURA Admin",
		Role:     model.UserRoleAdmin,
	}
	if err := DB.Create(&admin).Error; err != nil {
		logger.Error("Failed to create admin user", err)
		return err
	}

	logger.Info("Admin user seeded successfully", map[string]interface{}{
		"email": admin.Email,
	})
	return nil
}

// seedCatalog loads a small starter catalog so a fresh install is browsable.
func seedCatalog() error {
	var count int64
	if err := DB.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Catalog already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding starter catalog...")

	products := []model.Product{
		{
			Name:        "Linen Oversized Shirt",
			Description: "Breathable linen shirt with a relaxed drape.",
			Category:    "women",
			Brand:       "VELOURA",
			BasePrice:   1899,
			IsActive:    true,
			IsNew:       true,
			Variants: []model.ProductVariant{
				{Size: "S", Color: "Ivory", Stock: 25, IsActive: true},
				{Size: "M", Color: "Ivory", Stock: 30, IsActive: true},
				{Size: "L", Color: "Sage", Stock: 18, IsActive: true},
			},
		},
		{
			Name:        "Raw Denim Straight Jeans",
			Description: "Unwashed 14oz denim, straight cut.",
			Category:    "men",
			Brand:       "VELOURA",
			BasePrice:   2499,
			Discount:    10,
			IsActive:    true,
			IsFeatured:  true,
			Variants: []model.ProductVariant{
				{Size: "30", Color: "Indigo", Stock: 20, IsActive: true},
				{Size: "32", Color: "Indigo", Stock: 22, IsActive: true},
				{Size: "34", Color: "Black", Stock: 15, IsActive: true},
			},
		},
		{
			Name:        "Leather Tote",
			Description: "Full-grain leather tote with cotton lining.",
			Category:    "accessories",
			Brand:       "VELOURA",
			BasePrice:   3999,
			IsActive:    true,
			IsFeatured:  true,
			Variants: []model.ProductVariant{
				{Size: "One Size", Color: "Tan", Stock: 12, IsActive: true},
				{Size: "One Size", Color: "Black", Stock: 10, IsActive: true},
			},
		},
	}

	totalInserted := 0
	for _, product := range products {
		if err := DB.Create(&product).Error; err != nil {
			logger.Error("Failed to create product", err, map[string]interface{}{
				"product": product.Name,
			})
			return err
		}
		totalInserted++
	}

	logger.Info("Starter catalog seeded successfully", map[string]interface{}{
		"total_products": totalInserted,
	})

	return nil
}
