package repository

import (
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductVariantRepository interface {
	Create(variant *model.ProductVariant) error
	FindByID(id uint) (*model.ProductVariant, error)
	FindByProductID(productID uint) ([]model.ProductVariant, error)
	FindByIdentity(productID uint, size, color string) (*model.ProductVariant, error)
	Update(variant *model.ProductVariant) error
	UpdateStock(id uint, stock int) error
	Delete(id uint) error
	FindLowStock(threshold int) ([]model.ProductVariant, error)
}

type productVariantRepository struct {
	db *gorm.DB
}

func NewProductVariantRepository(db *gorm.DB) ProductVariantRepository {
	return &productVariantRepository{db: db}
}

func (r *productVariantRepository) Create(variant *model.ProductVariant) error {
	logger.Debug("Creating product variant in database", map[string]interface{}{
		"product_id": variant.ProductID,
		"size":       variant.Size,
		"color":      variant.Color,
	})

	if err := r.db.Create(variant).Error; err != nil {
		logger.Error("Failed to create product variant in database", err, map[string]interface{}{
			"product_id": variant.ProductID,
			"size":       variant.Size,
			"color":      variant.Color,
		})
		return err
	}

	logger.Debug("Product variant created in database", map[string]interface{}{
		"variant_id": variant.ID,
		"product_id": variant.ProductID,
	})
	return nil
}

func (r *productVariantRepository) FindByID(id uint) (*model.ProductVariant, error) {
	logger.Debug("Finding product variant by ID in database", map[string]interface{}{
		"variant_id": id,
	})

	var variant model.ProductVariant
	if err := r.db.Preload("Product").First(&variant, id).Error; err != nil {
		logger.Error("Failed to find product variant by ID in database", err, map[string]interface{}{
			"variant_id": id,
		})
		return nil, err
	}

	logger.Debug("Product variant found by ID in database", map[string]interface{}{
		"variant_id": variant.ID,
		"product_id": variant.ProductID,
	})
	return &variant, nil
}

func (r *productVariantRepository) FindByProductID(productID uint) ([]model.ProductVariant, error) {
	logger.Debug("Finding product variants by product ID in database", map[string]interface{}{
		"product_id": productID,
	})

	var variants []model.ProductVariant
	if err := r.db.Where("product_id = ?", productID).
		Order("size, color").
		Find(&variants).Error; err != nil {
		logger.Error("Failed to find product variants by product ID in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	logger.Debug("Product variants found by product ID in database", map[string]interface{}{
		"product_id": productID,
		"count":      len(variants),
	})
	return variants, nil
}

func (r *productVariantRepository) FindByIdentity(productID uint, size, color string) (*model.ProductVariant, error) {
	logger.Debug("Finding product variant by identity in database", map[string]interface{}{
		"product_id": productID,
		"size":       size,
		"color":      color,
	})

	var variant model.ProductVariant
	if err := r.db.Where("product_id = ? AND size = ? AND color = ?", productID, size, color).
		First(&variant).Error; err != nil {
		logger.Error("Failed to find product variant by identity in database", err, map[string]interface{}{
			"product_id": productID,
			"size":       size,
			"color":      color,
		})
		return nil, err
	}

	logger.Debug("Product variant found by identity in database", map[string]interface{}{
		"variant_id": variant.ID,
		"product_id": productID,
	})
	return &variant, nil
}

func (r *productVariantRepository) Update(variant *model.ProductVariant) error {
	logger.Debug("Updating product variant in database", map[string]interface{}{
		"variant_id": variant.ID,
		"product_id": variant.ProductID,
	})

	if err := r.db.Save(variant).Error; err != nil {
		logger.Error("Failed to update product variant in database", err, map[string]interface{}{
			"variant_id": variant.ID,
		})
		return err
	}

	logger.Debug("Product variant updated in database", map[string]interface{}{
		"variant_id": variant.ID,
	})
	return nil
}

func (r *productVariantRepository) UpdateStock(id uint, stock int) error {
	logger.Debug("Updating product variant stock in database", map[string]interface{}{
		"variant_id": id,
		"stock":      stock,
	})

	if err := r.db.Model(&model.ProductVariant{}).Where("id = ?", id).
		Update("stock", stock).Error; err != nil {
		logger.Error("Failed to update product variant stock in database", err, map[string]interface{}{
			"variant_id": id,
			"stock":      stock,
		})
		return err
	}

	logger.Debug("Product variant stock updated in database", map[string]interface{}{
		"variant_id": id,
		"stock":      stock,
	})
	return nil
}

func (r *productVariantRepository) Delete(id uint) error {
	logger.Debug("Deleting product variant from database", map[string]interface{}{
		"variant_id": id,
	})

	if err := r.db.Delete(&model.ProductVariant{}, id).Error; err != nil {
		logger.Error("Failed to delete product variant from database", err, map[string]interface{}{
			"variant_id": id,
		})
		return err
	}

	logger.Debug("Product variant deleted from database", map[string]interface{}{
		"variant_id": id,
	})
	return nil
}

func (r *productVariantRepository) FindLowStock(threshold int) ([]model.ProductVariant, error) {
	logger.Debug("Finding low stock variants in database", map[string]interface{}{
		"threshold": threshold,
	})

	var variants []model.ProductVariant
	if err := r.db.Preload("Product").
		Where("stock <= ? AND is_active = ?", threshold, true).
		Order("stock ASC").
		Find(&variants).Error; err != nil {
		logger.Error("Failed to find low stock variants in database", err, map[string]interface{}{
			"threshold": threshold,
		})
		return nil, err
	}

	logger.Debug("Low stock variants found in database", map[string]interface{}{
		"threshold": threshold,
		"count":     len(variants),
	})
	return variants, nil
}
