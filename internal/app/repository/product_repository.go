package repository

import (
	"fmt"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortPrice      ProductSort = "price"
	ProductSortCreatedAt  ProductSort = "created_at"
	ProductSortPopularity ProductSort = "popularity"
)

type ProductFilter struct {
	Category        string
	Brand           string
	Search          string
	FeaturedOnly    bool
	NewOnly         bool
	IncludeInactive bool
	SortBy          ProductSort
	SortAscending   bool
	Limit           int
	Offset          int
	IncludeVariants bool
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindWithFilter(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	ListCategories() ([]string, error)
	Update(product *model.Product) error
	Delete(id uint) error
	Count() (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
		"brand":    product.Brand,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":     product.Name,
			"category": product.Category,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) baseQuery(includeVariants bool) *gorm.DB {
	query := r.db.Model(&model.Product{})
	if includeVariants {
		query = query.Preload("Variants")
	}
	return query
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	products, _, err := r.FindWithFilter(ProductFilter{})
	return products, err
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category":  filter.Category,
		"brand":     filter.Brand,
		"search":    filter.Search,
		"featured":  filter.FeaturedOnly,
		"new":       filter.NewOnly,
		"sort_by":   filter.SortBy,
		"ascending": filter.SortAscending,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	query := r.baseQuery(filter.IncludeVariants)

	if !filter.IncludeInactive {
		query = query.Where("products.is_active = ?", true)
	}

	if filter.Category != "" {
		query = query.Where("products.category = ?", filter.Category)
	}

	if filter.Brand != "" {
		query = query.Where("products.brand = ?", filter.Brand)
	}

	if filter.FeaturedOnly {
		query = query.Where("products.is_featured = ?", true)
	}

	if filter.NewOnly {
		query = query.Where("products.is_new = ?", true)
	}

	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", filter.Search)
		query = query.Where("products.name LIKE ? OR products.description LIKE ?", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count products with filter", err)
		return nil, 0, err
	}

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}

	switch filter.SortBy {
	case ProductSortPrice:
		query = query.Order("products.base_price " + direction)
	case ProductSortCreatedAt:
		query = query.Order("products.created_at " + direction)
	case ProductSortPopularity:
		fallthrough
	default:
		wishlistCountsSubquery := r.db.Table("wishlist_items").
			Select("wishlist_items.product_id, COUNT(*) AS count").
			Group("wishlist_items.product_id")
		query = query.
			Joins("LEFT JOIN (?) AS wishlist_counts ON wishlist_counts.product_id = products.id", wishlistCountsSubquery).
			Order("COALESCE(wishlist_counts.count, 0) " + direction).
			Order("products.created_at DESC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err)
		return nil, 0, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.Preload("Variants").First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product found by ID in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return &product, nil
}

func (r *productRepository) ListCategories() ([]string, error) {
	logger.Debug("Listing product categories in database")

	var categories []string
	if err := r.db.Model(&model.Product{}).
		Where("is_active = ?", true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error; err != nil {
		logger.Error("Failed to list product categories in database", err)
		return nil, err
	}

	logger.Debug("Product categories listed in database", map[string]interface{}{
		"count": len(categories),
	})
	return categories, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	if err := r.db.Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Debug("Product deleted from database", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (r *productRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Product{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count products in database", err)
		return 0, err
	}
	return count, nil
}
