package service

import (
	"errors"

	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrVariantNotFound   = errors.New("product variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductSort string

const (
	ProductSortPrice      ProductSort = "price"
	ProductSortCreatedAt  ProductSort = "created_at"
	ProductSortPopularity ProductSort = "popularity"
)

type ProductListOptions struct {
	Category        string
	Brand           string
	Search          string
	FeaturedOnly    bool
	NewOnly         bool
	IncludeInactive bool
	Sort            ProductSort
	SortAscending   bool
	Limit           int
	Offset          int
	IncludeVariants bool
}

type ProductService interface {
	ListProducts(opts ProductListOptions) ([]model.Product, int64, error)
	GetProductByID(id uint) (*model.Product, error)
	ListCategories() ([]string, error)
	CreateProduct(product *model.Product) error
	UpdateProduct(productID uint, updated *model.Product) (*model.Product, error)
	DeleteProduct(productID uint) error
	AddVariant(productID uint, variant *model.ProductVariant) error
	UpdateVariant(variantID uint, updated *model.ProductVariant) (*model.ProductVariant, error)
	UpdateVariantStock(variantID uint, stock int) error
	DeleteVariant(variantID uint) error
	ListLowStock(threshold int) ([]model.ProductVariant, error)
}

type productService struct {
	productRepo repository.ProductRepository
	variantRepo repository.ProductVariantRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
	variantRepo repository.ProductVariantRepository,
) ProductService {
	return &productService{
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

func (s *productService) ListProducts(opts ProductListOptions) ([]model.Product, int64, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"category": opts.Category,
		"brand":    opts.Brand,
		"search":   opts.Search,
		"sort":     opts.Sort,
	})

	filter := repository.ProductFilter{
		Category:        opts.Category,
		Brand:           opts.Brand,
		Search:          opts.Search,
		FeaturedOnly:    opts.FeaturedOnly,
		NewOnly:         opts.NewOnly,
		IncludeInactive: opts.IncludeInactive,
		SortBy:          repository.ProductSort(opts.Sort),
		SortAscending:   opts.SortAscending,
		Limit:           opts.Limit,
		Offset:          opts.Offset,
		IncludeVariants: opts.IncludeVariants,
	}

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	logger.Info("Products listed successfully", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	logger.Debug("Fetching product by ID", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) ListCategories() ([]string, error) {
	categories, err := s.productRepo.ListCategories()
	if err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

func (s *productService) CreateProduct(product *model.Product) error {
	logger.Info("Creating product", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
	})

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (s *productService) UpdateProduct(productID uint, updated *model.Product) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": productID,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for update", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for update", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	product.Name = updated.Name
	product.Description = updated.Description
	product.Category = updated.Category
	product.Brand = updated.Brand
	product.BasePrice = updated.BasePrice
	product.Discount = updated.Discount
	if updated.Images != nil {
		product.Images = updated.Images
	}
	product.IsActive = updated.IsActive
	product.IsFeatured = updated.IsFeatured
	product.IsNew = updated.IsNew

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	logger.Info("Product updated successfully", map[string]interface{}{
		"product_id": productID,
	})
	return product, nil
}

func (s *productService) DeleteProduct(productID uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": productID,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for deletion", map[string]interface{}{
				"product_id": productID,
			})
			return ErrProductNotFound
		}
		return err
	}

	if err := s.productRepo.Delete(productID); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}

	logger.Info("Product deleted successfully", map[string]interface{}{
		"product_id": productID,
	})
	return nil
}

func (s *productService) AddVariant(productID uint, variant *model.ProductVariant) error {
	logger.Info("Adding product variant", map[string]interface{}{
		"product_id": productID,
		"size":       variant.Size,
		"color":      variant.Color,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	variant.ProductID = productID
	if err := s.variantRepo.Create(variant); err != nil {
		logger.Error("Failed to add product variant", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}

	logger.Info("Product variant added successfully", map[string]interface{}{
		"product_id": productID,
		"variant_id": variant.ID,
	})
	return nil
}

func (s *productService) UpdateVariant(variantID uint, updated *model.ProductVariant) (*model.ProductVariant, error) {
	logger.Info("Updating product variant", map[string]interface{}{
		"variant_id": variantID,
	})

	variant, err := s.variantRepo.FindByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Variant not found for update", map[string]interface{}{
				"variant_id": variantID,
			})
			return nil, ErrVariantNotFound
		}
		return nil, err
	}

	variant.Size = updated.Size
	variant.Color = updated.Color
	variant.Price = updated.Price
	variant.Stock = updated.Stock
	variant.Image = updated.Image
	variant.IsActive = updated.IsActive

	if err := s.variantRepo.Update(variant); err != nil {
		logger.Error("Failed to update product variant", err, map[string]interface{}{
			"variant_id": variantID,
		})
		return nil, err
	}

	logger.Info("Product variant updated successfully", map[string]interface{}{
		"variant_id": variantID,
	})
	return variant, nil
}

func (s *productService) UpdateVariantStock(variantID uint, stock int) error {
	logger.Info("Updating variant stock", map[string]interface{}{
		"variant_id": variantID,
		"stock":      stock,
	})

	if _, err := s.variantRepo.FindByID(variantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVariantNotFound
		}
		return err
	}

	if err := s.variantRepo.UpdateStock(variantID, stock); err != nil {
		logger.Error("Failed to update variant stock", err, map[string]interface{}{
			"variant_id": variantID,
		})
		return err
	}

	logger.Info("Variant stock updated successfully", map[string]interface{}{
		"variant_id": variantID,
		"stock":      stock,
	})
	return nil
}

func (s *productService) DeleteVariant(variantID uint) error {
	logger.Info("Deleting product variant", map[string]interface{}{
		"variant_id": variantID,
	})

	if _, err := s.variantRepo.FindByID(variantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVariantNotFound
		}
		return err
	}

	if err := s.variantRepo.Delete(variantID); err != nil {
		logger.Error("Failed to delete product variant", err, map[string]interface{}{
			"variant_id": variantID,
		})
		return err
	}

	logger.Info("Product variant deleted successfully", map[string]interface{}{
		"variant_id": variantID,
	})
	return nil
}

func (s *productService) ListLowStock(threshold int) ([]model.ProductVariant, error) {
	if threshold <= 0 {
		threshold = 5
	}

	variants, err := s.variantRepo.FindLowStock(threshold)
	if err != nil {
		logger.Error("Failed to list low stock variants", err, map[string]interface{}{
			"threshold": threshold,
		})
		return nil, err
	}

	logger.Info("Low stock variants listed", map[string]interface{}{
		"threshold": threshold,
		"count":     len(variants),
	})
	return variants, nil
}
