package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/service"
	apperrors "github.com/veloura/veloura-backend/internal/errors"
	"github.com/veloura/veloura-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"required"`
	Brand       string   `json:"brand"`
	BasePrice   float64  `json:"base_price" binding:"required,gt=0"`
	Discount    float64  `json:"discount" binding:"gte=0,lte=100"`
	Images      []string `json:"images"`
	IsActive    *bool    `json:"is_active"`
	IsFeatured  bool     `json:"is_featured"`
	IsNew       bool     `json:"is_new"`
}

type VariantRequest struct {
	Size     string  `json:"size" binding:"required"`
	Color    string  `json:"color" binding:"required"`
	Price    float64 `json:"price" binding:"gte=0"`
	Stock    int     `json:"stock" binding:"gte=0"`
	Image    string  `json:"image"`
	IsActive *bool   `json:"is_active"`
}

type UpdateStockRequest struct {
	Stock int `json:"stock" binding:"gte=0"`
}

// ListProducts returns the catalog with optional filters
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	opts := service.ProductListOptions{
		Category:        c.Query("category"),
		Brand:           c.Query("brand"),
		Search:          c.Query("search"),
		FeaturedOnly:    c.Query("featured") == "true",
		NewOnly:         c.Query("new") == "true",
		Sort:            service.ProductSort(c.DefaultQuery("sort", "created_at")),
		SortAscending:   c.Query("order") == "asc",
		Limit:           limit,
		Offset:          offset,
		IncludeVariants: true,
	}

	products, total, err := ctrl.productService.ListProducts(opts)
	if err != nil {
		log.Error("Failed to fetch products", err, map[string]interface{}{
			"category": opts.Category,
			"search":   opts.Search,
		})
		apperrors.InternalError(c, "Failed to fetch products")
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(products),
		"total": total,
	})

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"total":    total,
	})
}

// GetProductByID returns a product with its variants
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	product, err := ctrl.productService.GetProductByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// ListCategories returns the distinct active product categories
// GET /api/v1/products/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.productService.ListCategories()
	if err != nil {
		log.Error("Failed to fetch categories", err, nil)
		apperrors.InternalError(c, "Failed to fetch categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// CreateProduct creates a new product (Admin only)
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product details")
		return
	}

	log.Debug("Creating product", map[string]interface{}{
		"name":     req.Name,
		"category": req.Category,
		"price":    req.BasePrice,
	})

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		BasePrice:   req.BasePrice,
		Discount:    req.Discount,
		Images:      pq.StringArray(req.Images),
		IsActive:    true,
		IsFeatured:  req.IsFeatured,
		IsNew:       req.IsNew,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := ctrl.productService.CreateProduct(product); err != nil {
		log.Error("Failed to create product", err, map[string]interface{}{
			"name": req.Name,
		})
		apperrors.InternalError(c, "Failed to create product")
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct updates an existing product (Admin only)
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product details")
		return
	}

	updated := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		BasePrice:   req.BasePrice,
		Discount:    req.Discount,
		Images:      pq.StringArray(req.Images),
		IsActive:    true,
		IsFeatured:  req.IsFeatured,
		IsNew:       req.IsNew,
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}

	product, err := ctrl.productService.UpdateProduct(uint(id), updated)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for update", map[string]interface{}{
				"product_id": id,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to update product")
		return
	}

	log.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct soft-deletes a product (Admin only)
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	if err := ctrl.productService.DeleteProduct(uint(id)); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for deletion", map[string]interface{}{
				"product_id": id,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "Failed to delete product")
		return
	}

	log.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// AddVariant adds a size/color variant to a product (Admin only)
// POST /api/v1/admin/products/:id/variants
func (ctrl *ProductController) AddVariant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid variant request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid variant details")
		return
	}

	variant := &model.ProductVariant{
		Size:     req.Size,
		Color:    req.Color,
		Price:    req.Price,
		Stock:    req.Stock,
		Image:    req.Image,
		IsActive: true,
	}
	if req.IsActive != nil {
		variant.IsActive = *req.IsActive
	}

	if err := ctrl.productService.AddVariant(uint(id), variant); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for variant", map[string]interface{}{
				"product_id": id,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to add variant", err, map[string]interface{}{
			"product_id": id,
			"size":       req.Size,
			"color":      req.Color,
		})
		apperrors.InternalError(c, "Failed to add variant")
		return
	}

	log.Info("Variant added successfully", map[string]interface{}{
		"product_id": id,
		"variant_id": variant.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Variant added successfully",
		"variant": variant,
	})
}

// UpdateVariant updates a variant (Admin only)
// PUT /api/v1/admin/variants/:id
func (ctrl *ProductController) UpdateVariant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid variant ID format", map[string]interface{}{
			"variant_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid variant ID")
		return
	}

	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid variant update request", map[string]interface{}{
			"variant_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid variant details")
		return
	}

	updated := &model.ProductVariant{
		Size:     req.Size,
		Color:    req.Color,
		Price:    req.Price,
		Stock:    req.Stock,
		Image:    req.Image,
		IsActive: true,
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}

	variant, err := ctrl.productService.UpdateVariant(uint(id), updated)
	if err != nil {
		if errors.Is(err, service.ErrVariantNotFound) {
			log.Warn("Variant not found for update", map[string]interface{}{
				"variant_id": id,
			})
			apperrors.NotFound(c, apperrors.VariantNotFound, "Variant not found")
			return
		}
		log.Error("Failed to update variant", err, map[string]interface{}{
			"variant_id": id,
		})
		apperrors.InternalError(c, "Failed to update variant")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Variant updated successfully",
		"variant": variant,
	})
}

// UpdateVariantStock sets the stock level of a variant (Admin only)
// PUT /api/v1/admin/variants/:id/stock
func (ctrl *ProductController) UpdateVariantStock(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid variant ID format", map[string]interface{}{
			"variant_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid variant ID")
		return
	}

	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid stock update request", map[string]interface{}{
			"variant_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid stock value")
		return
	}

	if err := ctrl.productService.UpdateVariantStock(uint(id), req.Stock); err != nil {
		if errors.Is(err, service.ErrVariantNotFound) {
			log.Warn("Variant not found for stock update", map[string]interface{}{
				"variant_id": id,
			})
			apperrors.NotFound(c, apperrors.VariantNotFound, "Variant not found")
			return
		}
		log.Error("Failed to update variant stock", err, map[string]interface{}{
			"variant_id": id,
			"stock":      req.Stock,
		})
		apperrors.InternalError(c, "Failed to update stock")
		return
	}

	log.Info("Variant stock updated", map[string]interface{}{
		"variant_id": id,
		"stock":      req.Stock,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock updated successfully",
	})
}

// DeleteVariant removes a variant (Admin only)
// DELETE /api/v1/admin/variants/:id
func (ctrl *ProductController) DeleteVariant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid variant ID format", map[string]interface{}{
			"variant_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid variant ID")
		return
	}

	if err := ctrl.productService.DeleteVariant(uint(id)); err != nil {
		if errors.Is(err, service.ErrVariantNotFound) {
			log.Warn("Variant not found for deletion", map[string]interface{}{
				"variant_id": id,
			})
			apperrors.NotFound(c, apperrors.VariantNotFound, "Variant not found")
			return
		}
		log.Error("Failed to delete variant", err, map[string]interface{}{
			"variant_id": id,
		})
		apperrors.InternalError(c, "Failed to delete variant")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Variant deleted successfully",
	})
}
