package handler

import (
	"net/http"
	"strconv"

	"furniture-service/internal/model"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name          string           `json:"name" validate:"required"`
	Slug          string           `json:"slug" validate:"required"`
	Description   string           `json:"description"`
	SKU           string           `json:"sku" validate:"required"`
	Price         decimal.Decimal  `json:"price" validate:"required"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	CategoryID    *uint            `json:"category_id"`
	IsActive      bool             `json:"is_active"`
}

// VariantRequest defines the structure for variant creation/update requests
type VariantRequest struct {
	Name          string           `json:"name" validate:"required"`
	SKU           string           `json:"sku" validate:"required"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	IsActive      bool             `json:"is_active"`
}

// ListProducts handles retrieving all products with optional filtering
func ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)

	db := database.GetDB()
	var products []model.Product

	// Handle query parameters for filtering
	query := db.Preload("Variants")

	// Filter by active status if specified
	isActive := c.QueryParam("is_active")
	if isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	// Filter by category if specified
	categoryID := c.QueryParam("category_id")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	// Execute the query
	result := query.Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var product model.Product
	result := database.GetDB().Preload("Variants").First(&product, id)
	if result.Error != nil {
		log.Warn("Product not found",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a new product
func CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" || req.Slug == "" || req.SKU == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name, slug and sku are required",
		})
	}
	if req.Price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "price must not be negative",
		})
	}

	// Check if product with SKU already exists
	var count int64
	database.GetDB().Model(&model.Product{}).Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Product with this SKU already exists",
		})
	}

	// Create the product
	product := model.Product{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		SKU:           req.SKU,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		CategoryID:    req.CategoryID,
		IsActive:      req.IsActive,
	}

	result := database.GetDB().Create(&product)
	if result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.String("sku", req.SKU),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("sku", product.SKU))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product
func UpdateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	// Find existing product
	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Warn("Product not found for update",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	// Check if SKU is changed and if new SKU already exists
	if req.SKU != product.SKU {
		var count int64
		database.GetDB().Model(&model.Product{}).Where("sku = ? AND id != ?", req.SKU, id).Count(&count)
		if count > 0 {
			log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Product with this SKU already exists",
			})
		}
	}

	// Update fields
	product.Name = req.Name
	product.Slug = req.Slug
	product.Description = req.Description
	product.SKU = req.SKU
	product.Price = req.Price
	product.DiscountPrice = req.DiscountPrice
	product.CategoryID = req.CategoryID
	product.IsActive = req.IsActive

	result = database.GetDB().Save(&product)
	if result.Error != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update product",
		})
	}

	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.String("name", product.Name),
		zap.String("sku", product.SKU))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product (soft delete)
func DeleteProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Product{}, id)
	if result.Error != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete product",
		})
	}

	if result.RowsAffected == 0 {
		log.Warn("Product not found for deletion", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deleted successfully",
	})
}

// ListVariants retrieves the variants of a product
func ListVariants(c echo.Context) error {
	log := logger.FromEcho(c)
	productID := c.Param("id")

	var product model.Product
	if err := database.GetDB().First(&product, productID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	var variants []model.ProductVariant
	result := database.GetDB().Where("product_id = ?", productID).Order("id").Find(&variants)
	if result.Error != nil {
		log.Error("Failed to list variants",
			zap.String("product_id", productID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve variants",
		})
	}
	return c.JSON(http.StatusOK, variants)
}

// CreateVariant adds a variant to a product
func CreateVariant(c echo.Context) error {
	log := logger.FromEcho(c)
	productID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Name == "" || req.SKU == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and sku are required"})
	}

	var product model.Product
	if err := database.GetDB().First(&product, productID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	var count int64
	database.GetDB().Model(&model.ProductVariant{}).Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		log.Warn("Variant with this SKU already exists", zap.String("sku", req.SKU))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Variant with this SKU already exists",
		})
	}

	variant := model.ProductVariant{
		ProductID:     product.ID,
		Name:          req.Name,
		SKU:           req.SKU,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		IsActive:      req.IsActive,
	}
	if err := database.GetDB().Create(&variant).Error; err != nil {
		log.Error("Failed to create variant",
			zap.Uint("product_id", product.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create variant",
		})
	}

	log.Info("Variant created successfully",
		zap.Uint("variant_id", variant.ID),
		zap.Uint("product_id", product.ID),
		zap.String("sku", variant.SKU))
	return c.JSON(http.StatusCreated, variant)
}

// UpdateVariant updates a product variant
func UpdateVariant(c echo.Context) error {
	log := logger.FromEcho(c)
	productID := c.Param("id")
	variantID := c.Param("variant_id")

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var variant model.ProductVariant
	result := database.GetDB().Where("id = ? AND product_id = ?", variantID, productID).First(&variant)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Variant not found"})
	}

	if req.SKU != variant.SKU {
		var count int64
		database.GetDB().Model(&model.ProductVariant{}).
			Where("sku = ? AND id != ?", req.SKU, variant.ID).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Variant with this SKU already exists",
			})
		}
	}

	variant.Name = req.Name
	variant.SKU = req.SKU
	variant.Price = req.Price
	variant.DiscountPrice = req.DiscountPrice
	variant.IsActive = req.IsActive

	if err := database.GetDB().Save(&variant).Error; err != nil {
		log.Error("Failed to update variant",
			zap.String("variant_id", variantID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update variant",
		})
	}
	return c.JSON(http.StatusOK, variant)
}

// DeleteVariant removes a product variant (soft delete)
func DeleteVariant(c echo.Context) error {
	log := logger.FromEcho(c)
	productID := c.Param("id")
	variantID := c.Param("variant_id")

	result := database.GetDB().
		Where("id = ? AND product_id = ?", variantID, productID).
		Delete(&model.ProductVariant{})
	if result.Error != nil {
		log.Error("Failed to delete variant",
			zap.String("variant_id", variantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete variant",
		})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Variant not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Variant deleted successfully"})
}
