package handler

import (
	"net/http"
	"strconv"

	"furniture-service/internal/model"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CategoryRequest defines the structure for category creation/update requests
type CategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	ParentID *uint  `json:"parent_id"`
}

// ListCategories retrieves all product categories
func ListCategories(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if parentID := c.QueryParam("parent_id"); parentID != "" {
		query = query.Where("parent_id = ?", parentID)
	}

	var categories []model.Category
	result := query.Order("name").Find(&categories)
	if result.Error != nil {
		log.Error("Failed to retrieve categories", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve categories",
		})
	}

	return c.JSON(http.StatusOK, categories)
}

// GetCategory retrieves a specific category by ID
func GetCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var category model.Category
	result := database.GetDB().First(&category, id)
	if result.Error != nil {
		log.Warn("Category not found",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Category not found",
		})
	}

	return c.JSON(http.StatusOK, category)
}

// CreateCategory adds a new product category
func CreateCategory(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" || req.Slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name and slug are required",
		})
	}

	// The slug is the stable public identifier, so collisions are
	// rejected up front.
	var count int64
	database.GetDB().Model(&model.Category{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		log.Warn("Category with this slug already exists", zap.String("slug", req.Slug))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Category with this slug already exists",
		})
	}

	if req.ParentID != nil {
		var parent model.Category
		if err := database.GetDB().First(&parent, *req.ParentID).Error; err != nil {
			log.Warn("Parent category not found", zap.Uint("parent_id", *req.ParentID))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Parent category not found",
			})
		}
	}

	category := model.Category{
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: req.ParentID,
	}

	result := database.GetDB().Create(&category)
	if result.Error != nil {
		log.Error("Failed to create category",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create category",
		})
	}

	log.Info("Category created successfully",
		zap.String("category_id", strconv.FormatUint(uint64(category.ID), 10)),
		zap.String("name", category.Name),
		zap.String("slug", category.Slug))
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory updates an existing product category
func UpdateCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("category_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var category model.Category
	result := database.GetDB().First(&category, id)
	if result.Error != nil {
		log.Warn("Category not found for update",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Category not found",
		})
	}

	if req.Slug != category.Slug {
		var count int64
		database.GetDB().Model(&model.Category{}).
			Where("slug = ? AND id != ?", req.Slug, id).
			Count(&count)
		if count > 0 {
			log.Warn("Category with this slug already exists", zap.String("slug", req.Slug))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Category with this slug already exists",
			})
		}
	}

	category.Name = req.Name
	category.Slug = req.Slug
	category.ParentID = req.ParentID

	result = database.GetDB().Save(&category)
	if result.Error != nil {
		log.Error("Failed to update category",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update category",
		})
	}

	log.Info("Category updated successfully",
		zap.String("category_id", id),
		zap.String("name", category.Name))
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles deleting a product category (soft delete)
func DeleteCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var category model.Category
	if err := database.GetDB().First(&category, id).Error; err != nil {
		log.Warn("Category not found for deletion", zap.String("category_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Category not found",
		})
	}

	// Refuse to orphan products or child categories.
	var productCount int64
	database.GetDB().Model(&model.Product{}).Where("category_id = ?", id).Count(&productCount)
	if productCount > 0 {
		log.Warn("Cannot delete category that is being used by products",
			zap.String("category_id", id),
			zap.Int64("product_count", productCount))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot delete category that is being used by products",
		})
	}
	var childCount int64
	database.GetDB().Model(&model.Category{}).Where("parent_id = ?", id).Count(&childCount)
	if childCount > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot delete category that has child categories",
		})
	}

	result := database.GetDB().Delete(&category)
	if result.Error != nil {
		log.Error("Failed to delete category",
			zap.String("category_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete category",
		})
	}

	log.Info("Category deleted successfully", zap.String("category_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Category deleted successfully",
	})
}
