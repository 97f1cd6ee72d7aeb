package handler

import (
	"net/http"
	"strconv"

	"furniture-service/internal/model"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"
	"furniture-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// BranchRequest defines the structure for branch creation/update requests
type BranchRequest struct {
	Name      string `json:"name" validate:"required"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	ManagerID *uint  `json:"manager_id"`
}

// ListBranches retrieves all branches
func ListBranches(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		}
	}

	var branches []model.Branch
	if err := query.Order("name").Find(&branches).Error; err != nil {
		log.Error("Failed to list branches", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve branches",
		})
	}
	return c.JSON(http.StatusOK, branches)
}

// GetBranch retrieves a single branch by ID
func GetBranch(c echo.Context) error {
	id := c.Param("id")

	var branch model.Branch
	if err := database.GetDB().First(&branch, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Branch not found"})
	}
	return c.JSON(http.StatusOK, branch)
}

// CreateBranch creates a new branch
func CreateBranch(c echo.Context) error {
	log := logger.FromEcho(c)

	var req BranchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	// A user manages at most one branch.
	if req.ManagerID != nil {
		var count int64
		database.GetDB().Model(&model.Branch{}).Where("manager_id = ?", *req.ManagerID).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "This user already manages another branch",
			})
		}
	}

	branch := model.Branch{
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		Phone:     req.Phone,
		Email:     req.Email,
		IsActive:  req.IsActive,
		ManagerID: req.ManagerID,
	}
	if err := database.GetDB().Create(&branch).Error; err != nil {
		log.Error("Failed to create branch", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create branch",
		})
	}

	log.Info("Branch created successfully",
		zap.Uint("branch_id", branch.ID),
		zap.String("name", branch.Name))
	return c.JSON(http.StatusCreated, branch)
}

// UpdateBranch updates an existing branch
func UpdateBranch(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req BranchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var branch model.Branch
	if err := database.GetDB().First(&branch, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Branch not found"})
	}

	if req.ManagerID != nil {
		var count int64
		database.GetDB().Model(&model.Branch{}).
			Where("manager_id = ? AND id != ?", *req.ManagerID, id).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "This user already manages another branch",
			})
		}
	}

	branch.Name = req.Name
	branch.Address = req.Address
	branch.City = req.City
	branch.Phone = req.Phone
	branch.Email = req.Email
	branch.IsActive = req.IsActive
	branch.ManagerID = req.ManagerID

	if err := database.GetDB().Save(&branch).Error; err != nil {
		log.Error("Failed to update branch", zap.String("branch_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update branch",
		})
	}
	return c.JSON(http.StatusOK, branch)
}

// DeleteBranch removes a branch (soft delete)
func DeleteBranch(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Branch{}, id)
	if result.Error != nil {
		log.Error("Failed to delete branch", zap.String("branch_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete branch",
		})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Branch not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Branch deleted successfully"})
}

// GetBranchStats reports stock coverage for one branch
func GetBranchStats(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var branch model.Branch
	if err := database.GetDB().First(&branch, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Branch not found"})
	}

	db := database.GetDB()
	var totalRecords, lowStock, outOfStock int64
	if err := db.Model(&model.Stock{}).Where("branch_id = ?", branch.ID).Count(&totalRecords).Error; err != nil {
		log.Error("Failed to compute branch stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute branch stats"})
	}
	db.Model(&model.Stock{}).
		Where("branch_id = ? AND quantity <= reorder_level", branch.ID).
		Count(&lowStock)
	db.Model(&model.Stock{}).
		Where("branch_id = ? AND quantity <= 0", branch.ID).
		Count(&outOfStock)

	var totalUnits int64
	db.Model(&model.Stock{}).Where("branch_id = ?", branch.ID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&totalUnits)

	prometheus.UpdateLowStock(strconv.FormatUint(uint64(branch.ID), 10), float64(lowStock))

	return c.JSON(http.StatusOK, echo.Map{
		"branch":              branch,
		"stock_records":       totalRecords,
		"total_units":         totalUnits,
		"low_stock_records":   lowStock,
		"out_of_stock_records": outOfStock,
	})
}

// ListBranchLowStock lists the stock records at or below their reorder level
func ListBranchLowStock(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var branch model.Branch
	if err := database.GetDB().First(&branch, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Branch not found"})
	}

	var stocks []model.Stock
	err := database.GetDB().
		Preload("Product").
		Preload("Variant").
		Where("branch_id = ? AND quantity <= reorder_level", branch.ID).
		Order("quantity").
		Find(&stocks).Error
	if err != nil {
		log.Error("Failed to list low stock", zap.String("branch_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve low stock records",
		})
	}
	return c.JSON(http.StatusOK, stocks)
}
