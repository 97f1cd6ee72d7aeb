package handler

import (
	"net/http"
	"strconv"

	"furniture-service/internal/middleware"
	"furniture-service/internal/model"
	"furniture-service/internal/service"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"
	"furniture-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockRequest updates the mutable non-quantity stock fields
type StockRequest struct {
	ReorderLevel int `json:"reorder_level"`
}

// StockMovementRequest records an addition or removal
type StockMovementRequest struct {
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// StockAdjustRequest sets a stock quantity to an exact counted value
type StockAdjustRequest struct {
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// StockTransferRequest moves quantity to another branch
type StockTransferRequest struct {
	TargetBranchID uint   `json:"target_branch_id" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	Reference      string `json:"reference"`
	Notes          string `json:"notes"`
}

func actorIDFromContext(c echo.Context) *uint {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return nil
	}
	id := actor.UserID
	return &id
}

// ListStocks retrieves stock records with optional filters
func ListStocks(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB().Preload("Product").Preload("Variant")
	if branchID := c.QueryParam("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if productID := c.QueryParam("product_id"); productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	if lowStock := c.QueryParam("low_stock"); lowStock != "" {
		if low, err := strconv.ParseBool(lowStock); err == nil && low {
			query = query.Where("quantity <= reorder_level")
		}
	}

	var stocks []model.Stock
	if err := query.Order("id").Find(&stocks).Error; err != nil {
		log.Error("Failed to list stock records", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve stock records",
		})
	}
	return c.JSON(http.StatusOK, stocks)
}

// GetStock retrieves a single stock record
func GetStock(c echo.Context) error {
	id := c.Param("id")

	var stock model.Stock
	err := database.GetDB().Preload("Product").Preload("Variant").Preload("Branch").First(&stock, id).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Stock record not found"})
	}
	return c.JSON(http.StatusOK, stock)
}

// GetOrCreateStock resolves the stock record for a branch/product/variant
// triple, creating an empty record when the triple was never stocked
func GetOrCreateStock(c echo.Context) error {
	log := logger.FromEcho(c)

	branchID := parseOptionalUint(c, "branch_id")
	productID := parseOptionalUint(c, "product_id")
	if branchID == nil || productID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "branch_id and product_id are required",
		})
	}
	variantID := parseOptionalUint(c, "variant_id")

	svc := service.NewStockService(database.GetDB())
	stock, err := svc.GetOrCreate(c.Request().Context(), *branchID, *productID, variantID)
	if err != nil {
		log.Error("Failed to resolve stock record", zap.Error(err))
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, stock)
}

// UpdateStock changes a stock record's reorder level. The quantity
// itself only moves through movements.
func UpdateStock(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.ReorderLevel < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reorder_level must not be negative"})
	}

	var stock model.Stock
	if err := database.GetDB().First(&stock, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Stock record not found"})
	}

	if err := database.GetDB().Model(&stock).Update("reorder_level", req.ReorderLevel).Error; err != nil {
		log.Error("Failed to update stock record", zap.String("stock_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update stock record",
		})
	}
	return c.JSON(http.StatusOK, stock)
}

// AddStock records a journaled stock addition
func AddStock(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}

	var req StockMovementRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.NewStockService(database.GetDB())
	stock, err := svc.RecordAddition(c.Request().Context(), id, req.Quantity, actorIDFromContext(c), req.Reference, req.Notes)
	if err != nil {
		log.Warn("Stock addition rejected", zap.Uint("stock_id", id), zap.Error(err))
		return serviceError(c, err)
	}

	prometheus.RecordStockMovement(model.MovementAddition)
	log.Info("Stock addition recorded",
		zap.Uint("stock_id", stock.ID),
		zap.Int("quantity", req.Quantity),
		zap.Int("new_quantity", stock.Quantity))
	return c.JSON(http.StatusOK, stock)
}

// RemoveStock records a journaled stock removal
func RemoveStock(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}

	var req StockMovementRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.NewStockService(database.GetDB())
	stock, err := svc.RecordRemoval(c.Request().Context(), id, req.Quantity, actorIDFromContext(c), req.Reference, req.Notes)
	if err != nil {
		log.Warn("Stock removal rejected", zap.Uint("stock_id", id), zap.Error(err))
		return serviceError(c, err)
	}

	prometheus.RecordStockMovement(model.MovementRemoval)
	log.Info("Stock removal recorded",
		zap.Uint("stock_id", stock.ID),
		zap.Int("quantity", req.Quantity),
		zap.Int("new_quantity", stock.Quantity))
	return c.JSON(http.StatusOK, stock)
}

// AdjustStock sets a stock quantity to an exact counted value
func AdjustStock(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}

	var req StockAdjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.NewStockService(database.GetDB())
	stock, err := svc.Adjust(c.Request().Context(), id, req.Quantity, actorIDFromContext(c), req.Reference, req.Notes)
	if err != nil {
		log.Warn("Stock adjustment rejected", zap.Uint("stock_id", id), zap.Error(err))
		return serviceError(c, err)
	}

	prometheus.RecordStockMovement(model.MovementAdjustment)
	log.Info("Stock adjusted",
		zap.Uint("stock_id", stock.ID),
		zap.Int("quantity", stock.Quantity))
	return c.JSON(http.StatusOK, stock)
}

// TransferStock moves quantity to the same product at another branch
func TransferStock(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}

	var req StockTransferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.TargetBranchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target_branch_id is required"})
	}

	svc := service.NewStockService(database.GetDB())
	source, target, err := svc.Transfer(c.Request().Context(), id, req.TargetBranchID, req.Quantity, actorIDFromContext(c), req.Reference, req.Notes)
	if err != nil {
		log.Warn("Stock transfer rejected",
			zap.Uint("stock_id", id),
			zap.Uint("target_branch_id", req.TargetBranchID),
			zap.Error(err))
		return serviceError(c, err)
	}

	prometheus.RecordStockMovement(model.MovementTransfer)
	log.Info("Stock transferred",
		zap.Uint("source_stock_id", source.ID),
		zap.Uint("target_stock_id", target.ID),
		zap.Int("quantity", req.Quantity))
	return c.JSON(http.StatusOK, echo.Map{
		"source": source,
		"target": target,
	})
}

// ListStockMovements lists journal entries with optional filters
func ListStockMovements(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB().Model(&model.StockMovement{})
	if stockID := c.QueryParam("stock_id"); stockID != "" {
		query = query.Where("stock_id = ?", stockID)
	}
	if movementType := c.QueryParam("movement_type"); movementType != "" {
		query = query.Where("movement_type = ?", movementType)
	}
	branchID := c.QueryParam("branch_id")
	productID := c.QueryParam("product_id")
	if branchID != "" || productID != "" {
		query = query.Joins("JOIN stocks ON stocks.id = stock_movements.stock_id")
		if branchID != "" {
			query = query.Where("stocks.branch_id = ?", branchID)
		}
		if productID != "" {
			query = query.Where("stocks.product_id = ?", productID)
		}
	}

	var movements []model.StockMovement
	if err := query.Order("stock_movements.id DESC").Limit(200).Find(&movements).Error; err != nil {
		log.Error("Failed to list stock movements", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve stock movements",
		})
	}
	return c.JSON(http.StatusOK, movements)
}

// GetInventoryReport summarises stock levels and movement volume,
// optionally scoped to one branch
func GetInventoryReport(c echo.Context) error {
	log := logger.FromEcho(c)

	db := database.GetDB()
	branchID := c.QueryParam("branch_id")
	stocks := func() *gorm.DB {
		q := db.Model(&model.Stock{})
		if branchID != "" {
			q = q.Where("branch_id = ?", branchID)
		}
		return q
	}

	var totalRecords, lowStock, outOfStock, totalUnits int64
	if err := stocks().Count(&totalRecords).Error; err != nil {
		log.Error("Failed to compute inventory report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute inventory report",
		})
	}
	stocks().Where("quantity <= reorder_level").Count(&lowStock)
	stocks().Where("quantity <= 0").Count(&outOfStock)
	stocks().Select("COALESCE(SUM(quantity), 0)").Scan(&totalUnits)

	// Movement counts by type.
	type movementStat struct {
		MovementType string `json:"movement_type"`
		Count        int64  `json:"count"`
		Units        int64  `json:"units"`
	}
	var movementStats []movementStat
	movements := db.Model(&model.StockMovement{}).
		Select("movement_type, COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS units").
		Group("movement_type")
	if branchID != "" {
		movements = movements.
			Joins("JOIN stocks ON stocks.id = stock_movements.stock_id").
			Where("stocks.branch_id = ?", branchID)
	}
	if err := movements.Scan(&movementStats).Error; err != nil {
		log.Error("Failed to compute movement stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute inventory report",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"stock_records":        totalRecords,
		"total_units":          totalUnits,
		"low_stock_records":    lowStock,
		"out_of_stock_records": outOfStock,
		"movements_by_type":    movementStats,
	})
}
