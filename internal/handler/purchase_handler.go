package handler

import (
	"net/http"
	"time"

	"furniture-service/internal/middleware"
	"furniture-service/internal/model"
	"furniture-service/internal/service"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"
	"furniture-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseOrderItemRequest is one product line in a purchase order request
type PurchaseOrderItemRequest struct {
	ProductID       uint            `json:"product_id" validate:"required"`
	VariantID       *uint           `json:"variant_id"`
	QuantityOrdered int             `json:"quantity_ordered" validate:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"required"`
}

// PurchaseOrderRequest defines the structure for purchase order creation
type PurchaseOrderRequest struct {
	SupplierID           uint                       `json:"supplier_id" validate:"required"`
	BranchID             uint                       `json:"branch_id" validate:"required"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date"`
	Notes                string                     `json:"notes"`
	SupplierReference    string                     `json:"supplier_reference"`
	Tax                  decimal.Decimal            `json:"tax"`
	ShippingCost         decimal.Decimal            `json:"shipping_cost"`
	Discount             decimal.Decimal            `json:"discount"`
	Items                []PurchaseOrderItemRequest `json:"items"`
}

// ReceiveLineRequest is one received quantity against a purchase order line
type ReceiveLineRequest struct {
	POItemID uint   `json:"po_item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Notes    string `json:"notes"`
}

// ReceiveRequest records one delivery against a purchase order
type ReceiveRequest struct {
	ReceiveDate *time.Time           `json:"receive_date"`
	Reference   string               `json:"reference"`
	Notes       string               `json:"notes"`
	Items       []ReceiveLineRequest `json:"items"`
}

// ListPurchaseOrders retrieves purchase orders with optional filters
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if branchID := c.QueryParam("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if supplierID := c.QueryParam("supplier_id"); supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}

	var orders []model.PurchaseOrder
	if err := query.Preload("Supplier").Order("id DESC").Find(&orders).Error; err != nil {
		log.Error("Failed to list purchase orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}
	return c.JSON(http.StatusOK, orders)
}

// GetPurchaseOrder retrieves one purchase order with its items
func GetPurchaseOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase order id"})
	}

	svc := service.NewPurchaseOrderService(database.GetDB())
	po, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

// CreatePurchaseOrder opens a purchase order in DRAFT
func CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.SupplierID == 0 || req.BranchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "supplier_id and branch_id are required"})
	}

	items := make([]service.POItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.POItemInput{
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			QuantityOrdered: item.QuantityOrdered,
			UnitPrice:       item.UnitPrice,
		})
	}

	svc := service.NewPurchaseOrderService(database.GetDB())
	po, err := svc.Create(c.Request().Context(), actor.UserID, service.CreatePOInput{
		SupplierID:           req.SupplierID,
		BranchID:             req.BranchID,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Notes:                req.Notes,
		SupplierReference:    req.SupplierReference,
		Tax:                  req.Tax,
		ShippingCost:         req.ShippingCost,
		Discount:             req.Discount,
		Items:                items,
	})
	if err != nil {
		log.Warn("Purchase order creation rejected", zap.Error(err))
		return serviceError(c, err)
	}

	log.Info("Purchase order created",
		zap.Uint("po_id", po.ID),
		zap.String("po_number", po.PONumber),
		zap.Uint("supplier_id", po.SupplierID))
	return c.JSON(http.StatusCreated, po)
}

// AddPurchaseOrderItem appends a line to a purchase order
func AddPurchaseOrderItem(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase order id"})
	}

	var req PurchaseOrderItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.NewPurchaseOrderService(database.GetDB())
	po, err := svc.AddItem(c.Request().Context(), id, service.POItemInput{
		ProductID:       req.ProductID,
		VariantID:       req.VariantID,
		QuantityOrdered: req.QuantityOrdered,
		UnitPrice:       req.UnitPrice,
	})
	if err != nil {
		log.Warn("Purchase order item rejected", zap.Uint("po_id", id), zap.Error(err))
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

// UpdatePurchaseOrderItem changes a line's ordered quantity or unit price
func UpdatePurchaseOrderItem(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase order id"})
	}
	itemID, err := parseID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	var req PurchaseOrderItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.NewPurchaseOrderService(database.GetDB())
	po, err := svc.UpdateItem(c.Request().Context(), id, itemID, req.QuantityOrdered, req.UnitPrice)
	if err != nil {
		log.Warn("Purchase order item update rejected",
			zap.Uint("po_id", id),
			zap.Uint("item_id", itemID),
			zap.Error(err))
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

// SubmitPurchaseOrder moves a draft into the approval queue
func SubmitPurchaseOrder(c echo.Context) error {
	return poStep(c, func(svc *service.PurchaseOrderService, id uint) (*model.PurchaseOrder, error) {
		return svc.Submit(c.Request().Context(), id)
	})
}

// ApprovePurchaseOrder approves a pending purchase order
func ApprovePurchaseOrder(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return poStep(c, func(svc *service.PurchaseOrderService, id uint) (*model.PurchaseOrder, error) {
		return svc.Approve(c.Request().Context(), id, actor.UserID)
	})
}

// MarkPurchaseOrderOrdered records that the purchase order was placed
// with the supplier
func MarkPurchaseOrderOrdered(c echo.Context) error {
	return poStep(c, func(svc *service.PurchaseOrderService, id uint) (*model.PurchaseOrder, error) {
		return svc.MarkOrdered(c.Request().Context(), id)
	})
}

// CancelPurchaseOrder aborts a purchase order
func CancelPurchaseOrder(c echo.Context) error {
	return poStep(c, func(svc *service.PurchaseOrderService, id uint) (*model.PurchaseOrder, error) {
		return svc.Cancel(c.Request().Context(), id)
	})
}

func poStep(c echo.Context, step func(svc *service.PurchaseOrderService, id uint) (*model.PurchaseOrder, error)) error {
	log := logger.FromEcho(c)
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase order id"})
	}

	svc := service.NewPurchaseOrderService(database.GetDB())
	po, err := step(svc, id)
	if err != nil {
		log.Warn("Purchase order action rejected", zap.Uint("po_id", id), zap.Error(err))
		return serviceError(c, err)
	}

	log.Info("Purchase order status changed",
		zap.Uint("po_id", po.ID),
		zap.String("po_number", po.PONumber),
		zap.String("status", po.Status))
	return c.JSON(http.StatusOK, po)
}

// ReceivePurchaseOrder records a delivery against a purchase order
func ReceivePurchaseOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase order id"})
	}

	var req ReceiveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	lines := make([]service.ReceiveLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.ReceiveLineInput{
			POItemID: item.POItemID,
			Quantity: item.Quantity,
			Notes:    item.Notes,
		})
	}
	in := service.ReceiveInput{
		Reference: req.Reference,
		Notes:     req.Notes,
		Lines:     lines,
	}
	if req.ReceiveDate != nil {
		in.ReceiveDate = *req.ReceiveDate
	}

	svc := service.NewPurchaseOrderService(database.GetDB())
	receive, err := svc.Receive(c.Request().Context(), id, actor.UserID, in)
	if err != nil {
		log.Warn("Purchase order receive rejected", zap.Uint("po_id", id), zap.Error(err))
		return serviceError(c, err)
	}

	prometheus.PurchaseReceivesCounter.Inc()
	prometheus.RecordStockMovement(model.MovementAddition)
	log.Info("Purchase order delivery received",
		zap.Uint("po_id", id),
		zap.Uint("receive_id", receive.ID),
		zap.Int("lines", len(receive.Items)))
	return c.JSON(http.StatusCreated, receive)
}

// ListPurchaseOrderReceives lists the deliveries recorded against a
// purchase order
func ListPurchaseOrderReceives(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase order id"})
	}

	var po model.PurchaseOrder
	if err := database.GetDB().First(&po, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Purchase order not found"})
	}

	var receives []model.PurchaseOrderReceive
	err = database.GetDB().
		Preload("Items").
		Where("purchase_order_id = ?", po.ID).
		Order("id").
		Find(&receives).Error
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve receives",
		})
	}
	return c.JSON(http.StatusOK, receives)
}
