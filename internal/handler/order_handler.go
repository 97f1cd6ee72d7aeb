package handler

import (
	"net/http"

	"furniture-service/internal/capability"
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

// OrderRequest creates an order from the caller's cart
type OrderRequest struct {
	BranchID          *uint           `json:"branch_id"`
	ShippingAddressID uint            `json:"shipping_address_id" validate:"required"`
	PaymentMethod     string          `json:"payment_method"`
	ShippingNotes     string          `json:"shipping_notes"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
}

// OrderStatusRequest moves an order to a new status
type OrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	Notes          string `json:"notes"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

// OrderPaymentRequest updates payment status and method
type OrderPaymentRequest struct {
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
}

// OrderCancelRequest carries an optional cancellation note
type OrderCancelRequest struct {
	Notes string `json:"notes"`
}

// CreateOrder snapshots the caller's cart into a new order
func CreateOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.ShippingAddressID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shipping_address_id is required"})
	}

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.CreateFromCart(c.Request().Context(), actor.UserID, service.CreateOrderInput{
		BranchID:          req.BranchID,
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
		ShippingNotes:     req.ShippingNotes,
		ShippingCost:      req.ShippingCost,
	})
	if err != nil {
		log.Warn("Order creation rejected", zap.Uint("user_id", actor.UserID), zap.Error(err))
		return serviceError(c, err)
	}

	prometheus.OrdersCreatedCounter.Inc()
	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", actor.UserID))
	return c.JSON(http.StatusCreated, order)
}

// ListOrders retrieves orders with optional filters (staff view)
func ListOrders(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if paymentStatus := c.QueryParam("payment_status"); paymentStatus != "" {
		query = query.Where("payment_status = ?", paymentStatus)
	}
	if branchID := c.QueryParam("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}

	var orders []model.Order
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve orders",
		})
	}
	return c.JSON(http.StatusOK, orders)
}

// ListMyOrders retrieves the caller's own orders
func ListMyOrders(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var orders []model.Order
	err := database.GetDB().
		Preload("Items").
		Where("user_id = ?", actor.UserID).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve orders",
		})
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder retrieves one order. Customers only see their own orders;
// staff holding the orders:view capability see all of them.
func GetOrder(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}

	if !actor.Can(capability.ViewOrders) {
		if order.UserID == nil || *order.UserID != actor.UserID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus transitions an order through its lifecycle
func UpdateOrderStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	actorID := actor.UserID
	svc := service.NewOrderService(database.GetDB())
	order, err := svc.Transition(c.Request().Context(), id, req.Status, &actorID, req.Notes)
	if err != nil {
		log.Warn("Order transition rejected",
			zap.Uint("order_id", id),
			zap.String("status", req.Status),
			zap.Error(err))
		return serviceError(c, err)
	}

	// Shipment tracking details ride along with the status change.
	if req.TrackingNumber != "" || req.TrackingURL != "" {
		updates := map[string]interface{}{"processed_by_id": actorID}
		if req.TrackingNumber != "" {
			updates["tracking_number"] = req.TrackingNumber
		}
		if req.TrackingURL != "" {
			updates["tracking_url"] = req.TrackingURL
		}
		if err := database.GetDB().Model(&model.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			log.Error("Failed to store tracking details", zap.Uint("order_id", order.ID), zap.Error(err))
		} else if order, err = svc.Get(c.Request().Context(), order.ID); err != nil {
			return serviceError(c, err)
		}
	}

	prometheus.RecordOrderTransition(order.Status)
	log.Info("Order status changed",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderPayment updates payment status and method
func UpdateOrderPayment(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	var req OrderPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	actorID := actor.UserID
	svc := service.NewOrderService(database.GetDB())
	order, err := svc.UpdatePayment(c.Request().Context(), id, req.PaymentStatus, req.PaymentMethod, &actorID)
	if err != nil {
		log.Warn("Order payment update rejected", zap.Uint("order_id", id), zap.Error(err))
		return serviceError(c, err)
	}

	log.Info("Order payment updated",
		zap.Uint("order_id", order.ID),
		zap.String("payment_status", order.PaymentStatus))
	return c.JSON(http.StatusOK, order)
}

// CancelOrder cancels an order on behalf of its owner. Staff holding
// orders:manage may cancel any order.
func CancelOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	var req OrderCancelRequest
	_ = c.Bind(&req)

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	if !actor.Can(capability.ManageOrders) {
		if order.UserID == nil || *order.UserID != actor.UserID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
	}

	actorID := actor.UserID
	order, err = svc.Cancel(c.Request().Context(), id, &actorID, req.Notes)
	if err != nil {
		log.Warn("Order cancellation rejected", zap.Uint("order_id", id), zap.Error(err))
		return serviceError(c, err)
	}

	prometheus.RecordOrderTransition(order.Status)
	log.Info("Order cancelled",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber))
	return c.JSON(http.StatusOK, order)
}

// GetOrderTracking lists the audit trail of an order
func GetOrderTracking(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	svc := service.NewOrderService(database.GetDB())
	order, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	if !actor.Can(capability.ViewOrders) {
		if order.UserID == nil || *order.UserID != actor.UserID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
	}

	var tracking []model.OrderTracking
	err = database.GetDB().
		Where("order_id = ?", order.ID).
		Order("id").
		Find(&tracking).Error
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve tracking entries",
		})
	}
	return c.JSON(http.StatusOK, tracking)
}

// GetOrderDashboardStats reports order counts by status and payment status
func GetOrderDashboardStats(c echo.Context) error {
	log := logger.FromEcho(c)

	db := database.GetDB()
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var byStatus []statusCount
	query := db.Model(&model.Order{}).Select("status, COUNT(*) AS count").Group("status")
	if branchID := c.QueryParam("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if err := query.Scan(&byStatus).Error; err != nil {
		log.Error("Failed to compute order stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute order stats",
		})
	}

	var byPayment []statusCount
	payQuery := db.Model(&model.Order{}).Select("payment_status AS status, COUNT(*) AS count").Group("payment_status")
	if branchID := c.QueryParam("branch_id"); branchID != "" {
		payQuery = payQuery.Where("branch_id = ?", branchID)
	}
	if err := payQuery.Scan(&byPayment).Error; err != nil {
		log.Error("Failed to compute payment stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute order stats",
		})
	}

	var total int64
	db.Model(&model.Order{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"total_orders":      total,
		"by_status":         byStatus,
		"by_payment_status": byPayment,
	})
}
