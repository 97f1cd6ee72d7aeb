package handler

import (
	"net/http"

	"furniture-service/internal/middleware"
	"furniture-service/internal/service"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CartItemRequest adds or updates a cart line
type CartItemRequest struct {
	ProductID uint  `json:"product_id" validate:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// GetCart returns the caller's cart, creating it on first access
func GetCart(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	svc := service.NewCartService(database.GetDB())
	cart, err := svc.GetOrCreate(c.Request().Context(), actor.UserID)
	if err != nil {
		logger.FromEcho(c).Error("Failed to load cart", zap.Uint("user_id", actor.UserID), zap.Error(err))
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cart":        cart,
		"total_items": cart.TotalItems(),
		"subtotal":    cart.Subtotal(),
	})
}

// AddCartItem puts a product in the caller's cart
func AddCartItem(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.NewCartService(database.GetDB())
	cart, err := svc.AddItem(c.Request().Context(), actor.UserID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		log.Warn("Cart item rejected",
			zap.Uint("user_id", actor.UserID),
			zap.Uint("product_id", req.ProductID),
			zap.Error(err))
		return serviceError(c, err)
	}

	log.Info("Cart item added",
		zap.Uint("user_id", actor.UserID),
		zap.Uint("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity))
	return c.JSON(http.StatusOK, echo.Map{
		"cart":        cart,
		"total_items": cart.TotalItems(),
		"subtotal":    cart.Subtotal(),
	})
}

// UpdateCartItem sets a cart line's quantity
func UpdateCartItem(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	itemID, err := parseID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	var req CartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.NewCartService(database.GetDB())
	cart, err := svc.UpdateItem(c.Request().Context(), actor.UserID, itemID, req.Quantity)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cart":        cart,
		"total_items": cart.TotalItems(),
		"subtotal":    cart.Subtotal(),
	})
}

// RemoveCartItem deletes a line from the caller's cart
func RemoveCartItem(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	itemID, err := parseID(c, "item_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	svc := service.NewCartService(database.GetDB())
	cart, err := svc.RemoveItem(c.Request().Context(), actor.UserID, itemID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cart":        cart,
		"total_items": cart.TotalItems(),
		"subtotal":    cart.Subtotal(),
	})
}

// ClearCart removes every item from the caller's cart
func ClearCart(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	svc := service.NewCartService(database.GetDB())
	cart, err := svc.Clear(c.Request().Context(), actor.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cart":        cart,
		"total_items": cart.TotalItems(),
		"subtotal":    cart.Subtotal(),
	})
}
