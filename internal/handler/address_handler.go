package handler

import (
	"net/http"

	"furniture-service/internal/middleware"
	"furniture-service/internal/model"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShippingAddressRequest defines the structure for address creation/update
type ShippingAddressRequest struct {
	RecipientName string `json:"recipient_name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Address       string `json:"address" validate:"required"`
	City          string `json:"city" validate:"required"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

// ListShippingAddresses lists the caller's saved addresses
func ListShippingAddresses(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var addresses []model.UserShippingAddress
	err := database.GetDB().
		Where("user_id = ?", actor.UserID).
		Order("is_default DESC, id").
		Find(&addresses).Error
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve addresses",
		})
	}
	return c.JSON(http.StatusOK, addresses)
}

// CreateShippingAddress saves a new delivery address for the caller.
// Marking it default demotes the caller's other defaults.
func CreateShippingAddress(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ShippingAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.RecipientName == "" || req.Phone == "" || req.Address == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "recipient_name, phone, address and city are required",
		})
	}

	// The first address becomes the default automatically.
	var count int64
	database.GetDB().Model(&model.UserShippingAddress{}).
		Where("user_id = ?", actor.UserID).
		Count(&count)
	isDefault := req.IsDefault || count == 0

	address := model.UserShippingAddress{
		UserID:        actor.UserID,
		RecipientName: req.RecipientName,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		IsDefault:     isDefault,
	}
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if isDefault {
			if err := tx.Model(&model.UserShippingAddress{}).
				Where("user_id = ? AND is_default = ?", actor.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		log.Error("Failed to create shipping address",
			zap.Uint("user_id", actor.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create address",
		})
	}

	return c.JSON(http.StatusCreated, address)
}

// UpdateShippingAddress updates one of the caller's addresses
func UpdateShippingAddress(c echo.Context) error {
	log := logger.FromEcho(c)
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var req ShippingAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var address model.UserShippingAddress
	err := database.GetDB().
		Where("id = ? AND user_id = ?", id, actor.UserID).
		First(&address).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Address not found"})
	}

	address.RecipientName = req.RecipientName
	address.Phone = req.Phone
	address.Address = req.Address
	address.City = req.City
	address.PostalCode = req.PostalCode
	address.IsDefault = req.IsDefault

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&model.UserShippingAddress{}).
				Where("user_id = ? AND is_default = ? AND id != ?", actor.UserID, true, address.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(&address).Error
	})
	if err != nil {
		log.Error("Failed to update shipping address",
			zap.Uint("address_id", address.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update address",
		})
	}
	return c.JSON(http.StatusOK, address)
}

// DeleteShippingAddress removes one of the caller's addresses
func DeleteShippingAddress(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	result := database.GetDB().
		Where("id = ? AND user_id = ?", id, actor.UserID).
		Delete(&model.UserShippingAddress{})
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete address",
		})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Address not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Address deleted successfully"})
}
