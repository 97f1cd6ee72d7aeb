package handler

import (
	"net/http"
	"strconv"

	"furniture-service/internal/model"
	"furniture-service/pkg/database"
	"furniture-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SupplierRequest defines the structure for supplier creation/update requests
type SupplierRequest struct {
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required"`
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Website      string `json:"website"`
	Description  string `json:"description"`
	TaxID        string `json:"tax_id"`
	AssignedToID *uint  `json:"assigned_to_id"`
	IsActive     bool   `json:"is_active"`
}

// SupplierContactRequest defines the structure for contact creation/update requests
type SupplierContactRequest struct {
	Name      string `json:"name" validate:"required"`
	Title     string `json:"title"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	IsPrimary bool   `json:"is_primary"`
	Notes     string `json:"notes"`
}

// ListSuppliers retrieves all suppliers
func ListSuppliers(c echo.Context) error {
	log := logger.FromEcho(c)

	query := database.GetDB()
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		}
	}

	var suppliers []model.Supplier
	if err := query.Order("name").Find(&suppliers).Error; err != nil {
		log.Error("Failed to list suppliers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}
	return c.JSON(http.StatusOK, suppliers)
}

// GetSupplier retrieves a single supplier with its contacts
func GetSupplier(c echo.Context) error {
	id := c.Param("id")

	var supplier model.Supplier
	if err := database.GetDB().Preload("Contacts").First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}
	return c.JSON(http.StatusOK, supplier)
}

// CreateSupplier creates a new supplier
func CreateSupplier(c echo.Context) error {
	log := logger.FromEcho(c)

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Name == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and code are required"})
	}

	var count int64
	database.GetDB().Model(&model.Supplier{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		log.Warn("Supplier with this code already exists", zap.String("code", req.Code))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Supplier with this code already exists",
		})
	}

	supplier := model.Supplier{
		Name:         req.Name,
		Code:         req.Code,
		Address:      req.Address,
		City:         req.City,
		PostalCode:   req.PostalCode,
		Phone:        req.Phone,
		Email:        req.Email,
		Website:      req.Website,
		Description:  req.Description,
		TaxID:        req.TaxID,
		AssignedToID: req.AssignedToID,
		IsActive:     req.IsActive,
	}
	if err := database.GetDB().Create(&supplier).Error; err != nil {
		log.Error("Failed to create supplier", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create supplier",
		})
	}

	log.Info("Supplier created successfully",
		zap.Uint("supplier_id", supplier.ID),
		zap.String("code", supplier.Code))
	return c.JSON(http.StatusCreated, supplier)
}

// UpdateSupplier updates an existing supplier
func UpdateSupplier(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	if req.Code != supplier.Code {
		var count int64
		database.GetDB().Model(&model.Supplier{}).
			Where("code = ? AND id != ?", req.Code, id).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Supplier with this code already exists",
			})
		}
	}

	supplier.Name = req.Name
	supplier.Code = req.Code
	supplier.Address = req.Address
	supplier.City = req.City
	supplier.PostalCode = req.PostalCode
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Website = req.Website
	supplier.Description = req.Description
	supplier.TaxID = req.TaxID
	supplier.AssignedToID = req.AssignedToID
	supplier.IsActive = req.IsActive

	if err := database.GetDB().Save(&supplier).Error; err != nil {
		log.Error("Failed to update supplier", zap.String("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}
	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier removes a supplier (soft delete)
func DeleteSupplier(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	// Suppliers with open purchase orders stay on record.
	var openPOs int64
	database.GetDB().Model(&model.PurchaseOrder{}).
		Where("supplier_id = ? AND status NOT IN ?", id, []string{model.POReceived, model.POCancelled}).
		Count(&openPOs)
	if openPOs > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot delete supplier with open purchase orders",
		})
	}

	result := database.GetDB().Delete(&model.Supplier{}, id)
	if result.Error != nil {
		log.Error("Failed to delete supplier", zap.String("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete supplier",
		})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Supplier deleted successfully"})
}

// ListSupplierContacts lists the contacts of a supplier
func ListSupplierContacts(c echo.Context) error {
	id := c.Param("id")

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	var contacts []model.SupplierContact
	if err := database.GetDB().Where("supplier_id = ?", supplier.ID).Order("id").Find(&contacts).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve contacts",
		})
	}
	return c.JSON(http.StatusOK, contacts)
}

// CreateSupplierContact adds a contact to a supplier. Saving a primary
// contact demotes the supplier's other primary contacts.
func CreateSupplierContact(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req SupplierContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	contact := model.SupplierContact{
		SupplierID: supplier.ID,
		Name:       req.Name,
		Title:      req.Title,
		Phone:      req.Phone,
		Email:      req.Email,
		IsPrimary:  req.IsPrimary,
		Notes:      req.Notes,
	}
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.IsPrimary {
			if err := tx.Model(&model.SupplierContact{}).
				Where("supplier_id = ? AND is_primary = ?", supplier.ID, true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&contact).Error
	})
	if err != nil {
		log.Error("Failed to create supplier contact",
			zap.Uint("supplier_id", supplier.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create contact",
		})
	}

	return c.JSON(http.StatusCreated, contact)
}

// UpdateSupplierContact updates a supplier contact, demoting other
// primaries when this one becomes primary
func UpdateSupplierContact(c echo.Context) error {
	log := logger.FromEcho(c)
	supplierID := c.Param("id")
	contactID := c.Param("contact_id")

	var req SupplierContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var contact model.SupplierContact
	err := database.GetDB().
		Where("id = ? AND supplier_id = ?", contactID, supplierID).
		First(&contact).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contact not found"})
	}

	contact.Name = req.Name
	contact.Title = req.Title
	contact.Phone = req.Phone
	contact.Email = req.Email
	contact.IsPrimary = req.IsPrimary
	contact.Notes = req.Notes

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.IsPrimary {
			if err := tx.Model(&model.SupplierContact{}).
				Where("supplier_id = ? AND is_primary = ? AND id != ?", contact.SupplierID, true, contact.ID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(&contact).Error
	})
	if err != nil {
		log.Error("Failed to update supplier contact",
			zap.String("contact_id", contactID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update contact",
		})
	}
	return c.JSON(http.StatusOK, contact)
}

// DeleteSupplierContact removes a supplier contact
func DeleteSupplierContact(c echo.Context) error {
	supplierID := c.Param("id")
	contactID := c.Param("contact_id")

	result := database.GetDB().
		Where("id = ? AND supplier_id = ?", contactID, supplierID).
		Delete(&model.SupplierContact{})
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete contact",
		})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contact not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Contact deleted successfully"})
}

// ListSupplierPurchaseOrders lists the purchase orders placed with a supplier
func ListSupplierPurchaseOrders(c echo.Context) error {
	id := c.Param("id")

	var supplier model.Supplier
	if err := database.GetDB().First(&supplier, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Supplier not found"})
	}

	query := database.GetDB().Where("supplier_id = ?", supplier.ID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []model.PurchaseOrder
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}
	return c.JSON(http.StatusOK, orders)
}
