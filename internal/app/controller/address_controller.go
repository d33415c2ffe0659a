package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/service"
	apperrors "github.com/veloura/veloura-backend/internal/errors"
	"github.com/veloura/veloura-backend/internal/middleware"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type AddressRequest struct {
	Name          string `json:"name" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	StreetAddress string `json:"street_address" binding:"required"`
	Apartment     string `json:"apartment"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required"`
	PostalCode    string `json:"postal_code" binding:"required"`
	Country       string `json:"country"`
	IsDefault     bool   `json:"is_default"`
}

func (req *AddressRequest) toModel() *model.Address {
	return &model.Address{
		Name:          req.Name,
		Phone:         req.Phone,
		StreetAddress: req.StreetAddress,
		Apartment:     req.Apartment,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}
}

// ListAddresses returns user's addresses
// GET /api/v1/addresses
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to addresses", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	addresses, err := ctrl.addressService.GetUserAddresses(userID)
	if err != nil {
		log.Error("Failed to fetch addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch addresses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// CreateAddress adds a shipping address
// POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to create address", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid address request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid address details")
		return
	}

	address := req.toModel()
	if err := ctrl.addressService.CreateAddress(userID, address); err != nil {
		log.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to create address")
		return
	}

	log.Info("Address created successfully", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Address created successfully",
		"address": address,
	})
}

// UpdateAddress updates an address the user owns
// PUT /api/v1/addresses/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to update address", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid address ID format", map[string]interface{}{
			"user_id":    userID,
			"address_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid address ID")
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid address update request", map[string]interface{}{
			"user_id":    userID,
			"address_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid address details")
		return
	}

	if err := ctrl.addressService.UpdateAddress(userID, uint(id), req.toModel()); err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			log.Warn("Address not found for update", map[string]interface{}{
				"user_id":    userID,
				"address_id": id,
			})
			apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
			return
		}
		log.Error("Failed to update address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": id,
		})
		apperrors.InternalError(c, "Failed to update address")
		return
	}

	log.Info("Address updated successfully", map[string]interface{}{
		"user_id":    userID,
		"address_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Address updated successfully",
	})
}

// DeleteAddress removes an address the user owns
// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to delete address", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid address ID format", map[string]interface{}{
			"user_id":    userID,
			"address_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid address ID")
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, uint(id)); err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			log.Warn("Address not found for deletion", map[string]interface{}{
				"user_id":    userID,
				"address_id": id,
			})
			apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
			return
		}
		log.Error("Failed to delete address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": id,
		})
		apperrors.InternalError(c, "Failed to delete address")
		return
	}

	log.Info("Address deleted successfully", map[string]interface{}{
		"user_id":    userID,
		"address_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Address deleted successfully",
	})
}

// SetDefaultAddress marks one address as the default
// PUT /api/v1/addresses/:id/default
func (ctrl *AddressController) SetDefaultAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to set default address", nil)
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid address ID format", map[string]interface{}{
			"user_id":    userID,
			"address_id": idStr,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid address ID")
		return
	}

	if err := ctrl.addressService.SetDefaultAddress(userID, uint(id)); err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			log.Warn("Address not found for default", map[string]interface{}{
				"user_id":    userID,
				"address_id": id,
			})
			apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
			return
		}
		log.Error("Failed to set default address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": id,
		})
		apperrors.InternalError(c, "Failed to set default address")
		return
	}

	log.Info("Default address updated", map[string]interface{}{
		"user_id":    userID,
		"address_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Default address updated",
	})
}
