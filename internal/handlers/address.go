package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/middleware/auth"
	"github.com/kmazurov/storefront/internal/models"
)

type AddressHandler struct {
	DB *gorm.DB
}

func (h *AddressHandler) GetMyAddresses(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var addresses []models.Address
	if err := h.DB.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, addresses)
}

// CreateAddress persists a new address. Marking it default clears the flag
// on every other address of the same user, so at most one default exists.
func (h *AddressHandler) CreateAddress(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		FullName     string `json:"full_name"`
		Phone        string `json:"phone"`
		AddressLine1 string `json:"address_line1"`
		AddressLine2 string `json:"address_line2"`
		City         string `json:"city"`
		State        string `json:"state"`
		PostalCode   string `json:"postal_code"`
		Country      string `json:"country"`
		IsDefault    bool   `json:"is_default"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.FullName == "" || req.Phone == "" || req.AddressLine1 == "" ||
		req.City == "" || req.State == "" || req.PostalCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required fields")
	}
	if req.Country == "" {
		req.Country = "India"
	}

	address := models.Address{
		UserID:       userID,
		FullName:     req.FullName,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
		CreatedAt:    time.Now().Unix(),
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	return c.JSON(http.StatusCreated, address)
}
