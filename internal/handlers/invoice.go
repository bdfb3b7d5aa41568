package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/invoice"
	"github.com/kmazurov/storefront/internal/middleware/auth"
	"github.com/kmazurov/storefront/internal/models"
)

type InvoiceHandler struct {
	DB *gorm.DB
}

// DownloadInvoice streams the PDF invoice for a paid order to its owner or
// an admin.
func (h *InvoiceHandler) DownloadInvoice(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	isOwner := order.UserID != nil && *order.UserID == userID
	if auth.Role(c) != "admin" && !isOwner {
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	}
	if !order.IsPaid {
		return echo.NewHTTPError(http.StatusBadRequest, "invoice available only after payment")
	}

	var customer *models.User
	if order.UserID != nil {
		var user models.User
		if err := h.DB.First(&user, *order.UserID).Error; err == nil {
			customer = &user
		}
	}

	data, err := invoice.Generate(&order, customer)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=invoice-%d.pdf", order.ID))
	return c.Blob(http.StatusOK, "application/pdf", data)
}
