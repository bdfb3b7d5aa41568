package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/inventory"
	"github.com/kmazurov/storefront/internal/middleware/auth"
	"github.com/kmazurov/storefront/internal/models"
	"github.com/kmazurov/storefront/internal/mykafka"
	"github.com/kmazurov/storefront/internal/util"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type orderLine struct {
	ProductID uint `json:"product_id"`
	Qty       uint `json:"qty"`
}

type createOrderRequest struct {
	OrderItems      []orderLine            `json:"order_items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	SaveAddress     bool                   `json:"save_address"`
}

func validateShipping(addr *models.ShippingAddress) error {
	if addr.FullName == "" || addr.Phone == "" || addr.AddressLine1 == "" ||
		addr.City == "" || addr.State == "" || addr.PostalCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "incomplete shipping address")
	}
	if addr.Country == "" {
		addr.Country = "India"
	}
	return nil
}

// CreateOrder reserves stock for every line item and persists the order with
// name/price/image snapshots, all inside one transaction. Items are
// processed in ascending product-id order so concurrent multi-item orders
// touch products in the same sequence.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.OrderItems) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no order items")
	}
	for _, line := range req.OrderItems {
		if line.Qty == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "quantity must be greater than 0")
		}
	}
	if err := validateShipping(&req.ShippingAddress); err != nil {
		return err
	}

	lines := make([]orderLine, len(req.OrderItems))
	copy(lines, req.OrderItems)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var order models.Order

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var (
			total float64
			items []models.OrderItem
		)

		for _, line := range lines {
			var p models.Product
			if err := tx.First(&p, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, "product not found")
				}
				return err
			}

			if err := inventory.Reserve(tx, line.ProductID, line.Qty); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) {
					return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("insufficient stock for %s", p.Name))
				}
				if errors.Is(err, inventory.ErrProductNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, "product not found")
				}
				return err
			}

			total += p.Price * float64(line.Qty)
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Image:     p.Image,
				Quantity:  line.Qty,
			})
		}

		uid := userID
		order = models.Order{
			UserID:     &uid,
			Items:      items,
			Shipping:   req.ShippingAddress,
			TotalPrice: total,
			Status:     models.StatusPending,
			IsPaid:     false,
			CreatedAt:  time.Now().Unix(),
		}
		return tx.Create(&order).Error
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	if req.SaveAddress {
		addr := models.Address{
			UserID:       userID,
			FullName:     req.ShippingAddress.FullName,
			Phone:        req.ShippingAddress.Phone,
			AddressLine1: req.ShippingAddress.AddressLine1,
			AddressLine2: req.ShippingAddress.AddressLine2,
			City:         req.ShippingAddress.City,
			State:        req.ShippingAddress.State,
			PostalCode:   req.ShippingAddress.PostalCode,
			Country:      req.ShippingAddress.Country,
			CreatedAt:    time.Now().Unix(),
		}
		if err := h.DB.Create(&addr).Error; err != nil {
			c.Logger().Errorf("address save after order %d failed: %v", order.ID, err)
		}
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  userID,
		"total":   order.TotalPrice,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetMyOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.DB.Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetAllOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	query := h.DB.Model(&models.Order{})
	if status := c.QueryParam("status"); status != "" {
		if _, ok := models.StatusRank(status); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
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

	return c.JSON(http.StatusOK, order)
}

// UpdateStatus moves a paid order forward through the lifecycle. Backward
// and same-status targets are rejected, delivered orders are immutable.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !order.IsPaid {
		return echo.NewHTTPError(http.StatusBadRequest, "order must be paid before updating status")
	}
	if order.Status == models.StatusDelivered {
		return echo.NewHTTPError(http.StatusBadRequest, "delivered orders cannot be modified")
	}

	newRank, ok := models.StatusRank(req.Status)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	curRank, _ := models.StatusRank(order.Status)
	if newRank <= curRank {
		return echo.NewHTTPError(http.StatusBadRequest, "status can only move forward")
	}

	order.Status = req.Status
	if err := h.DB.Save(&order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"orderID": order.ID,
		"status":  order.Status,
	})

	return c.JSON(http.StatusOK, order)
}

// removeOrderWithRestore puts every line item's quantity back onto the
// product's stock and deletes the order. Must run inside a transaction.
func removeOrderWithRestore(tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if err := inventory.Restore(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Order{}, order.ID).Error
}

// CancelOrder is the user-facing removal path: own, unpaid, not yet shipped.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
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

	if order.UserID == nil || *order.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	}
	if order.Status == models.StatusDelivered {
		return echo.NewHTTPError(http.StatusBadRequest, "delivered orders cannot be cancelled")
	}
	if order.Status == models.StatusShipped {
		return echo.NewHTTPError(http.StatusBadRequest, "shipped orders cannot be cancelled")
	}
	if order.IsPaid {
		return echo.NewHTTPError(http.StatusBadRequest, "paid orders cannot be cancelled")
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		return removeOrderWithRestore(tx, &order)
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_cancelled",
		"orderID": order.ID,
		"userID":  userID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled and stock restored"})
}

// DeleteOrder is the admin removal path: anything not yet delivered.
func (h *OrderHandler) DeleteOrder(c echo.Context) error {
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

	if order.Status == models.StatusDelivered {
		return echo.NewHTTPError(http.StatusBadRequest, "delivered orders cannot be deleted")
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		return removeOrderWithRestore(tx, &order)
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"orderID": order.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "order deleted and stock restored"})
}
