package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/middleware/auth"
	"github.com/kmazurov/storefront/internal/models"
	"github.com/kmazurov/storefront/internal/mykafka"
	"github.com/kmazurov/storefront/internal/payment"
)

type PaymentHandler struct {
	DB        *gorm.DB
	Gateway   payment.Gateway
	KeyID     string
	KeySecret []byte
	Producer  *mykafka.Producer
}

func (h *PaymentHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "payment_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *PaymentHandler) loadOwnOrder(c echo.Context, orderID uint) (*models.Order, error) {
	userID, err := auth.UserID(c)
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := h.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not your order")
	}
	return &order, nil
}

// CreateGatewayOrder opens a payment intent on the gateway for the order's
// total, in paise.
func (h *PaymentHandler) CreateGatewayOrder(c echo.Context) error {
	var req struct {
		OrderID uint `json:"order_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.loadOwnOrder(c, req.OrderID)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return echo.NewHTTPError(http.StatusBadRequest, "order already paid")
	}

	amountPaise := int64(order.TotalPrice * 100)
	gatewayOrderID, err := h.Gateway.CreateOrder(amountPaise, "INR", fmt.Sprint(order.ID))
	if err != nil {
		c.Logger().Errorf("gateway order create failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "payment order creation failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"razorpay_order_id": gatewayOrderID,
		"amount":            amountPaise,
		"key":               h.KeyID,
	})
}

// VerifyPayment validates the gateway signature and flips the order to paid.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req struct {
		OrderID           uint   `json:"order_id"`
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if !payment.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, h.KeySecret) {
		return echo.NewHTTPError(http.StatusBadRequest, "payment verification failed")
	}

	order, err := h.loadOwnOrder(c, req.OrderID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	order.IsPaid = true
	order.PaidAt = &now
	order.Payment = models.PaymentResult{
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpaySignature: req.RazorpaySignature,
	}

	if err := h.DB.Save(order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "payment_verified",
		"orderID":   order.ID,
		"paymentID": req.RazorpayPaymentID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "payment verified successfully",
		"order":   order,
	})
}
