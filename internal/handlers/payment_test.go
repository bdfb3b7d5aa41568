package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmazurov/storefront/internal/models"
)

func signPayment(secret []byte, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateGatewayOrder(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env, "buyer@example.com", "user", "password")
	product := createProduct(t, env, "keyboard", 499.50, 5)

	order := createOrderFor(t, env, user, models.StatusPending, false, models.OrderItem{
		ProductID: product.ID, Name: product.Name, Price: product.Price, Quantity: 2,
	})

	rec, c := env.doJSONRequest(http.MethodPost, "/api/payments/razorpay/create-order", map[string]any{
		"order_id": order.ID,
	})
	asUser(c, user)
	require.NoError(t, env.Payment.CreateGatewayOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RazorpayOrderID string `json:"razorpay_order_id"`
		Amount          int64  `json:"amount"`
		Key             string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "order_test123", resp.RazorpayOrderID)
	require.Equal(t, int64(99900), resp.Amount)
	require.Equal(t, "rzp_test_key", resp.Key)
	require.Equal(t, "INR", env.Gateway.LastCurrency)
}

func TestCreateGatewayOrderGuards(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env, "buyer@example.com", "user", "password")
	other := createUser(t, env, "other@example.com", "user", "password")
	product := createProduct(t, env, "keyboard", 50, 5)

	paid := createOrderFor(t, env, user, models.StatusPending, true, models.OrderItem{
		ProductID: product.ID, Name: product.Name, Price: product.Price, Quantity: 1,
	})

	_, cPaid := env.doJSONRequest(http.MethodPost, "/api/payments/razorpay/create-order", map[string]any{
		"order_id": paid.ID,
	})
	asUser(cPaid, user)
	he := httpError(t, env.Payment.CreateGatewayOrder(cPaid))
	require.Equal(t, http.StatusBadRequest, he.Code)

	_, cOther := env.doJSONRequest(http.MethodPost, "/api/payments/razorpay/create-order", map[string]any{
		"order_id": paid.ID,
	})
	asUser(cOther, other)
	he = httpError(t, env.Payment.CreateGatewayOrder(cOther))
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestVerifyPayment(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env, "buyer@example.com", "user", "password")
	product := createProduct(t, env, "keyboard", 50, 5)

	order := createOrderFor(t, env, user, models.StatusPending, false, models.OrderItem{
		ProductID: product.ID, Name: product.Name, Price: product.Price, Quantity: 1,
	})

	signature := signPayment(env.Payment.KeySecret, "order_test123", "pay_test456")
	rec, c := env.doJSONRequest(http.MethodPost, "/api/payments/razorpay/verify", map[string]any{
		"order_id":            order.ID,
		"razorpay_order_id":   "order_test123",
		"razorpay_payment_id": "pay_test456",
		"razorpay_signature":  signature,
	})
	asUser(c, user)
	require.NoError(t, env.Payment.VerifyPayment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Order
	require.NoError(t, env.DB.First(&stored, order.ID).Error)
	require.True(t, stored.IsPaid)
	require.NotNil(t, stored.PaidAt)
	require.Equal(t, "pay_test456", stored.Payment.RazorpayPaymentID)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	env := newTestEnv(t)
	user := createUser(t, env, "buyer@example.com", "user", "password")
	product := createProduct(t, env, "keyboard", 50, 5)

	order := createOrderFor(t, env, user, models.StatusPending, false, models.OrderItem{
		ProductID: product.ID, Name: product.Name, Price: product.Price, Quantity: 1,
	})

	_, c := env.doJSONRequest(http.MethodPost, "/api/payments/razorpay/verify", map[string]any{
		"order_id":            order.ID,
		"razorpay_order_id":   "order_test123",
		"razorpay_payment_id": "pay_test456",
		"razorpay_signature":  "forged",
	})
	asUser(c, user)
	he := httpError(t, env.Payment.VerifyPayment(c))
	require.Equal(t, http.StatusBadRequest, he.Code)

	var stored models.Order
	require.NoError(t, env.DB.First(&stored, order.ID).Error)
	require.False(t, stored.IsPaid)
}
