package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway creates payment intents on the external provider. Only order
// creation goes through the SDK; signature verification is local.
type Gateway interface {
	CreateOrder(amountPaise int64, currency, receipt string) (string, error)
}

type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}
	id, ok := body["id"].(string)
	if !ok {
		return "", fmt.Errorf("razorpay order create: missing order id in response")
	}
	return id, nil
}

// VerifySignature checks the gateway callback: the signature must be the
// hex HMAC-SHA256 of "<gateway order id>|<payment id>" under the key secret.
func VerifySignature(gatewayOrderID, paymentID, signature string, keySecret []byte) bool {
	mac := hmac.New(sha256.New, keySecret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
