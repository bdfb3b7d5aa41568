package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	secret := []byte("test-secret")

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("order_abc|pay_xyz"))
	signature := hex.EncodeToString(mac.Sum(nil))

	require.True(t, VerifySignature("order_abc", "pay_xyz", signature, secret))
	require.False(t, VerifySignature("order_abc", "pay_other", signature, secret))
	require.False(t, VerifySignature("order_abc", "pay_xyz", "forged", secret))
	require.False(t, VerifySignature("order_abc", "pay_xyz", signature, []byte("other-secret")))
}
