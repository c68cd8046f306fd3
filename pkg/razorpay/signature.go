package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

// VerifyPaymentSignature checks the checkout-callback signature the client
// forwards after a successful payment. The gateway signs
// "<order_id>|<payment_id>" with the key secret.
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	return verifyHex([]byte(gatewayOrderID+"|"+gatewayPaymentID), signature, c.keySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body using the webhook secret.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) error {
	return verifyHex(body, signature, c.webhookSecret)
}

func verifyHex(payload []byte, signature, secret string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "signature is required")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "signature mismatch")
	}
	return nil
}
