package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signHex(t *testing.T, payload, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	client := &Client{keySecret: "key-secret", webhookSecret: "hook-secret"}

	sig := signHex(t, "order_abc|pay_xyz", "key-secret")
	if err := client.VerifyPaymentSignature("order_abc", "pay_xyz", sig); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	if err := client.VerifyPaymentSignature("order_abc", "pay_other", sig); err == nil {
		t.Fatal("expected mismatch for altered payment id")
	}
	if err := client.VerifyPaymentSignature("order_abc", "pay_xyz", ""); err == nil {
		t.Fatal("expected error for empty signature")
	}
}

func TestVerifyPaymentSignatureUsesKeySecretNotWebhookSecret(t *testing.T) {
	client := &Client{keySecret: "key-secret", webhookSecret: "hook-secret"}

	wrong := signHex(t, "order_abc|pay_xyz", "hook-secret")
	if err := client.VerifyPaymentSignature("order_abc", "pay_xyz", wrong); err == nil {
		t.Fatal("webhook secret must not validate a client signature")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := &Client{keySecret: "key-secret", webhookSecret: "hook-secret"}
	body := []byte(`{"event":"payment.captured"}`)

	sig := signHex(t, string(body), "hook-secret")
	if err := client.VerifyWebhookSignature(body, sig); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	tampered := append([]byte{}, body...)
	tampered[0] = ' '
	if err := client.VerifyWebhookSignature(tampered, sig); err == nil {
		t.Fatal("expected mismatch for tampered body")
	}
}
