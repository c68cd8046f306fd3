package enums

import (
	"fmt"
	"strings"
)

// PaymentMode is the closed set of ways a customer can pay for an order.
type PaymentMode string

const (
	PaymentModeOnline PaymentMode = "online"
	PaymentModeCOD    PaymentMode = "cod"
	// PaymentModeManual covers direct UPI/QR transfers proven by an uploaded
	// screenshot that an admin verifies by hand.
	PaymentModeManual PaymentMode = "manual"
)

var validPaymentModes = []PaymentMode{
	PaymentModeOnline,
	PaymentModeCOD,
	PaymentModeManual,
}

// manualModeAliases are the legacy client spellings that all mean manual proof.
var manualModeAliases = map[string]struct{}{
	"manual":  {},
	"scanner": {},
	"upi":     {},
	"qr":      {},
}

// String implements fmt.Stringer.
func (p PaymentMode) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMode.
func (p PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts raw client input into a PaymentMode. The manual
// aliases scanner/upi/qr used by older app builds are folded into
// PaymentModeManual.
func ParsePaymentMode(value string) (PaymentMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if _, ok := manualModeAliases[normalized]; ok {
		return PaymentModeManual, nil
	}
	switch PaymentMode(normalized) {
	case PaymentModeOnline:
		return PaymentModeOnline, nil
	case PaymentModeCOD:
		return PaymentModeCOD, nil
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}
