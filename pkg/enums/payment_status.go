package enums

import "fmt"

// PaymentStatus tracks how far an order's payment has progressed.
type PaymentStatus string

const (
	PaymentStatusPending             PaymentStatus = "PENDING"
	PaymentStatusCOD                 PaymentStatus = "COD"
	PaymentStatusPendingQR           PaymentStatus = "PENDING_QR"
	PaymentStatusVerificationPending PaymentStatus = "VERIFICATION_PENDING"
	PaymentStatusPaid                PaymentStatus = "PAID"
	PaymentStatusFailed              PaymentStatus = "FAILED"
	PaymentStatusRefunded            PaymentStatus = "REFUNDED"
)

var paymentStatusSet = map[PaymentStatus]struct{}{
	PaymentStatusPending:             {},
	PaymentStatusCOD:                 {},
	PaymentStatusPendingQR:           {},
	PaymentStatusVerificationPending: {},
	PaymentStatusPaid:                {},
	PaymentStatusFailed:              {},
	PaymentStatusRefunded:            {},
}

func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	_, ok := paymentStatusSet[p]
	return ok
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return status, nil
}
