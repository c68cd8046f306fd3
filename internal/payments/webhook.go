package payments

import "encoding/json"

// Webhook event names the service acts on. Everything else is acknowledged
// and ignored.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// WebhookEvent is the envelope Razorpay posts to the webhook endpoint.
type WebhookEvent struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity WebhookPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// WebhookPayment is the payment entity embedded in capture and failure
// events. Amount is in paise, matching our own money representation.
type WebhookPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

func parseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
