package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	paymentssvc "github.com/rohanjoshi-dev/bitekart-backend/internal/payments"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

// verifyRequest carries the fields the Razorpay checkout SDK hands back to
// the client after a payment attempt.
type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// CreatePaymentIntent registers (or re-reads) the gateway order for an
// online payment so the client can open the payment sheet.
func CreatePaymentIntent(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntentForUser(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentIntentResponse(intent))
	}
}

// VerifyPayment settles an online payment from the client-supplied gateway
// signature. The webhook may land first; both paths converge on the same
// idempotent capture.
func VerifyPayment(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.VerifyClientPayment(r.Context(), paymentssvc.VerifyInput{
			UserID:           middleware.UserIDFromContext(r.Context()),
			OrderID:          orderID,
			GatewayOrderID:   payload.RazorpayOrderID,
			GatewayPaymentID: payload.RazorpayPaymentID,
			Signature:        payload.RazorpaySignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"success":        true,
			"payment_id":     order.TransactionID,
			"status":         string(order.Status),
			"payment_status": string(order.PaymentStatus),
		})
	}
}
