package orders

import (
	"net/http"

	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	checkoutsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/checkout"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/types"
)

type checkoutRequest struct {
	DeliveryAddress string  `json:"delivery_address" validate:"required,max=500"`
	PaymentMode     string  `json:"payment_mode" validate:"required"`
	DistanceKm      float64 `json:"distance_km" validate:"omitempty,min=0"`
}

type checkoutResponse struct {
	OrderID         int64                  `json:"order_id"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"payment_status"`
	Total           string                 `json:"total"`
	TotalPaise      int64                  `json:"total_paise"`
	PaymentRequired bool                   `json:"payment_required"`
	PaymentDetails  *paymentIntentResponse `json:"payment_details,omitempty"`
}

// Checkout converts the customer's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParsePaymentMode(payload.PaymentMode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode"))
			return
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			UserID:          middleware.UserIDFromContext(r.Context()),
			PaymentMode:     mode,
			DeliveryAddress: validators.SanitizeString(payload.DeliveryAddress, 500),
			DistanceKm:      payload.DistanceKm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order := result.Order
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:         order.ID,
			Status:          string(order.Status),
			PaymentStatus:   string(order.PaymentStatus),
			Total:           types.RupeesFromPaise(order.TotalPaise),
			TotalPaise:      order.TotalPaise,
			PaymentRequired: order.PaymentMode == enums.PaymentModeOnline,
			PaymentDetails:  newPaymentIntentResponse(result.Intent),
		})
	}
}
