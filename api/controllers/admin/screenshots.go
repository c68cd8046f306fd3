package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rohanjoshi-dev/bitekart-backend/api/controllers/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/screenshots"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

type reviewRequest struct {
	Status  string `json:"status" validate:"required,oneof=verified rejected"`
	Remarks string `json:"remarks" validate:"omitempty,max=300"`
}

type screenshotResponse struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	UserID         int64     `json:"user_id"`
	ImageURL       string    `json:"image_url"`
	Status         string    `json:"status"`
	TransactionRef *string   `json:"transaction_ref,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

func newScreenshotResponse(row models.PaymentScreenshot) screenshotResponse {
	return screenshotResponse{
		ID:             row.ID,
		OrderID:        row.OrderID,
		UserID:         row.UserID,
		ImageURL:       row.ImageURL,
		Status:         string(row.Status),
		TransactionRef: row.TransactionRef,
		SubmittedAt:    row.CreatedAt,
	}
}

// ListScreenshots returns proofs awaiting review, oldest first.
func ListScreenshots(svc screenshots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "screenshots service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1000000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, total, err := svc.ListPending(r.Context(), pagination.Params{Limit: limit, Offset: offset})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]screenshotResponse, 0, len(rows))
		for _, row := range rows {
			items = append(items, newScreenshotResponse(row))
		}
		responses.WriteSuccess(w, map[string]any{
			"screenshots": items,
			"total":       total,
		})
	}
}

// ReviewScreenshot applies the admin's verified/rejected decision and
// returns the order in its new state.
func ReviewScreenshot(svc screenshots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "screenshots service unavailable"))
			return
		}

		screenshotID, err := validators.ParsePathID(chi.URLParam(r, "screenshotId"), "screenshotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseScreenshotStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		order, err := svc.Review(r.Context(), screenshots.ReviewInput{
			ScreenshotID: screenshotID,
			AdminID:      middleware.UserIDFromContext(r.Context()),
			Decision:     decision,
			Note:         validators.SanitizeString(payload.Remarks, 300),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.NewOrderResponse(order))
	}
}
