package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/notifications"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pagination"
)

type notificationResponse struct {
	ID        int64      `json:"id"`
	OrderID   *int64     `json:"order_id,omitempty"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type registerTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
}

// recipientFromContext maps the authenticated actor onto a notification
// inbox. Vendors read their vendor feed, everyone else their user feed.
func recipientFromContext(r *http.Request) (enums.RecipientType, int64) {
	ctx := r.Context()
	if middleware.RoleFromContext(ctx) == enums.RoleVendor {
		if vendorID := middleware.VendorIDFromContext(ctx); vendorID > 0 {
			return enums.RecipientTypeVendor, vendorID
		}
	}
	return enums.RecipientTypeUser, middleware.UserIDFromContext(ctx)
}

// ListNotifications returns the actor's notification feed, newest first.
func ListNotifications(svc *notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
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

		recipientType, recipientID := recipientFromContext(r)
		rows, total, err := svc.List(r.Context(), recipientType, recipientID, pagination.Params{Limit: limit, Offset: offset})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]notificationResponse, 0, len(rows))
		for _, row := range rows {
			items = append(items, newNotificationResponse(row))
		}
		responses.WriteSuccess(w, map[string]any{
			"notifications": items,
			"total":         total,
		})
	}
}

// MarkNotificationRead stamps read_at on one of the actor's notifications.
func MarkNotificationRead(svc *notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		notificationID, err := validators.ParsePathID(chi.URLParam(r, "notificationId"), "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		_, recipientID := recipientFromContext(r)
		if err := svc.MarkRead(r.Context(), notificationID, recipientID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

// RegisterDeviceToken stores an FCM token for the authenticated user.
func RegisterDeviceToken(svc *notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		var payload registerTokenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.RegisterToken(r.Context(), userID, payload.Token, payload.Platform); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}

func newNotificationResponse(row models.Notification) notificationResponse {
	return notificationResponse{
		ID:        row.ID,
		OrderID:   row.OrderID,
		Title:     row.Title,
		Message:   row.Message,
		ReadAt:    row.ReadAt,
		CreatedAt: row.CreatedAt,
	}
}
