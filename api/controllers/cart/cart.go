package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	cartsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/cart"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/types"
)

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
	Quantity  int   `json:"quantity" validate:"required,min=1,max=50"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=50"`
}

type lineResponse struct {
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPrice      string `json:"unit_price"`
	Quantity       int    `json:"quantity"`
	Subtotal       string `json:"subtotal"`
	IsAvailable    bool   `json:"is_available"`
	UnitPricePaise int64  `json:"unit_price_paise"`
	SubtotalPaise  int64  `json:"subtotal_paise"`
}

type snapshotResponse struct {
	VendorID      int64          `json:"vendor_id,omitempty"`
	Items         []lineResponse `json:"items"`
	Subtotal      string         `json:"subtotal"`
	SubtotalPaise int64          `json:"subtotal_paise"`
}

func newSnapshotResponse(snapshot *cartsvc.Snapshot) snapshotResponse {
	items := make([]lineResponse, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		items = append(items, lineResponse{
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			UnitPrice:      types.RupeesFromPaise(line.UnitPricePaise),
			Quantity:       line.Quantity,
			Subtotal:       types.RupeesFromPaise(line.SubtotalPaise),
			IsAvailable:    line.IsAvailable,
			UnitPricePaise: line.UnitPricePaise,
			SubtotalPaise:  line.SubtotalPaise,
		})
	}
	return snapshotResponse{
		VendorID:      snapshot.VendorID,
		Items:         items,
		Subtotal:      types.RupeesFromPaise(snapshot.SubtotalPaise),
		SubtotalPaise: snapshot.SubtotalPaise,
	}
}

// Fetch returns the customer's current cart grouped under its vendor.
func Fetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		snapshot, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSnapshotResponse(snapshot))
	}
}

// AddItem adds a product line or bumps its quantity.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.AddItem(r.Context(), middleware.UserIDFromContext(r.Context()), payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSnapshotResponse(snapshot))
	}
}

// UpdateItem sets the quantity of an existing line.
func UpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		productID, err := validators.ParsePathID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.UpdateItem(r.Context(), middleware.UserIDFromContext(r.Context()), productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSnapshotResponse(snapshot))
	}
}

// RemoveItem deletes a product line.
func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		productID, err := validators.ParsePathID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.RemoveItem(r.Context(), middleware.UserIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSnapshotResponse(snapshot))
	}
}

// Clear empties the cart.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		if err := svc.Clear(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}
