package admin

import (
	"net/http"
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/checkout"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/types"
)

type deliverySettingsRequest struct {
	BaseChargePaise int64   `json:"base_charge_paise" validate:"required,min=0"`
	FreeDistanceKm  float64 `json:"free_distance_km" validate:"min=0"`
	ExtraPerKmPaise int64   `json:"extra_per_km_paise" validate:"required,min=0"`
}

type deliverySettingsResponse struct {
	BaseCharge      string     `json:"base_charge"`
	BaseChargePaise int64      `json:"base_charge_paise"`
	FreeDistanceKm  float64    `json:"free_distance_km"`
	ExtraPerKm      string     `json:"extra_per_km"`
	ExtraPerKmPaise int64      `json:"extra_per_km_paise"`
	Source          string     `json:"source"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// GetDeliverySettings returns the active fee policy and whether it came
// from the database row or the configured fallback.
func GetDeliverySettings(source checkout.SettingsSource, fallback config.DeliveryConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings source unavailable"))
			return
		}

		row, err := source.Latest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if row == nil {
			responses.WriteSuccess(w, deliverySettingsResponse{
				BaseCharge:      types.RupeesFromPaise(fallback.BaseChargePaise),
				BaseChargePaise: fallback.BaseChargePaise,
				FreeDistanceKm:  fallback.FreeDistanceKm,
				ExtraPerKm:      types.RupeesFromPaise(fallback.ExtraPerKmPaise),
				ExtraPerKmPaise: fallback.ExtraPerKmPaise,
				Source:          "config",
			})
			return
		}

		responses.WriteSuccess(w, deliverySettingsResponse{
			BaseCharge:      types.RupeesFromPaise(row.BaseChargePaise),
			BaseChargePaise: row.BaseChargePaise,
			FreeDistanceKm:  row.FreeDistanceKm,
			ExtraPerKm:      types.RupeesFromPaise(row.ExtraPerKmPaise),
			ExtraPerKmPaise: row.ExtraPerKmPaise,
			Source:          "database",
			UpdatedAt:       &row.UpdatedAt,
		})
	}
}

// UpdateDeliverySettings replaces the fee policy row.
func UpdateDeliverySettings(source checkout.SettingsSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings source unavailable"))
			return
		}

		var payload deliverySettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adminID := middleware.UserIDFromContext(r.Context())
		row := &models.DeliverySettings{
			BaseChargePaise:  payload.BaseChargePaise,
			FreeDistanceKm:   payload.FreeDistanceKm,
			ExtraPerKmPaise:  payload.ExtraPerKmPaise,
			UpdatedByAdminID: &adminID,
		}
		if err := source.Save(r.Context(), row); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}
