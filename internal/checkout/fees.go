package checkout

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
)

// SettingsSource loads the current delivery fee inputs. A nil row means no
// admin override exists yet.
type SettingsSource interface {
	Latest(ctx context.Context) (*models.DeliverySettings, error)
	Save(ctx context.Context, settings *models.DeliverySettings) error
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo builds a delivery-settings store bound to the provided DB.
func NewSettingsRepo(db *gorm.DB) SettingsSource {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Latest(ctx context.Context) (*models.DeliverySettings, error) {
	var settings models.DeliverySettings
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&settings).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Save(ctx context.Context, settings *models.DeliverySettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

// FeeCalculator quotes delivery fees from the admin-managed settings row,
// falling back to configured defaults.
type FeeCalculator struct {
	settings SettingsSource
	cfg      config.DeliveryConfig
}

// NewFeeCalculator builds a calculator. settings may be nil, in which case
// config defaults always apply.
func NewFeeCalculator(settings SettingsSource, cfg config.DeliveryConfig) *FeeCalculator {
	return &FeeCalculator{settings: settings, cfg: cfg}
}

// Quote returns the delivery fee in paise for the given distance. The base
// charge covers the free radius; every started kilometre beyond it bills at
// the per-km rate.
func (f *FeeCalculator) Quote(ctx context.Context, distanceKm float64) (int64, error) {
	if distanceKm < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "distance must be non-negative")
	}

	base := f.cfg.BaseChargePaise
	freeKm := f.cfg.FreeDistanceKm
	perKm := f.cfg.ExtraPerKmPaise

	if f.settings != nil {
		row, err := f.settings.Latest(ctx)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery settings")
		}
		if row != nil {
			base = row.BaseChargePaise
			freeKm = row.FreeDistanceKm
			perKm = row.ExtraPerKmPaise
		}
	}

	if distanceKm <= freeKm {
		return base, nil
	}
	extraKm := int64(math.Ceil(distanceKm - freeKm))
	return base + extraKm*perKm, nil
}
