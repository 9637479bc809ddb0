package repository

import (
	"context"
	"strings"
	"time"

	"kointos-backend/internal/entity"

	"gorm.io/gorm"
)

// PriceAlertRepository reads and triggers price alerts.
type PriceAlertRepository interface {
	FindActiveBySymbol(ctx context.Context, symbol string) ([]entity.PriceAlert, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error)
}

// NewPriceAlertRepository creates a new instance of PriceAlertRepository.
func NewPriceAlertRepository(db *gorm.DB) PriceAlertRepository {
	return &priceAlertRepository{db: db}
}

type priceAlertRepository struct {
	db *gorm.DB
}

// FindActiveBySymbol returns the active alerts on symbol, compared case-insensitively.
func (r *priceAlertRepository) FindActiveBySymbol(ctx context.Context, symbol string) ([]entity.PriceAlert, error) {
	var alerts []entity.PriceAlert
	err := r.db.WithContext(ctx).
		Where("UPPER(crypto_symbol) = ? AND is_active = ?", strings.ToUpper(symbol), true).
		Order("created_at asc").
		Find(&alerts).Error
	return alerts, err
}

// MarkTriggered deactivates the alert if it is still active. It reports whether this call
// was the one that triggered it.
func (r *priceAlertRepository) MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.PriceAlert{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "triggered_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
