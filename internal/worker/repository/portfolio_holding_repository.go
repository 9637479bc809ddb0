package repository

import (
	"context"
	"strings"

	"kointos-backend/internal/entity"

	"gorm.io/gorm"
)

// PortfolioHoldingRepository reads holdings and stores their valuation.
type PortfolioHoldingRepository interface {
	FindBySymbol(ctx context.Context, symbol string) ([]entity.PortfolioHolding, error)
	UpdateValuation(ctx context.Context, holding *entity.PortfolioHolding) error
}

// NewPortfolioHoldingRepository creates a new instance of PortfolioHoldingRepository.
func NewPortfolioHoldingRepository(db *gorm.DB) PortfolioHoldingRepository {
	return &portfolioHoldingRepository{db: db}
}

type portfolioHoldingRepository struct {
	db *gorm.DB
}

func (r *portfolioHoldingRepository) FindBySymbol(ctx context.Context, symbol string) ([]entity.PortfolioHolding, error) {
	var holdings []entity.PortfolioHolding
	err := r.db.WithContext(ctx).
		Where("UPPER(crypto_symbol) = ?", strings.ToUpper(symbol)).
		Find(&holdings).Error
	return holdings, err
}

// UpdateValuation writes only the valuation columns so concurrent edits of amount or
// average price through the API are not overwritten.
func (r *portfolioHoldingRepository) UpdateValuation(ctx context.Context, holding *entity.PortfolioHolding) error {
	return r.db.WithContext(ctx).Model(&entity.PortfolioHolding{}).
		Where("id = ?", holding.ID).
		Updates(map[string]interface{}{
			"current_value":          holding.CurrentValue,
			"profit_loss":            holding.ProfitLoss,
			"profit_loss_percentage": holding.ProfitLossPercentage,
			"last_updated":           holding.LastUpdated,
		}).Error
}
