package repository

import (
	"context"

	"kointos-backend/internal/entity"

	"gorm.io/gorm"
)

// CryptocurrencyRepository reads the tracked assets.
type CryptocurrencyRepository interface {
	ListAssets(ctx context.Context) ([]entity.Cryptocurrency, error)
}

// NewCryptocurrencyRepository creates a new instance of CryptocurrencyRepository.
func NewCryptocurrencyRepository(db *gorm.DB) CryptocurrencyRepository {
	return &cryptocurrencyRepository{db: db}
}

type cryptocurrencyRepository struct {
	db *gorm.DB
}

// ListAssets returns the symbol and name of every tracked asset, ordered by symbol.
func (r *cryptocurrencyRepository) ListAssets(ctx context.Context) ([]entity.Cryptocurrency, error) {
	var assets []entity.Cryptocurrency
	err := r.db.WithContext(ctx).
		Select("symbol", "name").
		Order("symbol").
		Find(&assets).Error
	return assets, err
}
