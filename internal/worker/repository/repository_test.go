package repository_test

import (
	"context"
	"testing"
	"time"

	"kointos-backend/internal/entity"
	"kointos-backend/internal/testutil"
	"kointos-backend/internal/worker/repository"
	"kointos-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceAlertRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewPriceAlertRepository(db)

	active := &entity.PriceAlert{UserID: "u", CryptoSymbol: "btc", AlertType: entity.AlertTypeAbove, TargetPrice: utils.ToPointer(100.0)}
	inactive := &entity.PriceAlert{UserID: "u", CryptoSymbol: "BTC", TargetPrice: utils.ToPointer(100.0), IsActive: utils.ToPointer(false)}
	other := &entity.PriceAlert{UserID: "u", CryptoSymbol: "ETH", TargetPrice: utils.ToPointer(100.0)}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(inactive).Error)
	require.NoError(t, db.Create(other).Error)

	alerts, err := repo.FindActiveBySymbol(ctx, "BTC")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, active.ID, alerts[0].ID)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ok, err := repo.MarkTriggered(ctx, active.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkTriggered(ctx, active.ID, at)
	require.NoError(t, err)
	assert.False(t, ok, "second trigger is a no-op")

	var stored entity.PriceAlert
	require.NoError(t, db.First(&stored, "id = ?", active.ID).Error)
	assert.False(t, *stored.IsActive)
	require.NotNil(t, stored.TriggeredAt)
	assert.True(t, at.Equal(stored.TriggeredAt.UTC()))
}

func TestPortfolioHoldingRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewPortfolioHoldingRepository(db)

	h := &entity.PortfolioHolding{PortfolioID: "p", CryptoSymbol: "SOL", Amount: utils.ToPointer(2.0)}
	require.NoError(t, db.Create(h).Error)

	holdings, err := repo.FindBySymbol(ctx, "sol")
	require.NoError(t, err)
	require.Len(t, holdings, 1)

	now := time.Now().UTC()
	holdings[0].CurrentValue = utils.ToPointer(300.0)
	holdings[0].ProfitLoss = utils.ToPointer(100.0)
	holdings[0].ProfitLossPercentage = utils.ToPointer(50.0)
	holdings[0].LastUpdated = &now
	holdings[0].Amount = utils.ToPointer(99.0)
	require.NoError(t, repo.UpdateValuation(ctx, &holdings[0]))

	var stored entity.PortfolioHolding
	require.NoError(t, db.First(&stored, "id = ?", h.ID).Error)
	assert.Equal(t, 300.0, *stored.CurrentValue)
	assert.Equal(t, 2.0, *stored.Amount, "amount is not a valuation column")
}

func TestNewsArticleRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewNewsArticleRepository(testutil.NewDB(t))

	require.NoError(t, repo.Create(ctx, &entity.NewsArticle{Title: "t", Content: "c", SourceURL: "https://a.example/1"}))

	existing, err := repo.ExistingSourceURLs(ctx, []string{"https://a.example/1", "https://a.example/2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://a.example/1": true}, existing)

	empty, err := repo.ExistingSourceURLs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCryptocurrencyRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewCryptocurrencyRepository(db)

	require.NoError(t, db.Create(&entity.Cryptocurrency{Symbol: "ETH", Name: "Ethereum"}).Error)
	require.NoError(t, db.Create(&entity.Cryptocurrency{Symbol: "BTC", Name: "Bitcoin"}).Error)

	assets, err := repo.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "BTC", assets[0].Symbol)
	assert.Equal(t, "Bitcoin", assets[0].Name)
	assert.Equal(t, "ETH", assets[1].Symbol)
}
