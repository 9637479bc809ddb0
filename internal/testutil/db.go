// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"

	"kointos-backend/internal/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AllModels lists every table the application owns.
func AllModels() []interface{} {
	return []interface{}{
		&entity.Identity{},
		&entity.UserProfile{},
		&entity.Cryptocurrency{},
		&entity.Portfolio{},
		&entity.PortfolioHolding{},
		&entity.Transaction{},
		&entity.Post{},
		&entity.Comment{},
		&entity.Like{},
		&entity.Follow{},
		&entity.TradingSignal{},
		&entity.Watchlist{},
		&entity.PriceAlert{},
		&entity.Article{},
		&entity.PaymentMethod{},
		&entity.SupportTicket{},
		&entity.FAQ{},
		&entity.UserSettings{},
		&entity.NewsArticle{},
	}
}

// NewDB opens a private in-memory sqlite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every pooled connection to :memory: would be a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(AllModels()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
