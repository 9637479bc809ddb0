package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Cryptocurrency is a tracked asset and its latest market data.
type Cryptocurrency struct {
	Base
	Symbol                   string     `gorm:"type:varchar(32);not null;index" json:"symbol" validate:"required"`
	Name                     string     `gorm:"not null" json:"name" validate:"required"`
	CurrentPrice             *float64   `json:"currentPrice,omitempty"`
	MarketCap                *float64   `json:"marketCap,omitempty"`
	Volume24h                *float64   `gorm:"column:volume_24h" json:"volume24h,omitempty"`
	PriceChange24h           *float64   `gorm:"column:price_change_24h" json:"priceChange24h,omitempty"`
	PriceChangePercentage24h *float64   `gorm:"column:price_change_percentage_24h" json:"priceChangePercentage24h,omitempty"`
	LogoURL                  string     `gorm:"column:logo_url" json:"logoUrl,omitempty" validate:"omitempty,url"`
	Description              string     `json:"description,omitempty"`
	Website                  string     `json:"website,omitempty" validate:"omitempty,url"`
	LastUpdated              *time.Time `json:"lastUpdated,omitempty"`
}

func (Cryptocurrency) TableName() string {
	return "cryptocurrencies"
}

// TradingSignal is a user-published trade recommendation.
type TradingSignal struct {
	Base
	UserID       string     `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	CryptoSymbol string     `gorm:"type:varchar(32);not null;index" json:"cryptoSymbol" validate:"required"`
	SignalType   SignalType `gorm:"type:varchar(8)" json:"signalType,omitempty" validate:"omitempty,oneof=BUY SELL HOLD"`
	TargetPrice  *float64   `json:"targetPrice,omitempty"`
	StopLoss     *float64   `json:"stopLoss,omitempty"`
	// Confidence ranges from 1 to 100.
	Confidence        *int       `json:"confidence,omitempty" validate:"omitempty,min=1,max=100"`
	Reasoning         string     `json:"reasoning,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	IsActive          *bool      `gorm:"default:true" json:"isActive"`
	PerformanceRating *float64   `json:"performanceRating,omitempty"`
}

func (TradingSignal) TableName() string {
	return "trading_signals"
}

// Watchlist is a named list of symbols a user follows.
type Watchlist struct {
	Base
	UserID        string                      `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	Name          string                      `gorm:"not null" json:"name" validate:"required"`
	CryptoSymbols datatypes.JSONSlice[string] `json:"cryptoSymbols,omitempty"`
	IsPublic      *bool                       `gorm:"default:false" json:"isPublic"`
}

func (Watchlist) TableName() string {
	return "watchlists"
}

// PriceAlert fires once when the symbol's price crosses TargetPrice in the AlertType direction.
type PriceAlert struct {
	Base
	UserID       string     `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	CryptoSymbol string     `gorm:"type:varchar(32);not null;index" json:"cryptoSymbol" validate:"required"`
	AlertType    AlertType  `gorm:"type:varchar(8)" json:"alertType,omitempty" validate:"omitempty,oneof=ABOVE BELOW"`
	TargetPrice  *float64   `gorm:"not null" json:"targetPrice" validate:"required"`
	IsActive     *bool      `gorm:"default:true" json:"isActive"`
	TriggeredAt  *time.Time `json:"triggeredAt,omitempty"`
}

func (PriceAlert) TableName() string {
	return "price_alerts"
}

// NewsArticle is externally sourced market news. It is written only by the ingestion worker.
type NewsArticle struct {
	Base
	Title            string                      `gorm:"not null" json:"title" validate:"required"`
	Content          string                      `gorm:"not null" json:"content" validate:"required"`
	Summary          string                      `json:"summary,omitempty"`
	Author           string                      `json:"author,omitempty"`
	SourceURL        string                      `gorm:"column:source_url;index" json:"sourceUrl,omitempty" validate:"omitempty,url"`
	ImageURL         string                      `gorm:"column:image_url" json:"imageUrl,omitempty" validate:"omitempty,url"`
	PublishedAt      *time.Time                  `json:"publishedAt,omitempty"`
	Tags             datatypes.JSONSlice[string] `json:"tags,omitempty"`
	MentionedCryptos datatypes.JSONSlice[string] `json:"mentionedCryptos,omitempty"`
	Sentiment        Sentiment                   `gorm:"type:varchar(16)" json:"sentiment,omitempty" validate:"omitempty,oneof=POSITIVE NEGATIVE NEUTRAL"`
}

func (NewsArticle) TableName() string {
	return "news_articles"
}
