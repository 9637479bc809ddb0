package entity

import "time"

// Portfolio groups a user's holdings and transactions.
type Portfolio struct {
	Base
	Name        string   `gorm:"not null" json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	TotalValue  *float64 `gorm:"default:0" json:"totalValue"`
	IsPublic    *bool    `gorm:"default:false" json:"isPublic"`
	UserID      string   `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

// PortfolioHolding is the position in one symbol inside a portfolio.
type PortfolioHolding struct {
	Base
	PortfolioID          string     `gorm:"type:varchar(36);not null;index" json:"portfolioId" validate:"required"`
	CryptoSymbol         string     `gorm:"type:varchar(32);not null;index" json:"cryptoSymbol" validate:"required"`
	Amount               *float64   `gorm:"not null" json:"amount" validate:"required"`
	AverageBuyPrice      *float64   `json:"averageBuyPrice,omitempty"`
	CurrentValue         *float64   `json:"currentValue,omitempty"`
	ProfitLoss           *float64   `json:"profitLoss,omitempty"`
	ProfitLossPercentage *float64   `json:"profitLossPercentage,omitempty"`
	LastUpdated          *time.Time `json:"lastUpdated,omitempty"`
}

func (PortfolioHolding) TableName() string {
	return "portfolio_holdings"
}

// Transaction is a single movement recorded against a portfolio.
type Transaction struct {
	Base
	PortfolioID     string          `gorm:"type:varchar(36);not null;index" json:"portfolioId" validate:"required"`
	CryptoSymbol    string          `gorm:"type:varchar(32);not null" json:"cryptoSymbol" validate:"required"`
	Type            TransactionType `gorm:"type:varchar(16)" json:"type,omitempty" validate:"omitempty,oneof=BUY SELL TRANSFER_IN TRANSFER_OUT"`
	Amount          *float64        `gorm:"not null" json:"amount" validate:"required"`
	Price           *float64        `gorm:"not null" json:"price" validate:"required"`
	TotalValue      *float64        `gorm:"not null" json:"totalValue" validate:"required"`
	Fees            *float64        `gorm:"default:0" json:"fees"`
	Notes           string          `json:"notes,omitempty"`
	TransactionDate time.Time       `gorm:"not null" json:"transactionDate" validate:"required"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// PaymentMethod is a stored funding source. Only the last four characters of a card or account
// number are kept.
type PaymentMethod struct {
	Base
	UserID        string            `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	Type          PaymentMethodType `gorm:"type:varchar(16)" json:"type,omitempty" validate:"omitempty,oneof=BANK_ACCOUNT CREDIT_CARD DEBIT_CARD CRYPTO_WALLET"`
	Name          string            `gorm:"not null" json:"name" validate:"required"`
	Last4         string            `gorm:"column:last4;type:varchar(4)" json:"last4,omitempty" validate:"omitempty,max=4"`
	ExpiryMonth   *int              `json:"expiryMonth,omitempty" validate:"omitempty,min=1,max=12"`
	ExpiryYear    *int              `json:"expiryYear,omitempty"`
	BankName      string            `json:"bankName,omitempty"`
	AccountType   string            `json:"accountType,omitempty"`
	WalletAddress string            `json:"walletAddress,omitempty"`
	IsDefault     *bool             `gorm:"default:false" json:"isDefault"`
	IsActive      *bool             `gorm:"default:true" json:"isActive"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
